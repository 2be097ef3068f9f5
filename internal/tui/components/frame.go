package components

import (
	"fmt"
	"image"
	"strings"

	"tiersort/internal/decode"

	"github.com/charmbracelet/lipgloss"
)

const upperHalf = "▀"

// RenderFrame draws img into a cols x rows cell grid. Each cell holds two
// pixels: the top one as the foreground of an upper half block and the
// bottom one as its background.
func RenderFrame(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	img = decode.ResizeToFit(img, cols, rows*2)
	b := img.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexColor(img, x, y))
			if y+1 < b.Max.Y {
				style = style.Background(hexColor(img, x, y+1))
			}
			sb.WriteString(style.Render(upperHalf))
		}
		if y+2 < b.Max.Y {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(img image.Image, x, y int) lipgloss.Color {
	r, g, b, _ := img.At(x, y).RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r>>8, g>>8, b>>8))
}
