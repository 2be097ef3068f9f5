// Package decode is the boundary to image and video decoding. Sessions only
// see the interfaces here; the concrete decoders read stills with the Go
// image codecs and videos through an ffmpeg subprocess.
package decode

import (
	"image"

	"tiersort/internal/media"

	xdraw "golang.org/x/image/draw"
)

// ImageDecoder opens a still image.
type ImageDecoder interface {
	Decode(path string) (image.Image, error)
}

// VideoDecoder opens a video for sequential frame reads.
type VideoDecoder interface {
	Open(path string) (VideoSource, error)
}

// VideoSource is one open decoding resource. It is not safe for concurrent
// use; callers serialize access.
type VideoSource interface {
	// ReadFrame returns the next frame, or io.EOF at end of stream.
	ReadFrame() (image.Image, error)
	// Rewind moves the read position back to the first frame.
	Rewind() error
	// Close releases the resource. The file is no longer held open after
	// Close returns.
	Close() error
}

// ResizeToFit scales img down to fit within maxW x maxH, preserving the
// aspect ratio. Images that already fit are returned as is.
func ResizeToFit(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := media.FitWithin(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
