package gui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tiersort/internal/config"
	"tiersort/internal/log"
	"tiersort/internal/media"
	"tiersort/internal/session"

	"github.com/dustin/go-humanize"
)

const maxPreviewItems = 10

// previewFolder describes what a session in mode would sort in dirPath.
func previewFolder(cfg *config.Config, dirPath string, mode media.Mode) (string, error) {
	if dirPath == "" {
		return "No folder selected", nil
	}

	if _, err := os.Stat(dirPath); err != nil {
		return fmt.Sprintf("Error accessing folder: %v", err), err
	}

	items, err := session.Scan(cfg, dirPath, mode)
	if err != nil {
		return fmt.Sprintf("Error reading folder: %v", err), err
	}

	if len(items) == 0 {
		return fmt.Sprintf("No %s found", strings.ToLower(mode.String())), nil
	}

	var total uint64
	sb := strings.Builder{}
	for i, item := range items {
		info, err := os.Stat(filepath.Join(dirPath, item.Name))
		if err != nil {
			log.Warnf("Error getting stats for file %s: %v", item.Name, err)
			continue
		}
		total += uint64(info.Size())
		if i < maxPreviewItems {
			sb.WriteString(fmt.Sprintf("%s (%s)\n", item.Name, humanize.Bytes(uint64(info.Size()))))
		}
	}
	if len(items) > maxPreviewItems {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(items)-maxPreviewItems))
	}

	header := fmt.Sprintf("%d %s to sort, %s\n\n", len(items), strings.ToLower(mode.String()), humanize.Bytes(total))
	return header + sb.String(), nil
}
