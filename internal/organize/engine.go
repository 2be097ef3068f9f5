// Package organize moves sorted items from the source folder into tier
// subfolders.
package organize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tiersort/internal/config"
	"tiersort/internal/errors"
	"tiersort/internal/log"
	"tiersort/internal/media"
)

// Engine relocates items within one source folder.
type Engine struct {
	sourceDir string
	dryRun    bool
	collision string
	mu        sync.Mutex // Serializes destination checks and moves
	moved     int
}

// New creates a relocation engine for sourceDir with the default settings.
func New(sourceDir string) *Engine {
	return &Engine{
		sourceDir: sourceDir,
		collision: config.CollisionError,
	}
}

// SetConfig applies the relocation settings.
func (e *Engine) SetConfig(cfg config.Relocation) {
	e.dryRun = cfg.DryRun
	if cfg.Collision != "" {
		e.collision = cfg.Collision
	}
}

// SetDryRun sets whether operations should be performed or just simulated
func (e *Engine) SetDryRun(dryRun bool) {
	e.dryRun = dryRun
}

// IsDryRun returns whether the engine is in dry run mode
func (e *Engine) IsDryRun() bool {
	return e.dryRun
}

// Moved is the number of files moved so far.
func (e *Engine) Moved() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.moved
}

// PrepareTiers creates a folder per tier. Existing folders are fine; a file
// in the way of a tier folder is not.
func (e *Engine) PrepareTiers(tiers []string) error {
	for _, tier := range tiers {
		if !media.ValidTierName(tier) {
			return errors.NewConfigError(fmt.Sprintf("invalid tier name %q", tier), "tiers", errors.InvalidConfig, nil)
		}
		dir := filepath.Join(e.sourceDir, tier)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewFileError("failed to create tier folder", dir, errors.FileOperationFailed, err)
		}
		log.Debug("Tier folder ready: %s", dir)
	}
	return nil
}

// Relocate moves item into sourceDir/tier. Any failure is returned as a
// RelocationError and the item stays where it was.
func (e *Engine) Relocate(item media.WorkItem, tier string) error {
	if item.Name == "" || filepath.Base(item.Name) != item.Name {
		return errors.NewRelocationError(item.Name, tier,
			errors.NewFileError("item is not a file in the source folder", item.Name, errors.InvalidPath, nil))
	}
	if !media.ValidTierName(tier) {
		return errors.NewRelocationError(item.Name, tier,
			errors.NewFileError("invalid tier folder", tier, errors.InvalidPath, nil))
	}

	src := filepath.Join(e.sourceDir, item.Name)
	dest := filepath.Join(e.sourceDir, tier, item.Name)
	if err := e.MoveFile(src, dest); err != nil {
		return errors.NewRelocationError(item.Name, tier, err)
	}
	return nil
}

// MoveFile moves a file from source to destination, handling collisions based on config.
func (e *Engine) MoveFile(src, dest string) error {
	// Clean paths for comparison
	cleanSrc := filepath.Clean(src)
	cleanDest := filepath.Clean(dest)

	if cleanSrc == cleanDest {
		log.Debug("Source and destination are the same, skipping: %s", src)
		return nil
	}

	srcInfo, err := os.Stat(cleanSrc)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileError("source file not found", cleanSrc, errors.FileNotFound, err)
		}
		return errors.NewFileError("source file error", cleanSrc, errors.FileAccessDenied, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return errors.NewFileError("not a regular file", cleanSrc, errors.InvalidPath, nil)
	}

	destDir := filepath.Dir(cleanDest)
	if info, err := os.Stat(destDir); err != nil || !info.IsDir() {
		return errors.NewFileError("destination folder missing", destDir, errors.FileNotFound, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.dryRun {
		log.Info("Would move %s -> %s", src, cleanDest)
		return nil
	}

	finalDest, err := e.handleCollision(cleanDest)
	if err != nil {
		return err
	}

	log.Debug("Moving %s to %s", cleanSrc, finalDest)
	if err := os.Rename(cleanSrc, finalDest); err != nil {
		return errors.NewFileError("failed to move file", cleanSrc, errors.FileOperationFailed, err)
	}
	e.moved++

	log.LogWithFields(
		log.F("from", cleanSrc),
		log.F("to", finalDest),
	).Info("Moved file")
	return nil
}

// handleCollision implements collision resolution strategies.
// It returns the final destination path.
func (e *Engine) handleCollision(dest string) (string, error) {
	_, err := os.Lstat(dest)
	if os.IsNotExist(err) {
		return dest, nil
	}
	if err != nil {
		return "", errors.NewFileError("error checking destination", dest, errors.FileAccessDenied, err)
	}

	switch e.collision {
	case config.CollisionOverwrite:
		log.Warn("Overwriting %s (strategy: overwrite)", dest)
		return dest, nil

	case config.CollisionRename:
		return e.findUniqueDestName(dest)

	case config.CollisionError, "":
		return "", errors.NewFileError("destination already exists", dest, errors.FileOperationFailed, os.ErrExist)

	default:
		return "", errors.NewConfigError(fmt.Sprintf("unknown collision strategy: %s", e.collision),
			"relocation.collision", errors.InvalidConfig, nil)
	}
}

// findUniqueDestName finds a unique filename by adding counter to the basename
func (e *Engine) findUniqueDestName(originalPath string) (string, error) {
	ext := filepath.Ext(originalPath)
	base := strings.TrimSuffix(originalPath, ext)

	for counter := 1; counter <= 1000; counter++ {
		newName := fmt.Sprintf("%s_(%d)%s", base, counter, ext)

		if _, err := os.Lstat(newName); os.IsNotExist(err) {
			log.Info("Renaming destination to %s due to collision (strategy: rename)", newName)
			return newName, nil
		}
	}

	return "", errors.NewFileError("failed to find unique name after 1000 attempts", originalPath, errors.FileOperationFailed, nil)
}
