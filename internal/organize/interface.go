package organize

import (
	"tiersort/internal/config"
	"tiersort/internal/media"
)

// Relocator moves sorted items into their tier folders.
// This allows for dependency injection in tests and other parts of the application
type Relocator interface {
	// SetConfig applies collision and dry-run settings
	SetConfig(cfg config.Relocation)

	// SetDryRun sets whether moves are performed or only logged
	SetDryRun(dryRun bool)

	// PrepareTiers creates one folder per tier under the source folder
	PrepareTiers(tiers []string) error

	// Relocate moves item from the source folder into its tier folder
	Relocate(item media.WorkItem, tier string) error

	// MoveFile moves a file from source to destination with safety checks
	MoveFile(src, dest string) error

	// IsDryRun reports whether moves are only logged
	IsDryRun() bool

	// Moved is the number of files moved so far
	Moved() int
}

// Ensure Engine implements the Relocator interface
var _ Relocator = (*Engine)(nil)
