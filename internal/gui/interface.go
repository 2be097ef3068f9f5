package gui

import (
	"tiersort/internal/config"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run()
	ShowError(title string, err error)
	ShowInfo(message string)
}

// Factory creates GUI instances
type Factory struct {
	config *config.Config
}

// NewFactory creates a new GUI factory
func NewFactory(cfg *config.Config) *Factory {
	return &Factory{config: cfg}
}
