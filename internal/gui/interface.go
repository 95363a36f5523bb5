//go:build !nogui
// +build !nogui

package gui

import (
	"metamod/internal/config"
	"metamod/internal/errors"
	"metamod/internal/session"
)

// Interface defines the contract for GUI operations
type Interface interface {
	Run(path string)
	ShowError(title string, err error)
	ShowInfo(message string)
}

var _ Interface = (*App)(nil)

// Factory creates GUI instances
type Factory struct {
	config *config.Config
	tool   session.Tool
}

// NewFactory creates a new GUI factory
func NewFactory(cfg *config.Config, tool session.Tool) *Factory {
	return &Factory{
		config: cfg,
		tool:   tool,
	}
}

// Create returns a new GUI instance
func (f *Factory) Create() (Interface, error) {
	if f.config == nil {
		return nil, errors.New("gui: no configuration")
	}
	if f.tool == nil {
		return nil, errors.New("gui: no metadata tool")
	}
	return NewApp(f.config, f.tool), nil
}
