//go:build nogui
// +build nogui

package gui

import (
	"fmt"

	"metamod/internal/config"
	"metamod/internal/session"
)

// Run is a stub implementation for builds with GUI disabled
func Run(cfg *config.Config, tool session.Tool, path string) error {
	fmt.Println("GUI is disabled in this build. Please use the tui or CLI commands.")
	return fmt.Errorf("GUI not available in this build")
}

// IsGUIAvailable returns whether the GUI is available in this build
func IsGUIAvailable() bool {
	return false
}
