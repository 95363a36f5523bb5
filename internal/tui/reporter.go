package tui

import (
	"sync"

	"metamod/internal/errors"
)

// Level classifies a status line message
type Level int

const (
	LevelNone Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Status is one message for the status line
type Status struct {
	Level Level
	Text  string
}

// StatusReporter keeps the latest outcome for the status line. Controller
// operations run inside tea.Cmd goroutines, so access is locked.
type StatusReporter struct {
	mu   sync.Mutex
	last Status
}

// NewStatusReporter creates an empty reporter
func NewStatusReporter() *StatusReporter {
	return &StatusReporter{}
}

// Info implements session.Reporter
func (r *StatusReporter) Info(title, message string) {
	r.set(Status{Level: LevelInfo, Text: message})
}

// Warn implements session.Reporter
func (r *StatusReporter) Warn(message string) {
	r.set(Status{Level: LevelWarn, Text: message})
}

// Error implements session.Reporter
func (r *StatusReporter) Error(title string, err error) {
	r.set(Status{Level: LevelError, Text: title + ": " + errors.UserMessage(err)})
}

// Last returns the most recent message
func (r *StatusReporter) Last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Clear forgets the last message
func (r *StatusReporter) Clear() {
	r.set(Status{})
}

func (r *StatusReporter) set(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = s
}
