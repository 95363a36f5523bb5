// Package session holds the editing session for one open file and the
// controller that turns user actions into metadata tool calls.
package session

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// State is the controller's position in its lifecycle
type State int

const (
	NoFileOpen State = iota
	FileOpenClean
	OperationInFlight
	OperationFailed
)

func (s State) String() string {
	switch s {
	case NoFileOpen:
		return "no file open"
	case FileOpenClean:
		return "file open"
	case OperationInFlight:
		return "operation in flight"
	case OperationFailed:
		return "operation failed"
	default:
		return "unknown"
	}
}

// Session is the file currently being edited. The zero value has no file.
type Session struct {
	Path string
	// ReadAt is the modification time of Path when it was last read
	ReadAt time.Time
	// Type is the detected media type of Path, empty when unknown
	Type string
}

// HasFile reports whether a file reference is set
func (s Session) HasFile() bool {
	return s.Path != ""
}

// Label returns the text shown next to the open button
func (s Session) Label() string {
	if !s.HasFile() {
		return "No file selected"
	}
	if s.Type == "" {
		return s.Path
	}
	return s.Path + " (" + s.Type + ")"
}

// sameFile reports whether a and b name the same file, either by cleaned
// absolute path or, when both exist, by identity
func sameFile(a, b string) bool {
	if abs, err := filepath.Abs(a); err == nil {
		a = abs
	}
	if abs, err := filepath.Abs(b); err == nil {
		b = abs
	}
	if a == b {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

// detectType sniffs the media type from the file contents
func detectType(path string) string {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return ""
	}
	return m.String()
}

// SuggestCopyName proposes an export destination next to path, such as
// photo_copy.jpg for photo.jpg
func SuggestCopyName(path string) string {
	if path == "" {
		return ""
	}
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, name+"_copy"+ext)
}
