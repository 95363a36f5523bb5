// Package exiftool adapts the exiftool command line program. Every operation
// builds an argument vector, runs the tool once and waits for it; reads decode
// the JSON it prints, writes only interpret the exit status.
package exiftool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	apperrors "metamod/internal/errors"
	"metamod/internal/log"
	"metamod/internal/metadata"
)

// Tool runs exiftool for one configured executable
type Tool struct {
	executable string
	keepBackup bool
	runner     Runner
}

// Option configures a Tool
type Option func(*Tool)

// WithRunner replaces the process runner
func WithRunner(r Runner) Option {
	return func(t *Tool) {
		t.runner = r
	}
}

// WithKeepBackup keeps the tool's <file>_original backups instead of
// overwriting in place
func WithKeepBackup(keep bool) Option {
	return func(t *Tool) {
		t.keepBackup = keep
	}
}

// New creates a Tool for executable
func New(executable string, opts ...Option) *Tool {
	if executable == "" {
		executable = DefaultExecutable
	}
	t := &Tool{
		executable: executable,
		runner:     ExecRunner{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Executable returns the program the tool runs
func (t *Tool) Executable() string {
	return t.executable
}

// RenameError reports a rename that did not complete. When Copied is true
// the value already exists under the new key and the old key is still present.
type RenameError struct {
	OldKey string
	NewKey string
	copied bool
	Err    error
}

func (e *RenameError) Error() string {
	if e.copied {
		return fmt.Sprintf("copied %s to %s but could not remove %s: %v", e.OldKey, e.NewKey, e.OldKey, e.Err)
	}
	return fmt.Sprintf("could not copy %s to %s: %v", e.OldKey, e.NewKey, e.Err)
}

func (e *RenameError) Unwrap() error {
	return e.Err
}

// Copied reports whether the first step of the rename succeeded
func (e *RenameError) Copied() bool {
	return e.copied
}

// ReadAll returns every tag of path in the order the tool prints them
func (t *Tool) ReadAll(ctx context.Context, path string) (metadata.Snapshot, error) {
	args := ReadAllArgs(path)
	res, err := t.run(ctx, args)
	if err != nil {
		return nil, err
	}

	snap, err := ParseReadAll(res.Stdout)
	if err != nil {
		return nil, apperrors.NewMalformedOutputError("unexpected output from "+t.executable, args, err)
	}
	log.LogWithFields(log.F("path", path), log.F("tags", len(snap))).Debug("Read metadata")
	return snap, nil
}

// SetTag writes key=value to path
func (t *Tool) SetTag(ctx context.Context, path, key, value string) error {
	_, err := t.run(ctx, SetTagArgs(path, key, value, t.keepBackup))
	return err
}

// DeleteTag clears key in path
func (t *Tool) DeleteTag(ctx context.Context, path, key string) error {
	_, err := t.run(ctx, DeleteTagArgs(path, key, t.keepBackup))
	return err
}

// CopyTag copies the value of from into to
func (t *Tool) CopyTag(ctx context.Context, path, from, to string) error {
	_, err := t.run(ctx, CopyTagArgs(path, from, to, t.keepBackup))
	return err
}

// RenameTag copies oldKey to newKey and then clears oldKey. The tool has
// no atomic rename: if the second call fails both keys remain and the
// returned *RenameError reports Copied.
func (t *Tool) RenameTag(ctx context.Context, path, oldKey, newKey string) error {
	if err := t.CopyTag(ctx, path, oldKey, newKey); err != nil {
		return &RenameError{OldKey: oldKey, NewKey: newKey, Err: err}
	}
	if err := t.DeleteTag(ctx, path, oldKey); err != nil {
		log.LogWithFields(log.F("path", path), log.F("old", oldKey), log.F("new", newKey)).
			Warn("Rename left the tag under both names")
		return &RenameError{OldKey: oldKey, NewKey: newKey, copied: true, Err: err}
	}
	return nil
}

// ClearAll removes every writable tag from path
func (t *Tool) ClearAll(ctx context.Context, path string) error {
	_, err := t.run(ctx, ClearAllArgs(path, t.keepBackup))
	return err
}

// Export writes a copy of src with its metadata to dst. The tool refuses to
// overwrite an existing dst.
func (t *Tool) Export(ctx context.Context, src, dst string) error {
	_, err := t.run(ctx, ExportArgs(src, dst, t.keepBackup))
	return err
}

// Version returns the version string the tool reports
func (t *Tool) Version(ctx context.Context) (string, error) {
	res, err := t.run(ctx, VersionArgs())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func (t *Tool) run(ctx context.Context, args []string) (Result, error) {
	log.LogWithFields(log.F("executable", t.executable), log.F("args", strings.Join(args, " "))).
		Debug("Running metadata tool")

	res, err := t.runner.Run(ctx, t.executable, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || isStartFailure(err) {
			return res, apperrors.NewToolNotFoundError(t.executable, err)
		}
		return res, apperrors.Wrapf(err, "running %s", t.executable)
	}

	if res.ExitCode != 0 {
		toolErr := apperrors.NewToolError(t.executable+" failed", args, res.ExitCode, string(res.Stderr))
		log.LogWithError(toolErr).Warn("Metadata tool exited with an error")
		return res, toolErr
	}
	return res, nil
}

// isStartFailure matches the *exec.Error and *fs.PathError values returned
// when the executable is missing or not runnable
func isStartFailure(err error) bool {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return true
	}
	var pathErr *fs.PathError
	return errors.As(err, &pathErr)
}
