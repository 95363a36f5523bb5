package exiftool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
)

// Result is the captured outcome of one finished process
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts a process and waits for it. A non-zero exit is reported in
// Result.ExitCode, not as an error; the error is for processes that could not
// run at all.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// ExecRunner runs real processes with os/exec
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		res.ExitCode = -1
		return res, ctxErr
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, err
}

// FindExecutable resolves the configured tool name. Anything containing a path
// separator is used as-is; bare names are looked up in PATH and returned
// unchanged when the lookup fails, so the error surfaces on first use.
func FindExecutable(configured string) string {
	if configured == "" {
		configured = DefaultExecutable
	}
	if strings.ContainsRune(configured, filepath.Separator) {
		return configured
	}
	if path, err := exec.LookPath(configured); err == nil {
		return path
	}
	return configured
}
