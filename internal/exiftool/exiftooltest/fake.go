// Package exiftooltest provides an in-memory stand-in for the exiftool
// executable. It understands the argument grammar the adapter emits and keeps
// one ordered tag list per file path, so tests can observe what real edits
// would do without the binary installed.
package exiftooltest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"metamod/internal/exiftool"
	"metamod/internal/metadata"
)

// Failure is what the fake reports instead of running a command
type Failure struct {
	Stderr   string
	ExitCode int
	// StartErr simulates a process that could not be started at all
	StartErr error
}

// Runner is a fake exiftool implementing exiftool.Runner
type Runner struct {
	mu     sync.Mutex
	files  map[string]metadata.Snapshot
	calls  [][]string
	failFn func(args []string) *Failure
}

// New creates an empty fake
func New() *Runner {
	return &Runner{files: make(map[string]metadata.Snapshot)}
}

// Seed creates path with the given tags
func (r *Runner) Seed(path string, entries ...metadata.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path] = metadata.Snapshot(entries).Clone()
	if r.files[path] == nil {
		r.files[path] = metadata.Snapshot{}
	}
}

// Tags returns the stored tags of path, without the synthesized SourceFile
func (r *Runner) Tags(path string) (metadata.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.files[path]
	return s.Clone(), ok
}

// Exists reports whether path is known to the fake
func (r *Runner) Exists(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[path]
	return ok
}

// FailWhen makes every call for which fn returns non-nil fail
func (r *Runner) FailWhen(fn func(args []string) *Failure) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failFn = fn
}

// Calls returns the argument vectors of every call so far
func (r *Runner) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	for i, c := range r.calls {
		out[i] = append([]string(nil), c...)
	}
	return out
}

// CallCount returns the number of calls so far
func (r *Runner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// ResetCalls forgets recorded calls
func (r *Runner) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// Tool returns an adapter wired to this fake
func (r *Runner) Tool(opts ...exiftool.Option) *exiftool.Tool {
	return exiftool.New(exiftool.DefaultExecutable, append([]exiftool.Option{exiftool.WithRunner(r)}, opts...)...)
}

// Run implements exiftool.Runner
func (r *Runner) Run(ctx context.Context, name string, args ...string) (exiftool.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, append([]string(nil), args...))

	if err := ctx.Err(); err != nil {
		return exiftool.Result{ExitCode: -1}, err
	}
	if r.failFn != nil {
		if f := r.failFn(args); f != nil {
			if f.StartErr != nil {
				return exiftool.Result{}, f.StartErr
			}
			return exiftool.Result{Stderr: []byte(f.Stderr), ExitCode: f.ExitCode}, nil
		}
	}

	if len(args) == 1 && args[0] == "-ver" {
		return exiftool.Result{Stdout: []byte("12.76\n")}, nil
	}
	if len(args) == 2 && args[0] == "-json" {
		return r.read(args[1])
	}
	return r.write(args)
}

func (r *Runner) read(path string) (exiftool.Result, error) {
	tags, ok := r.files[path]
	if !ok {
		return exiftool.Result{
			Stderr:   []byte("Error: File not found - " + path + "\n"),
			ExitCode: 1,
		}, nil
	}

	var buf bytes.Buffer
	buf.WriteString("[{\n  ")
	writeJSONPair(&buf, "SourceFile", path)
	for _, e := range tags {
		buf.WriteString(",\n  ")
		writeJSONPair(&buf, e.Key, e.Value)
	}
	buf.WriteString("\n}]\n")
	return exiftool.Result{Stdout: buf.Bytes()}, nil
}

func writeJSONPair(buf *bytes.Buffer, key, value string) {
	k, _ := json.Marshal(key)
	v, _ := json.Marshal(value)
	buf.Write(k)
	buf.WriteString(": ")
	buf.Write(v)
}

func (r *Runner) write(args []string) (exiftool.Result, error) {
	ops := make([]string, 0, len(args))
	for _, a := range args {
		if a != "-overwrite_original" {
			ops = append(ops, a)
		}
	}
	if len(ops) < 2 {
		return usage()
	}

	if ops[0] == "-o" {
		if len(ops) != 3 {
			return usage()
		}
		return r.export(ops[2], ops[1])
	}

	path := ops[len(ops)-1]
	stored, ok := r.files[path]
	if !ok {
		return exiftool.Result{
			Stderr:   []byte("Error: File not found - " + path + "\n"),
			ExitCode: 1,
		}, nil
	}
	// Work on a copy so a failing operation leaves the file untouched
	tags := stored.Clone()

	for _, op := range ops[:len(ops)-1] {
		if !strings.HasPrefix(op, "-") {
			return usage()
		}
		op = op[1:]

		switch {
		case op == "all=":
			tags = metadata.Snapshot{}
		case strings.Contains(op, "<="):
			parts := strings.SplitN(op, "<=", 2)
			to, from := parts[0], parts[1]
			value, found := lookupFold(tags, from)
			if !found {
				return exiftool.Result{
					Stderr:   []byte("Warning: No writable tags set from " + path + "\n"),
					ExitCode: 1,
				}, nil
			}
			tags = setFold(tags, to, value)
		case strings.Contains(op, "="):
			parts := strings.SplitN(op, "=", 2)
			if parts[0] == "" {
				return usage()
			}
			if parts[1] == "" {
				tags = deleteFold(tags, parts[0])
			} else {
				tags = setFold(tags, parts[0], parts[1])
			}
		default:
			return usage()
		}
	}

	r.files[path] = tags
	return exiftool.Result{Stdout: []byte("    1 image files updated\n")}, nil
}

func (r *Runner) export(src, dst string) (exiftool.Result, error) {
	tags, ok := r.files[src]
	if !ok {
		return exiftool.Result{
			Stderr:   []byte("Error: File not found - " + src + "\n"),
			ExitCode: 1,
		}, nil
	}
	if _, exists := r.files[dst]; exists {
		return exiftool.Result{
			Stderr:   []byte(fmt.Sprintf("Error: '%s' already exists - %s\n", dst, src)),
			ExitCode: 1,
		}, nil
	}
	r.files[dst] = tags.Clone()
	return exiftool.Result{Stdout: []byte("    1 image files created\n")}, nil
}

func usage() (exiftool.Result, error) {
	return exiftool.Result{Stderr: []byte("Error: unsupported arguments\n"), ExitCode: 2}, nil
}

// Tag names are case-insensitive in exiftool
func lookupFold(tags metadata.Snapshot, key string) (string, bool) {
	for _, e := range tags {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

func setFold(tags metadata.Snapshot, key, value string) metadata.Snapshot {
	for i, e := range tags {
		if strings.EqualFold(e.Key, key) {
			tags[i].Value = value
			return tags
		}
	}
	return append(tags, metadata.Entry{Key: key, Value: value})
}

func deleteFold(tags metadata.Snapshot, key string) metadata.Snapshot {
	out := tags[:0]
	for _, e := range tags {
		if !strings.EqualFold(e.Key, key) {
			out = append(out, e)
		}
	}
	return out
}

// FailOnArg returns a FailWhen predicate that fails any call containing arg
func FailOnArg(arg string, stderr string) func(args []string) *Failure {
	return func(args []string) *Failure {
		for _, a := range args {
			if a == arg {
				return &Failure{Stderr: stderr, ExitCode: 1}
			}
		}
		return nil
	}
}
