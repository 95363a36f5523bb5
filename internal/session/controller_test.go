package session

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"metamod/internal/errors"
	"metamod/internal/exiftool"
	"metamod/internal/exiftool/exiftooltest"
	"metamod/internal/metadata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type report struct {
	kind    string
	title   string
	message string
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []report
}

func (r *recordingReporter) Info(title, message string) {
	r.add(report{"info", title, message})
}

func (r *recordingReporter) Warn(message string) {
	r.add(report{"warn", "", message})
}

func (r *recordingReporter) Error(title string, err error) {
	r.add(report{"error", title, errors.UserMessage(err)})
}

func (r *recordingReporter) add(rep report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, rep)
}

func (r *recordingReporter) all() []report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]report(nil), r.reports...)
}

func (r *recordingReporter) last() report {
	all := r.all()
	if len(all) == 0 {
		return report{}
	}
	return all[len(all)-1]
}

type fixture struct {
	fake     *exiftooltest.Runner
	reporter *recordingReporter
	ctrl     *Controller
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	fake := exiftooltest.New()
	fake.Seed("photo.jpg",
		metadata.Entry{Key: "Title", Value: "Sunset"},
		metadata.Entry{Key: "Author", Value: "Alice"},
	)
	reporter := &recordingReporter{}
	return &fixture{
		fake:     fake,
		reporter: reporter,
		ctrl:     NewController(fake.Tool(), nil, reporter, opts...),
	}
}

func (f *fixture) open(t *testing.T) {
	t.Helper()
	require.NoError(t, f.ctrl.Open(context.Background(), "photo.jpg"))
	f.fake.ResetCalls()
}

func TestOpen(t *testing.T) {
	f := newFixture(t)
	var states []State
	f.ctrl.OnStateChange(func(s State) { states = append(states, s) })

	assert.Equal(t, NoFileOpen, f.ctrl.State())
	require.NoError(t, f.ctrl.Open(context.Background(), "photo.jpg"))

	assert.Equal(t, FileOpenClean, f.ctrl.State())
	assert.Equal(t, []State{OperationInFlight, FileOpenClean}, states)
	assert.Equal(t, "photo.jpg", f.ctrl.Session().Path)
	assert.Equal(t, metadata.Snapshot{
		{Key: "SourceFile", Value: "photo.jpg"},
		{Key: "Title", Value: "Sunset"},
		{Key: "Author", Value: "Alice"},
	}, f.ctrl.Table().Entries())
	assert.Empty(t, f.reporter.all())
}

func TestOpenCancelledDoesNothing(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctrl.Open(context.Background(), ""))
	assert.Equal(t, NoFileOpen, f.ctrl.State())
	assert.Zero(t, f.fake.CallCount())
}

func TestOpenFailedReadKeepsFileReference(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	err := f.ctrl.Open(context.Background(), "missing.jpg")
	require.Error(t, err)

	assert.Equal(t, OperationFailed, f.ctrl.State())
	assert.Equal(t, "missing.jpg", f.ctrl.Session().Path)
	assert.Zero(t, f.ctrl.Table().Total())
	assert.Equal(t, report{"error", TitleLoad, "Error: File not found - missing.jpg"}, f.reporter.last())

	f.ctrl.Acknowledge()
	assert.Equal(t, FileOpenClean, f.ctrl.State())
}

func TestNoFileOpenRejectsEveryAction(t *testing.T) {
	ctx := context.Background()
	form := metadata.Form{Key: "Author", Value: "Bob"}
	confirmed, chosen := false, false

	actions := map[string]func(c *Controller) error{
		"add":    func(c *Controller) error { return c.AddUpdate(ctx, form) },
		"rename": func(c *Controller) error { return c.Rename(ctx, form) },
		"delete": func(c *Controller) error { return c.Delete(ctx, form) },
		"refresh": func(c *Controller) error {
			return c.Refresh(ctx)
		},
		"clear": func(c *Controller) error {
			return c.ClearAll(ctx, func(string, string) bool { confirmed = true; return true })
		},
		"save": func(c *Controller) error {
			return c.Save(ctx, func(string) (string, bool) { chosen = true; return "out.jpg", true })
		},
	}

	for name, action := range actions {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			err := action(f.ctrl)

			assert.ErrorIs(t, err, errors.ErrNoFileSelected)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, []report{{"warn", "", "No file selected."}}, f.reporter.all())
			assert.Zero(t, f.fake.CallCount())
			assert.Equal(t, NoFileOpen, f.ctrl.State())
		})
	}
	assert.False(t, confirmed)
	assert.False(t, chosen)
}

func TestFieldValidationComesBeforeFileCheck(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.AddUpdate(context.Background(), metadata.Form{Key: "", Value: "Bob"})
	require.Error(t, err)
	assert.Equal(t, "Key and Value cannot be empty.", f.reporter.last().message)
}

func TestValidationWarnings(t *testing.T) {
	tests := []struct {
		name string
		run  func(c *Controller) error
		want string
	}{
		{
			name: "add without key",
			run:  func(c *Controller) error { return c.AddUpdate(context.Background(), metadata.Form{Value: "Bob"}) },
			want: "Key and Value cannot be empty.",
		},
		{
			name: "add with blank value",
			run:  func(c *Controller) error { return c.AddUpdate(context.Background(), metadata.Form{Key: "Author", Value: "  "}) },
			want: "Key and Value cannot be empty.",
		},
		{
			name: "rename without new key",
			run:  func(c *Controller) error { return c.Rename(context.Background(), metadata.Form{Key: "Author"}) },
			want: "Old Key and New Key cannot be empty.",
		},
		{
			name: "delete without key",
			run:  func(c *Controller) error { return c.Delete(context.Background(), metadata.Form{Key: " "}) },
			want: "No key selected for deletion.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.open(t)
			before := f.ctrl.Table().Entries()

			err := tt.run(f.ctrl)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, report{"warn", "", tt.want}, f.reporter.last())
			assert.Zero(t, f.fake.CallCount())
			assert.Equal(t, before, f.ctrl.Table().Entries())
			assert.Equal(t, FileOpenClean, f.ctrl.State())
		})
	}
}

func TestAddUpdateReplacesValue(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	require.NoError(t, f.ctrl.AddUpdate(context.Background(), metadata.Form{Key: " Author ", Value: " Bob "}))

	table := f.ctrl.Table()
	value, ok := table.Lookup("Author")
	require.True(t, ok)
	assert.Equal(t, "Bob", value)
	assert.Equal(t, 1, table.Entries().Count("Author"))
	assert.Equal(t, FileOpenClean, f.ctrl.State())
	assert.Equal(t, report{"info", TitleSuccess, "Metadata key 'Author' updated/added successfully."}, f.reporter.last())
	assert.Equal(t, [][]string{
		{"-overwrite_original", "-Author=Bob", "photo.jpg"},
		{"-json", "photo.jpg"},
	}, f.fake.Calls())
}

func TestAddUpdateToolFailureKeepsSnapshot(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	before := f.ctrl.Table().Entries()
	f.fake.FailWhen(exiftooltest.FailOnArg("-Author=Bob", "Warning: Tag 'Author' is not defined\n"))

	err := f.ctrl.AddUpdate(context.Background(), metadata.Form{Key: "Author", Value: "Bob"})
	require.Error(t, err)
	assert.True(t, errors.IsToolFailure(err))

	assert.Equal(t, OperationFailed, f.ctrl.State())
	assert.Equal(t, report{"error", TitleUpdate, "Warning: Tag 'Author' is not defined"}, f.reporter.last())
	assert.Equal(t, before, f.ctrl.Table().Entries())
	assert.Equal(t, 1, f.fake.CallCount(), "no refresh after a failed write")

	f.ctrl.Acknowledge()
	assert.Equal(t, FileOpenClean, f.ctrl.State())
}

func TestUnexpectedErrorTitle(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.fake.FailWhen(func(args []string) *exiftooltest.Failure {
		return &exiftooltest.Failure{StartErr: &exec.Error{Name: "exiftool", Err: exec.ErrNotFound}}
	})

	err := f.ctrl.Delete(context.Background(), metadata.Form{Key: "Author"})
	require.Error(t, err)
	assert.Equal(t, errors.ToolNotFound, errors.KindOf(err))
	assert.Equal(t, TitleUnexpected, f.reporter.last().title)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	require.NoError(t, f.ctrl.Delete(context.Background(), metadata.Form{Key: "Author", Value: "ignored"}))

	_, ok := f.ctrl.Table().Lookup("Author")
	assert.False(t, ok)
	assert.Equal(t, "Metadata key 'Author' deleted successfully.", f.reporter.last().message)
}

func TestRename(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	require.NoError(t, f.ctrl.Rename(context.Background(), metadata.Form{Key: "Author", Value: "Artist"}))

	table := f.ctrl.Table()
	value, ok := table.Lookup("Artist")
	require.True(t, ok)
	assert.Equal(t, "Alice", value)
	_, ok = table.Lookup("Author")
	assert.False(t, ok)
	assert.Equal(t, "Metadata key 'Author' renamed to 'Artist'.", f.reporter.last().message)
}

func TestRenamePartialFailureShowsBothKeys(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	f.fake.FailWhen(exiftooltest.FailOnArg("-Author=", "Error: could not delete"))

	err := f.ctrl.Rename(context.Background(), metadata.Form{Key: "Author", Value: "Artist"})
	require.Error(t, err)

	var renameErr *exiftool.RenameError
	require.ErrorAs(t, err, &renameErr)
	assert.True(t, renameErr.Copied())

	table := f.ctrl.Table()
	old, ok := table.Lookup("Author")
	require.True(t, ok)
	renamed, ok := table.Lookup("Artist")
	require.True(t, ok)
	assert.Equal(t, old, renamed)

	assert.Equal(t, OperationFailed, f.ctrl.State())
	assert.Equal(t, report{"error", TitleRename, "Error: could not delete"}, f.reporter.last())
}

func TestRenamePartialFailureWithFailedReload(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	deleteFails := exiftooltest.FailOnArg("-Author=", "Error: could not delete")
	readFails := exiftooltest.FailOnArg("-json", "Error: file locked")
	f.fake.FailWhen(func(args []string) *exiftooltest.Failure {
		if fail := deleteFails(args); fail != nil {
			return fail
		}
		return readFails(args)
	})

	err := f.ctrl.Rename(context.Background(), metadata.Form{Key: "Author", Value: "Artist"})
	require.Error(t, err)

	assert.Equal(t, []report{
		{"error", TitleLoad, "Error: file locked"},
		{"error", TitleRename, "Error: could not delete"},
	}, f.reporter.all())
	assert.Equal(t, OperationFailed, f.ctrl.State())
}

func TestWriteSucceedsButReloadFails(t *testing.T) {
	f := newFixture(t, WithSuccessMessages(false))
	f.open(t)
	f.fake.FailWhen(exiftooltest.FailOnArg("-json", "Error: file locked"))

	err := f.ctrl.AddUpdate(context.Background(), metadata.Form{Key: "Author", Value: "Bob"})
	require.Error(t, err)

	tags, _ := f.fake.Tags("photo.jpg")
	value, _ := tags.Lookup("Author")
	assert.Equal(t, "Bob", value)
	assert.Equal(t, []report{
		{"info", TitleSuccess, "Metadata key 'Author' updated/added successfully."},
		{"error", TitleLoad, "Error: file locked"},
	}, f.reporter.all())
	assert.Zero(t, f.ctrl.Table().Len())
}

func TestClearAll(t *testing.T) {
	t.Run("declined", func(t *testing.T) {
		f := newFixture(t)
		f.open(t)
		var asked string

		require.NoError(t, f.ctrl.ClearAll(context.Background(), func(title, message string) bool {
			asked = title + ": " + message
			return false
		}))
		assert.Equal(t, "Confirm Deletion: "+ConfirmClearMessage, asked)
		assert.Zero(t, f.fake.CallCount())
		assert.Equal(t, FileOpenClean, f.ctrl.State())
		assert.Equal(t, 3, f.ctrl.Table().Total())
	})

	t.Run("confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.open(t)

		require.NoError(t, f.ctrl.ClearAll(context.Background(), func(string, string) bool { return true }))

		tags, _ := f.fake.Tags("photo.jpg")
		assert.Empty(t, tags)
		assert.Equal(t, metadata.Snapshot{{Key: "SourceFile", Value: "photo.jpg"}}, f.ctrl.Table().Entries())
		assert.Equal(t, "All metadata has been removed.", f.reporter.last().message)
	})
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	f.open(t)
	before := f.ctrl.Table().Entries()

	var suggested string
	require.NoError(t, f.ctrl.Save(context.Background(), func(s string) (string, bool) {
		suggested = s
		return "copy.jpg", true
	}))

	assert.Equal(t, "photo_copy.jpg", suggested)
	assert.True(t, f.fake.Exists("copy.jpg"))
	assert.Equal(t, "photo.jpg", f.ctrl.Session().Path)
	assert.Equal(t, before, f.ctrl.Table().Entries())
	assert.Equal(t, [][]string{{"-overwrite_original", "-o", "copy.jpg", "photo.jpg"}}, f.fake.Calls())
	assert.Equal(t, report{"info", TitleSuccess, "File saved successfully."}, f.reporter.last())

	err := f.ctrl.Save(context.Background(), func(string) (string, bool) { return "copy.jpg", true })
	require.Error(t, err)
	assert.Equal(t, TitleSave, f.reporter.last().title)
}

func TestSaveRefusesOpenFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0644))

	fake := exiftooltest.New()
	fake.Seed(src, metadata.Entry{Key: "Author", Value: "Alice"})
	reporter := &recordingReporter{}
	ctrl := NewController(fake.Tool(), nil, reporter)
	require.NoError(t, ctrl.Open(context.Background(), src))
	fake.ResetCalls()

	for _, dst := range []string{src, filepath.Join(dir, "sub", "..", "photo.jpg")} {
		err := ctrl.Save(context.Background(), func(string) (string, bool) { return dst, true })
		require.ErrorIs(t, err, errors.ErrSaveOverSource)
		assert.Equal(t, report{"warn", "", "Choose a different file than the one being edited."}, reporter.last())
	}

	assert.Zero(t, fake.CallCount())
	assert.Equal(t, FileOpenClean, ctrl.State())
	_, err := os.Stat(src)
	assert.NoError(t, err)
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	require.NoError(t, os.WriteFile(path, nil, 0644))
	link := filepath.Join(dir, "link.jpg")

	assert.True(t, sameFile(path, filepath.Join(dir, ".", "a.jpg")))
	assert.False(t, sameFile(path, filepath.Join(dir, "b.jpg")))
	if os.Symlink(path, link) == nil {
		assert.True(t, sameFile(path, link))
	}
}

func TestSaveCancelled(t *testing.T) {
	f := newFixture(t)
	f.open(t)

	require.NoError(t, f.ctrl.Save(context.Background(), func(string) (string, bool) { return "", false }))
	assert.Zero(t, f.fake.CallCount())
	assert.Equal(t, FileOpenClean, f.ctrl.State())
}

func TestSuccessMessagesCanBeDisabled(t *testing.T) {
	f := newFixture(t, WithSuccessMessages(false))
	f.open(t)

	require.NoError(t, f.ctrl.AddUpdate(context.Background(), metadata.Form{Key: "Author", Value: "Bob"}))
	assert.Empty(t, f.reporter.all())
}

// blockingTool holds SetTag until release is closed
type blockingTool struct {
	*exiftool.Tool
	started chan struct{}
	release chan struct{}
}

func (b *blockingTool) SetTag(ctx context.Context, path, key, value string) error {
	close(b.started)
	<-b.release
	return b.Tool.SetTag(ctx, path, key, value)
}

func TestBusyGuard(t *testing.T) {
	fake := exiftooltest.New()
	fake.Seed("photo.jpg", metadata.Entry{Key: "Author", Value: "Alice"})
	tool := &blockingTool{Tool: fake.Tool(), started: make(chan struct{}), release: make(chan struct{})}
	reporter := &recordingReporter{}
	ctrl := NewController(tool, nil, reporter)
	require.NoError(t, ctrl.Open(context.Background(), "photo.jpg"))

	done := make(chan error, 1)
	go func() {
		done <- ctrl.AddUpdate(context.Background(), metadata.Form{Key: "Author", Value: "Bob"})
	}()

	select {
	case <-tool.started:
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not start")
	}
	assert.Equal(t, OperationInFlight, ctrl.State())

	// Busy is reported before the empty form is looked at
	err := ctrl.Delete(context.Background(), metadata.Form{})
	assert.True(t, errors.IsBusy(err))
	assert.ErrorIs(t, ctrl.Open(context.Background(), "other.jpg"), errors.ErrBusy)
	assert.Empty(t, reporter.all())

	close(tool.release)
	require.NoError(t, <-done)
	assert.Equal(t, FileOpenClean, ctrl.State())
	assert.Equal(t, "photo.jpg", ctrl.Session().Path)
}

func TestRefreshIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0644))

	fake := exiftooltest.New()
	fake.Seed(path, metadata.Entry{Key: "Author", Value: "Alice"})
	ctrl := NewController(fake.Tool(), nil, &recordingReporter{})

	refreshed, err := ctrl.RefreshIfChanged(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed, "nothing open")

	require.NoError(t, ctrl.Open(context.Background(), path))
	refreshed, err = ctrl.RefreshIfChanged(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)

	fake.Seed(path, metadata.Entry{Key: "Author", Value: "Carol"})
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	refreshed, err = ctrl.RefreshIfChanged(context.Background())
	require.NoError(t, err)
	assert.True(t, refreshed)
	value, _ := ctrl.Table().Lookup("Author")
	assert.Equal(t, "Carol", value)

	refreshed, err = ctrl.RefreshIfChanged(context.Background())
	require.NoError(t, err)
	assert.False(t, refreshed)
}
