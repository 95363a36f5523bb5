package session

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"metamod/internal/errors"
	"metamod/internal/log"
	"metamod/internal/metadata"
)

// Tool is the subset of the metadata tool adapter the controller drives
type Tool interface {
	ReadAll(ctx context.Context, path string) (metadata.Snapshot, error)
	SetTag(ctx context.Context, path, key, value string) error
	DeleteTag(ctx context.Context, path, key string) error
	RenameTag(ctx context.Context, path, oldKey, newKey string) error
	ClearAll(ctx context.Context, path string) error
	Export(ctx context.Context, src, dst string) error
}

// Reporter presents outcomes to the user. Front ends implement it with
// dialogs, a status line or plain output.
type Reporter interface {
	Info(title, message string)
	Warn(message string)
	Error(title string, err error)
}

// ConfirmFunc asks a yes/no question and blocks until it is answered
type ConfirmFunc func(title, message string) bool

// SaveFunc asks for an export destination, starting from suggested.
// It returns false when the user cancels.
type SaveFunc func(suggested string) (string, bool)

// Titles used when reporting
const (
	TitleSuccess    = "Success"
	TitleUnexpected = "An unexpected error occurred"
	TitleLoad       = "Failed to load metadata"
	TitleUpdate     = "Failed to update metadata"
	TitleRename     = "Failed to rename metadata key"
	TitleDelete     = "Failed to delete metadata"
	TitleClear      = "Failed to remove all metadata"
	TitleSave       = "Failed to save file"
	TitleConfirm    = "Confirm Deletion"

	ConfirmClearMessage = "Are you sure you want to remove ALL metadata? This action cannot be undone."
)

// Controller owns the session, the table and the state machine. It runs
// at most one tool operation at a time; its methods block until the
// operation finishes and are safe to call from any goroutine.
type Controller struct {
	tool     Tool
	table    *metadata.Table
	reporter Reporter

	showSuccess bool

	mu        sync.Mutex
	state     State
	session   Session
	listeners []func(State)
}

// Option configures a Controller
type Option func(*Controller)

// WithSuccessMessages controls whether successful edits are reported
func WithSuccessMessages(show bool) Option {
	return func(c *Controller) {
		c.showSuccess = show
	}
}

// NewController creates a controller with no file open
func NewController(tool Tool, table *metadata.Table, reporter Reporter, opts ...Option) *Controller {
	if table == nil {
		table = metadata.NewTable()
	}
	c := &Controller{
		tool:        tool,
		table:       table,
		reporter:    reporter,
		showSuccess: true,
		state:       NoFileOpen,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Table returns the model the controller loads snapshots into
func (c *Controller) Table() *metadata.Table {
	return c.table
}

// State returns the current state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the current session
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// OnStateChange registers fn to be called after every transition.
// fn runs on the goroutine that caused the transition.
func (c *Controller) OnStateChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Acknowledge leaves OperationFailed once the user has seen the error
func (c *Controller) Acknowledge() {
	c.mu.Lock()
	if c.state != OperationFailed {
		c.mu.Unlock()
		return
	}
	next := NoFileOpen
	if c.session.HasFile() {
		next = FileOpenClean
	}
	notify := c.enterLocked(next)
	c.mu.Unlock()
	notify()
}

// Open makes path the current file and reads its metadata. An empty path
// means the file dialog was cancelled and does nothing. The file reference
// is kept even when the read fails.
func (c *Controller) Open(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	c.mu.Lock()
	if c.state == OperationInFlight {
		c.mu.Unlock()
		return errors.ErrBusy
	}
	c.session = Session{Path: path}
	notify := c.enterLocked(OperationInFlight)
	c.mu.Unlock()
	notify()

	log.LogWithFields(log.F("path", path)).Info("Opening file")

	if err := c.reload(ctx, path); err != nil {
		c.loadFailed(err)
		return err
	}
	c.setState(FileOpenClean)
	return nil
}

// Refresh reads the open file again
func (c *Controller) Refresh(ctx context.Context) error {
	path, err := c.begin(nil)
	if err != nil {
		return err
	}
	if err := c.reload(ctx, path); err != nil {
		c.loadFailed(err)
		return err
	}
	c.setState(FileOpenClean)
	return nil
}

// RefreshIfChanged refreshes when the file's modification time differs from
// the one seen at the last read. It does nothing while an operation runs or
// when the file cannot be inspected, and reports whether it refreshed.
func (c *Controller) RefreshIfChanged(ctx context.Context) (bool, error) {
	c.mu.Lock()
	sess, state := c.session, c.state
	c.mu.Unlock()

	if !sess.HasFile() || state == OperationInFlight {
		return false, nil
	}
	info, err := os.Stat(sess.Path)
	if err != nil || info.ModTime().Equal(sess.ReadAt) {
		return false, nil
	}

	log.LogWithFields(log.F("path", sess.Path)).Debug("File changed on disk, refreshing")
	if err := c.Refresh(ctx); err != nil {
		if errors.IsBusy(err) {
			return false, nil
		}
		return true, err
	}
	return true, nil
}

// AddUpdate writes the form's key and value to the open file
func (c *Controller) AddUpdate(ctx context.Context, form metadata.Form) error {
	path, err := c.begin(form.ValidateAddUpdate)
	if err != nil {
		return err
	}
	key, value := form.TrimmedKey(), form.TrimmedValue()

	err = c.tool.SetTag(ctx, path, key, value)
	return c.finish(ctx, path, TitleUpdate, err,
		fmt.Sprintf("Metadata key '%s' updated/added successfully.", key),
		log.F("key", key))
}

// Rename moves the value of the form's key to the key typed in the value field
func (c *Controller) Rename(ctx context.Context, form metadata.Form) error {
	path, err := c.begin(form.ValidateRename)
	if err != nil {
		return err
	}
	oldKey, newKey := form.TrimmedKey(), form.TrimmedValue()

	err = c.tool.RenameTag(ctx, path, oldKey, newKey)
	return c.finish(ctx, path, TitleRename, err,
		fmt.Sprintf("Metadata key '%s' renamed to '%s'.", oldKey, newKey),
		log.F("old", oldKey), log.F("new", newKey))
}

// Delete removes the form's key from the open file
func (c *Controller) Delete(ctx context.Context, form metadata.Form) error {
	path, err := c.begin(form.ValidateDelete)
	if err != nil {
		return err
	}
	key := form.TrimmedKey()

	err = c.tool.DeleteTag(ctx, path, key)
	return c.finish(ctx, path, TitleDelete, err,
		fmt.Sprintf("Metadata key '%s' deleted successfully.", key),
		log.F("key", key))
}

// ClearAll removes every writable tag once confirm agrees. A nil confirm
// skips the question.
func (c *Controller) ClearAll(ctx context.Context, confirm ConfirmFunc) error {
	path, err := c.begin(nil)
	if err != nil {
		return err
	}
	if confirm != nil && !confirm(TitleConfirm, ConfirmClearMessage) {
		log.LogWithFields(log.F("path", path)).Debug("Remove all metadata cancelled")
		c.setState(FileOpenClean)
		return nil
	}

	err = c.tool.ClearAll(ctx, path)
	return c.finish(ctx, path, TitleClear, err, "All metadata has been removed.")
}

// Save exports a copy of the open file, metadata included, to the
// destination choose returns. The session and the table are unchanged.
func (c *Controller) Save(ctx context.Context, choose SaveFunc) error {
	path, err := c.begin(nil)
	if err != nil {
		return err
	}

	dst, ok := choose(SuggestCopyName(path))
	if !ok || dst == "" {
		c.setState(FileOpenClean)
		return nil
	}
	if sameFile(path, dst) {
		log.LogWithFields(log.F("path", path)).Warn("Refused to save over the open file")
		c.setState(FileOpenClean)
		c.reporter.Warn(errors.UserMessage(errors.ErrSaveOverSource))
		return errors.ErrSaveOverSource
	}

	if err := c.tool.Export(ctx, path, dst); err != nil {
		log.LogWithError(err).Error("Save failed")
		c.fail(TitleSave, err)
		return err
	}
	log.LogWithFields(log.F("path", path), log.F("destination", dst)).Info("Saved copy")
	c.setState(FileOpenClean)
	c.success("File saved successfully.")
	return nil
}

// begin enters OperationInFlight. The busy check comes first, then the
// form validation, then the file reference check; a rejected request
// leaves the state untouched.
func (c *Controller) begin(validate func() error) (string, error) {
	c.mu.Lock()
	if c.state == OperationInFlight {
		c.mu.Unlock()
		log.Debug("Rejected request while an operation is in flight")
		return "", errors.ErrBusy
	}

	var err error
	if validate != nil {
		err = validate()
	}
	if err == nil && !c.session.HasFile() {
		err = errors.ErrNoFileSelected
	}
	if err != nil {
		c.mu.Unlock()
		c.reporter.Warn(errors.UserMessage(err))
		return "", err
	}

	path := c.session.Path
	notify := c.enterLocked(OperationInFlight)
	c.mu.Unlock()
	notify()
	return path, nil
}

// finish completes a mutation: on success the file is read again and the
// success message reported, on failure the table keeps its last snapshot.
func (c *Controller) finish(ctx context.Context, path, title string, opErr error, success string, fields ...log.Field) error {
	fields = append(fields, log.F("path", path))
	if opErr != nil {
		log.LogWithError(opErr).Error(title)
		if partiallyApplied(opErr) {
			// The file did change, so show what it holds now. The operation's
			// own failure is still reported last.
			if err := c.reload(ctx, path); err != nil {
				c.loadFailed(err)
			}
		}
		c.fail(failureTitle(title, opErr), opErr)
		return opErr
	}
	log.LogWithFields(fields...).Info(success)

	if err := c.reload(ctx, path); err != nil {
		// The write landed; say so before the read failure
		c.reporter.Info(TitleSuccess, success)
		c.loadFailed(err)
		return err
	}
	c.setState(FileOpenClean)
	c.success(success)
	return nil
}

// reload replaces the table with a fresh read of path. A failed read
// empties the table; callers report it with loadFailed.
func (c *Controller) reload(ctx context.Context, path string) error {
	readAt := modTime(path)
	kind := detectType(path)
	snap, err := c.tool.ReadAll(ctx, path)
	if err != nil {
		c.table.Load(nil)
		return err
	}
	c.table.Load(snap)

	c.mu.Lock()
	if c.session.Path == path {
		c.session.ReadAt = readAt
		c.session.Type = kind
	}
	c.mu.Unlock()
	return nil
}

func (c *Controller) loadFailed(err error) {
	log.LogWithError(err).Error(TitleLoad)
	c.fail(TitleLoad, err)
}

func (c *Controller) fail(title string, err error) {
	c.setState(OperationFailed)
	c.reporter.Error(title, err)
}

func (c *Controller) success(message string) {
	if c.showSuccess {
		c.reporter.Info(TitleSuccess, message)
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	notify := c.enterLocked(s)
	c.mu.Unlock()
	notify()
}

// enterLocked moves to s and returns the notification to run once the lock
// is released
func (c *Controller) enterLocked(s State) func() {
	if c.state == s {
		return func() {}
	}
	c.state = s
	listeners := append([]func(State){}, c.listeners...)
	return func() {
		for _, fn := range listeners {
			fn(s)
		}
	}
}

// failureTitle keeps the operation title for tool failures and falls back to
// a generic title for anything else.
func failureTitle(title string, err error) string {
	if errors.IsToolFailure(err) {
		return title
	}
	return TitleUnexpected
}

// partiallyApplied matches errors, such as a half finished rename, that
// report a file modified before the failure
func partiallyApplied(err error) bool {
	var partial interface{ Copied() bool }
	return errors.As(err, &partial) && partial.Copied()
}

func modTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
