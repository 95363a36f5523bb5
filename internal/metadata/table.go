package metadata

import (
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Table is the model behind the key/value table. It is only ever replaced as a
// whole by Load; the optional filter narrows the visible rows without touching
// the loaded snapshot.
type Table struct {
	mu        sync.RWMutex
	entries   Snapshot
	filter    string
	matcher   glob.Glob
	visible   []int
	listeners []func()
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{}
}

// Load replaces every row and notifies listeners
func (t *Table) Load(s Snapshot) {
	t.mu.Lock()
	t.entries = s.Clone()
	t.reindex()
	listeners := append([]func(){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnChange registers fn to run after every Load or filter change.
// fn runs on the goroutine that made the change.
func (t *Table) OnChange(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Entries returns a copy of the full loaded snapshot, ignoring the filter
func (t *Table) Entries() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries.Clone()
}

// Total returns the number of loaded rows
func (t *Table) Total() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Len returns the number of visible rows
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.visible)
}

// At returns the visible row i
func (t *Table) At(i int) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if i < 0 || i >= len(t.visible) {
		return Entry{}, false
	}
	return t.entries[t.visible[i]], true
}

// Visible returns the rows that pass the filter
func (t *Table) Visible() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(Snapshot, 0, len(t.visible))
	for _, idx := range t.visible {
		out = append(out, t.entries[idx])
	}
	return out
}

// Lookup returns the loaded value of key, ignoring the filter
func (t *Table) Lookup(key string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries.Lookup(key)
}

// Filter returns the current filter pattern
func (t *Table) Filter() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.filter
}

// SetFilter limits visible rows to keys matching pattern, case-insensitively.
// A pattern without glob syntax matches anywhere in the key. An empty pattern
// shows every row.
func (t *Table) SetFilter(pattern string) error {
	pattern = strings.TrimSpace(pattern)

	var matcher glob.Glob
	if pattern != "" {
		expr := strings.ToLower(pattern)
		if !strings.ContainsAny(expr, "*?[{") {
			expr = "*" + expr + "*"
		}
		m, err := glob.Compile(expr)
		if err != nil {
			return err
		}
		matcher = m
	}

	t.mu.Lock()
	t.filter = pattern
	t.matcher = matcher
	t.reindex()
	listeners := append([]func(){}, t.listeners...)
	t.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// reindex must be called with the lock held
func (t *Table) reindex() {
	t.visible = t.visible[:0]
	for i, e := range t.entries {
		if t.matcher == nil || t.matcher.Match(strings.ToLower(e.Key)) {
			t.visible = append(t.visible, i)
		}
	}
}
