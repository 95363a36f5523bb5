// Package metadata holds the in-memory view of a file's tags: the snapshot read
// from the metadata tool, the table model that front ends render, and the edit
// form that feeds mutating commands.
package metadata

// Entry is one tag as reported by the metadata tool
type Entry struct {
	Key   string
	Value string
}

// Snapshot is the ordered set of tags read from a file at one point in time.
// Order matches the tool's output; keys are not de-duplicated.
type Snapshot []Entry

// Lookup returns the value of the first entry named key
func (s Snapshot) Lookup(key string) (string, bool) {
	for _, e := range s {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Count returns how many entries are named key
func (s Snapshot) Count(key string) int {
	n := 0
	for _, e := range s {
		if e.Key == key {
			n++
		}
	}
	return n
}

// Keys returns the entry keys in order
func (s Snapshot) Keys() []string {
	keys := make([]string, len(s))
	for i, e := range s {
		keys[i] = e.Key
	}
	return keys
}

// Clone returns an independent copy
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
