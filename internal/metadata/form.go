package metadata

import (
	"strings"

	"metamod/internal/errors"
)

// Form is the state of the two edit fields. Value doubles as the new key
// when renaming.
type Form struct {
	Key   string
	Value string
}

// SeedFrom copies an entry into the fields
func (f *Form) SeedFrom(e Entry) {
	f.Key = e.Key
	f.Value = e.Value
}

// Clear empties both fields
func (f *Form) Clear() {
	f.Key = ""
	f.Value = ""
}

// TrimmedKey returns the key field without surrounding whitespace
func (f Form) TrimmedKey() string {
	return strings.TrimSpace(f.Key)
}

// TrimmedValue returns the value field without surrounding whitespace
func (f Form) TrimmedValue() string {
	return strings.TrimSpace(f.Value)
}

// ValidateAddUpdate requires both a key and a value
func (f Form) ValidateAddUpdate() error {
	if f.TrimmedKey() == "" {
		return errors.NewValidationError("Key and Value cannot be empty.", "key", errors.EmptyField)
	}
	if f.TrimmedValue() == "" {
		return errors.NewValidationError("Key and Value cannot be empty.", "value", errors.EmptyField)
	}
	return nil
}

// ValidateRename requires the old key and the new key
func (f Form) ValidateRename() error {
	if f.TrimmedKey() == "" {
		return errors.NewValidationError("Old Key and New Key cannot be empty.", "key", errors.EmptyField)
	}
	if f.TrimmedValue() == "" {
		return errors.NewValidationError("Old Key and New Key cannot be empty.", "value", errors.EmptyField)
	}
	return nil
}

// ValidateDelete requires a key
func (f Form) ValidateDelete() error {
	if f.TrimmedKey() == "" {
		return errors.NewValidationError("No key selected for deletion.", "key", errors.EmptyField)
	}
	return nil
}
