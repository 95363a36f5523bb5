package exiftool

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"metamod/internal/metadata"
)

// ErrNoRecord is returned when the tool printed an empty JSON array
var ErrNoRecord = errors.New("no metadata record in output")

// ParseReadAll decodes the output of a -json read. The tool prints an array
// with one object per file; only the first object is used. Keys keep the
// order in which the tool printed them.
func ParseReadAll(stdout []byte) (metadata.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(stdout))

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}
	if !dec.More() {
		return nil, ErrNoRecord
	}
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	snap := metadata.Snapshot{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("value of %s: %w", key, err)
		}
		value, err := renderValue(raw)
		if err != nil {
			return nil, fmt.Errorf("value of %s: %w", key, err)
		}
		snap = append(snap, metadata.Entry{Key: key, Value: value})
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return snap, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// renderValue turns any JSON value into the text shown in the table:
// strings unquoted, numbers and booleans verbatim, null empty, arrays joined
// with ", " and objects as compact JSON.
func renderValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			s, err := renderValue(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", "), nil
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return "", err
		}
		return buf.String(), nil
	case 'n':
		return "", nil
	default:
		return string(trimmed), nil
	}
}
