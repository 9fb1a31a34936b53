// Package selection holds the shopper's per-type option choices and their
// URL encoding.
package selection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSelection = errors.New("invalid selection encoding")

// Selection maps option type name to the chosen option id. Types keep the
// order in which they were first selected. The zero value is an empty
// Selection ready to use.
type Selection struct {
	types  []string
	values map[string]string
}

func New() *Selection {
	return &Selection{values: make(map[string]string)}
}

// Select sets the choice for optionType. It reports whether anything changed;
// selecting the pair already present is a no-op. An empty optionID keeps the
// type as touched but unselected.
func (s *Selection) Select(optionType, optionID string) bool {
	if optionType == "" {
		return false
	}
	if s.values == nil {
		s.values = make(map[string]string)
	}
	current, ok := s.values[optionType]
	if ok && current == optionID {
		return false
	}
	if !ok {
		s.types = append(s.types, optionType)
	}
	s.values[optionType] = optionID
	return true
}

func (s *Selection) Get(optionType string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[optionType]
	return v, ok
}

// Types returns the selected type names in insertion order.
func (s *Selection) Types() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.types))
	copy(out, s.types)
	return out
}

func (s *Selection) Len() int {
	if s == nil {
		return 0
	}
	return len(s.types)
}

func (s *Selection) Clone() *Selection {
	c := New()
	if s == nil {
		return c
	}
	for _, t := range s.types {
		c.Select(t, s.values[t])
	}
	return c
}

// IDs returns the non-empty chosen ids in insertion order with duplicates
// removed.
func (s *Selection) IDs() []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(s.types))
	ids := make([]string, 0, len(s.types))
	for _, t := range s.types {
		id := s.values[t]
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Joined is the comma-joined form of IDs sent to the options backend and
// written to the optionIds URL parameter.
func (s *Selection) Joined() string {
	return strings.Join(s.IDs(), ",")
}

func (s *Selection) String() string {
	b, _ := s.MarshalJSON()
	return string(b)
}

// MarshalJSON writes a JSON object whose keys follow insertion order.
func (s *Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range s.Types() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.values[t])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat object of string values, keeping key order.
// Anything else is ErrInvalidSelection and leaves s untouched.
func (s *Selection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object", ErrInvalidSelection)
	}

	parsed := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		val, ok := valTok.(string)
		if !ok {
			return fmt.Errorf("%w: value for %q is not a string", ErrInvalidSelection, key)
		}
		parsed.Select(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidSelection)
	}

	*s = *parsed
	return nil
}
