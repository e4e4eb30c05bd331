package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Subcategories is an ordered list addressed by position. Removing an entry
// shifts every later index down by one.
type Subcategories []string

// ParseIndex converts a path segment into a position. Non-numeric input is
// a BadRequest; bounds are checked by the mutating methods.
func ParseIndex(raw string) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, BadRequest(fmt.Sprintf("invalid subcategory index %q", raw), err)
	}
	return i, nil
}

func (s Subcategories) checkIndex(i int) error {
	if i < 0 || i >= len(s) {
		return fmt.Errorf("index %d of %d: %w", i, len(s), ErrIndexOutOfRange)
	}
	return nil
}

func (s Subcategories) Add(name string) (Subcategories, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s, ErrEmptyName
	}
	return append(s, name), nil
}

func (s Subcategories) Set(i int, name string) (Subcategories, error) {
	if err := s.checkIndex(i); err != nil {
		return s, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return s, ErrEmptyName
	}
	out := append(Subcategories(nil), s...)
	out[i] = name
	return out, nil
}

func (s Subcategories) Remove(i int) (Subcategories, error) {
	if err := s.checkIndex(i); err != nil {
		return s, err
	}
	out := make(Subcategories, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...), nil
}
