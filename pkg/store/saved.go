// Package store holds the two value backends parameter tokens read from:
// the scenario's saved values and <namespace>.properties files on disk.
package store

import (
	"sort"

	"github.com/devicelab-dev/locator-runner/pkg/core"
)

// SavedValues is the in-memory table of values a scenario saved while it ran.
// It is owned by one scenario; writes are visible to the next read.
type SavedValues struct {
	values map[string]string
}

// NewSavedValues creates a table seeded with initial values.
func NewSavedValues(initial map[string]string) *SavedValues {
	s := &SavedValues{values: make(map[string]string, len(initial))}
	for k, v := range initial {
		s.values[k] = v
	}
	return s
}

// Get returns the saved value for key.
func (s *SavedValues) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", core.ErrKeyNotFound.WithMessagef("saved value %q not found", key)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *SavedValues) Set(key, value string) {
	s.values[key] = value
}

// Delete removes key.
func (s *SavedValues) Delete(key string) {
	delete(s.values, key)
}

// Keys returns the saved keys in sorted order.
func (s *SavedValues) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
