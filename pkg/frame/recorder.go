// Package frame records which locators were last resolved in a scenario so
// that later lookups of the same locator stay in the same frame context.
package frame

import (
	"github.com/devicelab-dev/locator-runner/pkg/locator"
)

// Recorder is the scenario's frame-context tracker. It is not safe for
// concurrent use; each scenario owns one.
type Recorder struct {
	history []locator.Descriptor
	counts  map[string]int
	limit   int
}

// DefaultHistory is how many tracked locators a Recorder keeps.
const DefaultHistory = 50

// NewRecorder creates a recorder keeping up to limit entries (DefaultHistory when <= 0).
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultHistory
	}
	return &Recorder{counts: make(map[string]int), limit: limit}
}

// Track records a successfully resolved single-element locator.
func (r *Recorder) Track(d locator.Descriptor) {
	r.history = append(r.history, d)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	r.counts[d.String()]++
}

// Last returns the most recently tracked locator.
func (r *Recorder) Last() (locator.Descriptor, bool) {
	if len(r.history) == 0 {
		return locator.Descriptor{}, false
	}
	return r.history[len(r.history)-1], true
}

// Seen returns how many times a locator has been tracked.
func (r *Recorder) Seen(d locator.Descriptor) int {
	return r.counts[d.String()]
}

// History returns tracked locators, oldest first.
func (r *Recorder) History() []locator.Descriptor {
	out := make([]locator.Descriptor, len(r.history))
	copy(out, r.history)
	return out
}
