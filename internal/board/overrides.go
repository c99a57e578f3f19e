package board

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/hucube/timesboard/internal/timefmt"
)

// AttemptKey addresses one attempt cell of one competitor's card.
type AttemptKey struct {
	EventID      string
	AttemptIndex int
}

func (k AttemptKey) String() string {
	return fmt.Sprintf("evt-%s-att-%d", k.EventID, k.AttemptIndex)
}

// ParseAttemptKey is the inverse of AttemptKey.String.
func ParseAttemptKey(s string) (AttemptKey, error) {
	rest, ok := strings.CutPrefix(s, "evt-")
	if !ok {
		return AttemptKey{}, fmt.Errorf("attempt key %q: missing evt- prefix", s)
	}
	eventID, idx, ok := strings.Cut(rest, "-att-")
	if !ok || eventID == "" {
		return AttemptKey{}, fmt.Errorf("attempt key %q: missing -att- separator", s)
	}
	n, err := strconv.Atoi(idx)
	if err != nil || n < 0 {
		return AttemptKey{}, fmt.Errorf("attempt key %q: bad attempt index", s)
	}
	return AttemptKey{EventID: eventID, AttemptIndex: n}, nil
}

// OverrideStore holds one editing session's not-yet-committed values for a
// single competitor's card. Values are display strings exactly as typed so
// far; validation and normalization happen upstream in timefmt. Keys keep
// their first-set order, which stands in for the card's field order when the
// client asks where to move focus next.
type OverrideStore struct {
	mu     sync.Mutex
	values map[AttemptKey]string
	order  []AttemptKey
}

func NewOverrideStore() *OverrideStore {
	return &OverrideStore{values: make(map[AttemptKey]string)}
}

// Set stores or overwrites the pending value for key.
func (s *OverrideStore) Set(key AttemptKey, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		s.order = append(s.order, key)
	}
	s.values[key] = value
}

// Get returns the pending value for key, if one exists.
func (s *OverrideStore) Get(key AttemptKey) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Delete removes a single pending value.
func (s *OverrideStore) Delete(key AttemptKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Apply feeds a raw keystroke string through the incremental formatter and
// records the result. A value that formats to nothing, or to a bare zero,
// clears the pending edit instead: the cell falls back to its placeholder.
func (s *OverrideStore) Apply(key AttemptKey, raw string) (formatted string, cleared bool) {
	formatted = timefmt.FormatKeystrokes(raw)
	if formatted == "" || formatted == "0" || formatted == "0.00" {
		s.Delete(key)
		return "", true
	}
	s.Set(key, formatted)
	return formatted, false
}

func (s *OverrideStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

// ClearAll discards every pending value. Called after a successful commit.
func (s *OverrideStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = make(map[AttemptKey]string)
	s.order = nil
}

// OrderedKeys returns the keys in first-set order.
func (s *OverrideStore) OrderedKeys() []AttemptKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AttemptKey, len(s.order))
	copy(out, s.order)
	return out
}

// Snapshot returns an ordered copy of the pending edits.
func (s *OverrideStore) Snapshot() []PendingEdit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingEdit, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, PendingEdit{Key: k, Value: s.values[k]})
	}
	return out
}

// PendingEdit is one locally edited, not-yet-committed cell value.
type PendingEdit struct {
	Key   AttemptKey
	Value string
}
