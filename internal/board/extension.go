package board

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/hucube/timesboard/internal/timefmt"
	"github.com/hucube/timesboard/internal/wcif"
)

// Extension identity scheme for persisted overrides: one entry per
// competitor, addressed by a fixed string key.
const (
	extensionNamespace = "hungarian.times"
	extensionSpecURL   = "https://example.com/hungarian-person-times-extension"
)

// ExtensionID returns the fixed extension-list key for a competitor.
func ExtensionID(personID int) string {
	return fmt.Sprintf("%s.person.%d", extensionNamespace, personID)
}

// ModifiedAttempt is one corrected attempt inside an OverrideRecord. NewValue
// is the centisecond count as a string; RoundID is synthesized as
// "<eventId>-r1" since the board assumes single-round events.
type ModifiedAttempt struct {
	EventID      string `json:"eventId"`
	RoundID      string `json:"roundId"`
	AttemptIndex int    `json:"attemptIndex"`
	NewValue     string `json:"newValue"`
	ModifiedAt   string `json:"modifiedAt,omitempty"`
}

// OverrideRecord is the persisted shape of one competitor's corrections,
// stored as an extension entry's data payload. Entries are identified by
// (eventId, attemptIndex) within ModifiedAttempts.
type OverrideRecord struct {
	PersonID         int               `json:"personId"`
	PersonName       string            `json:"personName"`
	CompetitionID    string            `json:"competitionId,omitempty"`
	ModifiedAttempts []ModifiedAttempt `json:"modifiedAttempts"`
	LastUpdated      string            `json:"lastUpdated,omitempty"`
}

// Extension wraps the record into a WCIF extension entry.
func (r *OverrideRecord) Extension() (wcif.Extension, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return wcif.Extension{}, fmt.Errorf("encoding override record for person %d: %w", r.PersonID, err)
	}
	return wcif.Extension{
		ID:      ExtensionID(r.PersonID),
		SpecURL: extensionSpecURL,
		Data:    data,
	}, nil
}

// FindOverrideRecord locates and decodes a competitor's override record in
// the extension list. A malformed payload is treated as absent; the entry
// itself still passes through commits untouched, since commits only replace
// entries by id.
func FindOverrideRecord(exts []wcif.Extension, personID int) (*OverrideRecord, bool) {
	id := ExtensionID(personID)
	for _, ext := range exts {
		if ext.ID != id {
			continue
		}
		var rec OverrideRecord
		if err := json.Unmarshal(ext.Data, &rec); err != nil {
			return nil, false
		}
		return &rec, true
	}
	return nil, false
}

// PersistedOverrides maps attempt cells to their persisted corrected values.
type PersistedOverrides map[AttemptKey]timefmt.Centi

// PersistedFor extracts a competitor's persisted override values from the
// extension list. Entries whose value does not parse as an integer are
// skipped.
func PersistedFor(exts []wcif.Extension, personID int) PersistedOverrides {
	out := make(PersistedOverrides)
	rec, ok := FindOverrideRecord(exts, personID)
	if !ok {
		return out
	}
	for _, ma := range rec.ModifiedAttempts {
		v, err := strconv.Atoi(ma.NewValue)
		if err != nil {
			continue
		}
		out[AttemptKey{EventID: ma.EventID, AttemptIndex: ma.AttemptIndex}] = timefmt.Centi(v)
	}
	return out
}
