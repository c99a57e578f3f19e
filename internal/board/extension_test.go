package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucube/timesboard/internal/timefmt"
	"github.com/hucube/timesboard/internal/wcif"
)

func TestExtensionID(t *testing.T) {
	assert.Equal(t, "hungarian.times.person.42", ExtensionID(42))
}

func TestOverrideRecordRoundTrip(t *testing.T) {
	rec := &OverrideRecord{
		PersonID:      7,
		PersonName:    "Anna Kovacs",
		CompetitionID: "Test2024",
		ModifiedAttempts: []ModifiedAttempt{
			{EventID: "333", RoundID: "333-r1", AttemptIndex: 1, NewValue: "905", ModifiedAt: "2024-11-02T10:00:00Z"},
		},
		LastUpdated: "2024-11-02T10:00:00Z",
	}

	ext, err := rec.Extension()
	require.NoError(t, err)
	assert.Equal(t, "hungarian.times.person.7", ext.ID)
	assert.NotEmpty(t, ext.SpecURL)

	got, ok := FindOverrideRecord([]wcif.Extension{ext}, 7)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestFindOverrideRecordAbsentOrMalformed(t *testing.T) {
	exts := []wcif.Extension{
		{ID: "other.tool.notes", Data: json.RawMessage(`{"free":"form"}`)},
		{ID: ExtensionID(9), Data: json.RawMessage(`"not an object"`)},
	}

	_, ok := FindOverrideRecord(exts, 7)
	assert.False(t, ok)

	_, ok = FindOverrideRecord(exts, 9)
	assert.False(t, ok, "malformed payload is treated as absent")
}

func TestPersistedFor(t *testing.T) {
	rec := &OverrideRecord{
		PersonID: 7,
		ModifiedAttempts: []ModifiedAttempt{
			{EventID: "333", AttemptIndex: 0, NewValue: "905"},
			{EventID: "333", AttemptIndex: 1, NewValue: "not-a-number"},
			{EventID: "222", AttemptIndex: 2, NewValue: "-1"},
		},
	}
	ext, err := rec.Extension()
	require.NoError(t, err)

	got := PersistedFor([]wcif.Extension{ext}, 7)
	assert.Equal(t, PersistedOverrides{
		{EventID: "333", AttemptIndex: 0}: 905,
		{EventID: "222", AttemptIndex: 2}: timefmt.DNF,
	}, got, "unparseable values skipped, sentinels decoded as-is")

	assert.Empty(t, PersistedFor(nil, 7))
}
