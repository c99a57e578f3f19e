package board

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hucube/timesboard/internal/wcif"
)

// fakeRecordService is an in-memory stand-in for the WCA API.
type fakeRecordService struct {
	mu         sync.Mutex
	extensions []wcif.Extension
	getErr     error
	updateErr  error
	getCalls   int
	writeCalls int
	block      chan struct{} // when set, UpdateExtensions waits on it
}

func (f *fakeRecordService) GetCompetition(ctx context.Context, id, token string) (*wcif.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	exts := make([]wcif.Extension, len(f.extensions))
	copy(exts, f.extensions)
	return &wcif.Competition{ID: id, Extensions: exts}, nil
}

func (f *fakeRecordService) UpdateExtensions(ctx context.Context, id, token string, exts []wcif.Extension) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	f.extensions = exts
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func commitReq() CommitRequest {
	return CommitRequest{
		CompetitionID: "Test2024",
		Token:         "tok",
		CardID:        "sess-1/7",
		PersonID:      7,
		PersonName:    "Anna Kovacs",
	}
}

func TestCommitMergesByIdentity(t *testing.T) {
	existing := &OverrideRecord{
		PersonID:   7,
		PersonName: "Anna Kovacs",
		ModifiedAttempts: []ModifiedAttempt{
			{EventID: "333fm", RoundID: "333fm-r1", AttemptIndex: 0, NewValue: "2700", ModifiedAt: "2024-11-01T09:00:00Z"},
		},
	}
	ext, err := existing.Extension()
	require.NoError(t, err)

	svc := &fakeRecordService{extensions: []wcif.Extension{
		{ID: "other.tool.notes", SpecURL: "https://example.org", Data: json.RawMessage(`{"keep":"me"}`)},
		ext,
	}}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333fm", AttemptIndex: 1}, "31.00")

	require.NoError(t, c.Commit(context.Background(), commitReq(), store))

	require.Len(t, svc.extensions, 2, "unrelated extension passed through")
	assert.JSONEq(t, `{"keep":"me"}`, string(svc.extensions[0].Data))

	rec, ok := FindOverrideRecord(svc.extensions, 7)
	require.True(t, ok)
	require.Len(t, rec.ModifiedAttempts, 2, "existing entry kept, new one appended, no duplicates")
	assert.Equal(t, "2700", rec.ModifiedAttempts[0].NewValue)
	assert.Equal(t, "2024-11-01T09:00:00Z", rec.ModifiedAttempts[0].ModifiedAt, "untouched entry keeps its stamp")
	assert.Equal(t, 1, rec.ModifiedAttempts[1].AttemptIndex)
	assert.Equal(t, "3100", rec.ModifiedAttempts[1].NewValue)
	assert.Equal(t, "333fm-r1", rec.ModifiedAttempts[1].RoundID)

	assert.Equal(t, 0, store.Len(), "store cleared on success")
}

func TestCommitReplacesExistingEntry(t *testing.T) {
	existing := &OverrideRecord{
		PersonID: 7,
		ModifiedAttempts: []ModifiedAttempt{
			{EventID: "333", RoundID: "333-r1", AttemptIndex: 0, NewValue: "905"},
		},
	}
	ext, err := existing.Extension()
	require.NoError(t, err)
	svc := &fakeRecordService{extensions: []wcif.Extension{ext}}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 0}, "12.34")

	require.NoError(t, c.Commit(context.Background(), commitReq(), store))

	rec, ok := FindOverrideRecord(svc.extensions, 7)
	require.True(t, ok)
	require.Len(t, rec.ModifiedAttempts, 1)
	assert.Equal(t, "1234", rec.ModifiedAttempts[0].NewValue)
	assert.NotEmpty(t, rec.ModifiedAttempts[0].ModifiedAt)
}

func TestCommitFirstTimeCreatesRecord(t *testing.T) {
	svc := &fakeRecordService{}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "222", AttemptIndex: 4}, "3.00")

	require.NoError(t, c.Commit(context.Background(), commitReq(), store))

	rec, ok := FindOverrideRecord(svc.extensions, 7)
	require.True(t, ok)
	assert.Equal(t, 7, rec.PersonID)
	assert.Equal(t, "Anna Kovacs", rec.PersonName)
	assert.Equal(t, "Test2024", rec.CompetitionID)
	require.Len(t, rec.ModifiedAttempts, 1)
	assert.Equal(t, "222-r1", rec.ModifiedAttempts[0].RoundID)
	assert.Equal(t, "300", rec.ModifiedAttempts[0].NewValue)
}

func TestCommitEmptyStoreIsNoOp(t *testing.T) {
	svc := &fakeRecordService{}
	c := NewCommitter(svc, testLogger())

	err := c.Commit(context.Background(), commitReq(), NewOverrideStore())
	assert.ErrorIs(t, err, ErrNothingToCommit)
	assert.Equal(t, 0, svc.getCalls, "no network call for an empty store")
}

func TestCommitFailurePreservesEdits(t *testing.T) {
	svc := &fakeRecordService{updateErr: errors.New("upstream exploded")}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 0}, "9.05")

	err := c.Commit(context.Background(), commitReq(), store)
	require.Error(t, err)
	assert.Equal(t, 1, store.Len(), "edits survive a failed write for retry")

	// Retry with the same pending values succeeds once upstream recovers.
	svc.mu.Lock()
	svc.updateErr = nil
	svc.mu.Unlock()
	require.NoError(t, c.Commit(context.Background(), commitReq(), store))
	assert.Equal(t, 0, store.Len())
}

func TestCommitReadFailure(t *testing.T) {
	svc := &fakeRecordService{getErr: errors.New("record unreachable")}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 0}, "9.05")

	err := c.Commit(context.Background(), commitReq(), store)
	require.Error(t, err)
	assert.Equal(t, 0, svc.writeCalls)
	assert.Equal(t, 1, store.Len())
}

func TestCommitSkipsUncommittableValues(t *testing.T) {
	svc := &fakeRecordService{}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 0}, "DNF")
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 1}, "9.05")

	require.NoError(t, c.Commit(context.Background(), commitReq(), store))

	rec, ok := FindOverrideRecord(svc.extensions, 7)
	require.True(t, ok)
	require.Len(t, rec.ModifiedAttempts, 1, "sentinel value dropped, rest of batch committed")
	assert.Equal(t, "905", rec.ModifiedAttempts[0].NewValue)
}

func TestCommitInFlightGuard(t *testing.T) {
	svc := &fakeRecordService{block: make(chan struct{})}
	c := NewCommitter(svc, testLogger())

	store := NewOverrideStore()
	store.Set(AttemptKey{EventID: "333", AttemptIndex: 0}, "9.05")

	done := make(chan error, 1)
	go func() {
		done <- c.Commit(context.Background(), commitReq(), store)
	}()

	// Wait for the first commit to reach the blocked write.
	require.Eventually(t, func() bool {
		svc.mu.Lock()
		defer svc.mu.Unlock()
		return svc.getCalls == 1
	}, time.Second, 5*time.Millisecond)

	err := c.Commit(context.Background(), commitReq(), store)
	assert.ErrorIs(t, err, ErrCommitInFlight)

	// A different card is independent.
	other := commitReq()
	other.CardID = "sess-2/9"
	other.PersonID = 9
	otherStore := NewOverrideStore()
	otherStore.Set(AttemptKey{EventID: "222", AttemptIndex: 0}, "3.00")
	blockedLater := make(chan error, 1)
	go func() {
		blockedLater <- c.Commit(context.Background(), other, otherStore)
	}()

	close(svc.block)
	require.NoError(t, <-done)
	require.NoError(t, <-blockedLater)
}
