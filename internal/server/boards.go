package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hucube/timesboard/internal/board"
	"github.com/hucube/timesboard/internal/wcif"
)

// RecordReader is the read half of the upstream client.
type RecordReader interface {
	GetCompetition(ctx context.Context, competitionID, token string) (*wcif.Competition, error)
}

// BoardEntry is one competition's derived board plus the extension list it
// was derived from. Stale means the upstream read failed and the entry is
// backed by the last good record.
type BoardEntry struct {
	Board      *board.Board
	Extensions []wcif.Extension
	FetchedAt  time.Time
	Stale      bool
}

// BoardRegistry caches derived boards per competition. Fetches are tagged
// with a monotonic token so that when a card triggers a refresh while an
// older fetch is still in flight, only the most recently initiated read
// lands. A failed fetch falls back to the in-memory entry, then to the
// last-good record persisted in SQLite.
type BoardRegistry struct {
	reader RecordReader
	store  Store
	logger *slog.Logger
	ttl    time.Duration

	seq     atomic.Uint64
	mu      sync.Mutex
	entries map[string]*registryEntry
}

type registryEntry struct {
	BoardEntry
	token uint64
}

func NewBoardRegistry(reader RecordReader, store Store, logger *slog.Logger, ttl time.Duration) *BoardRegistry {
	return &BoardRegistry{
		reader:  reader,
		store:   store,
		logger:  logger,
		ttl:     ttl,
		entries: make(map[string]*registryEntry),
	}
}

// Get returns the board for a competition, refreshing it from upstream when
// the cached copy is older than the TTL.
func (r *BoardRegistry) Get(ctx context.Context, competitionID string) (BoardEntry, error) {
	r.mu.Lock()
	if e, ok := r.entries[competitionID]; ok && !e.Stale && time.Since(e.FetchedAt) < r.ttl {
		entry := e.BoardEntry
		r.mu.Unlock()
		return entry, nil
	}
	r.mu.Unlock()

	return r.refresh(ctx, competitionID)
}

// Invalidate forces the next Get to re-read the upstream record. Called
// after a successful commit so the board reflects the write.
func (r *BoardRegistry) Invalidate(competitionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[competitionID]; ok {
		e.FetchedAt = time.Time{}
	}
}

func (r *BoardRegistry) refresh(ctx context.Context, competitionID string) (BoardEntry, error) {
	token := r.seq.Add(1)

	comp, err := r.reader.GetCompetition(ctx, competitionID, "")
	if err != nil {
		return r.fallback(ctx, competitionID, err)
	}

	entry := BoardEntry{
		Board:      board.Derive(comp),
		Extensions: comp.Extensions,
		FetchedAt:  time.Now(),
	}

	if payload, merr := json.Marshal(comp); merr == nil {
		if cerr := r.store.CacheRecord(ctx, competitionID, payload, entry.FetchedAt); cerr != nil {
			r.logger.Warn("caching competition record failed", "competition", competitionID, "error", cerr)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[competitionID]; ok && existing.token > token {
		// A newer read finished first; keep its result.
		return existing.BoardEntry, nil
	}
	r.entries[competitionID] = &registryEntry{BoardEntry: entry, token: token}
	return entry, nil
}

// fallback serves the last good data when the upstream is unreachable. The
// fetch error is reported alongside a stale in-memory or persisted copy, and
// only becomes fatal when no prior record exists at all.
func (r *BoardRegistry) fallback(ctx context.Context, competitionID string, cause error) (BoardEntry, error) {
	r.logger.Warn("competition record fetch failed", "competition", competitionID, "error", cause)

	r.mu.Lock()
	if e, ok := r.entries[competitionID]; ok {
		e.Stale = true
		entry := e.BoardEntry
		r.mu.Unlock()
		return entry, nil
	}
	r.mu.Unlock()

	payload, fetchedAt, err := r.store.CachedRecord(ctx, competitionID)
	if err != nil {
		return BoardEntry{}, fmt.Errorf("fetching competition record: %w", cause)
	}

	var comp wcif.Competition
	if err := json.Unmarshal(payload, &comp); err != nil {
		return BoardEntry{}, fmt.Errorf("fetching competition record: %w", cause)
	}

	entry := BoardEntry{
		Board:      board.Derive(&comp),
		Extensions: comp.Extensions,
		FetchedAt:  fetchedAt,
		Stale:      true,
	}
	r.mu.Lock()
	r.entries[competitionID] = &registryEntry{BoardEntry: entry}
	r.mu.Unlock()
	return entry, nil
}
