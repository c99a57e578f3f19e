package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hucube/timesboard/internal/timefmt"
	"github.com/hucube/timesboard/internal/wcif"
)

var (
	// ErrNothingToCommit means the card has no pending edits.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrCommitInFlight means the same card already has a write in flight.
	ErrCommitInFlight = errors.New("commit already in flight")
)

// RecordService is the slice of the upstream client the committer needs.
type RecordService interface {
	GetCompetition(ctx context.Context, competitionID, token string) (*wcif.Competition, error)
	UpdateExtensions(ctx context.Context, competitionID, token string, extensions []wcif.Extension) error
}

// CommitRequest identifies one card's commit: which competitor, on whose
// behalf, with which credential. CardID distinguishes editing sessions so
// that only a re-commit of the very same card is rejected while in flight.
type CommitRequest struct {
	CompetitionID string
	Token         string
	CardID        string
	PersonID      int
	PersonName    string
}

// Committer serializes a card's pending edits into its override record and
// writes the merged extension list back to the shared competition record.
//
// The transport only supports whole-list replacement, so every commit is a
// read-merge-write: re-read the record, merge this card's edits into its own
// extension entry, pass every other entry through unchanged, write the full
// list. Two sessions committing different competitors concurrently can still
// race between read and write; that lost-update window is accepted.
type Committer struct {
	svc    RecordService
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewCommitter(svc RecordService, logger *slog.Logger) *Committer {
	return &Committer{
		svc:      svc,
		logger:   logger,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
}

// Commit runs the protocol for one card. On success the store is cleared; on
// any failure it is left untouched so the same edits can be retried. The
// caller is responsible for permission checks before invoking.
func (c *Committer) Commit(ctx context.Context, req CommitRequest, store *OverrideStore) error {
	edits := store.Snapshot()
	if len(edits) == 0 {
		return ErrNothingToCommit
	}

	if !c.acquire(req.CardID) {
		return ErrCommitInFlight
	}
	defer c.release(req.CardID)

	comp, err := c.svc.GetCompetition(ctx, req.CompetitionID, req.Token)
	if err != nil {
		return fmt.Errorf("re-reading competition record: %w", err)
	}

	merged := c.mergeEdits(comp.Extensions, req, edits)
	ext, err := merged.Extension()
	if err != nil {
		return err
	}

	exts := replaceByID(comp.Extensions, ext)
	if err := c.svc.UpdateExtensions(ctx, req.CompetitionID, req.Token, exts); err != nil {
		return fmt.Errorf("writing extension list: %w", err)
	}

	store.ClearAll()
	c.logger.Info("committed attempt overrides",
		"competition", req.CompetitionID,
		"person", req.PersonID,
		"edits", len(edits),
	)
	return nil
}

// mergeEdits folds the session's edits into the competitor's existing
// override record, keyed by (eventId, attemptIndex): replace when present,
// append when not, and never drop an entry this session did not touch.
// An edit whose value decodes to a sentinel or blank is skipped individually
// rather than failing the batch.
func (c *Committer) mergeEdits(exts []wcif.Extension, req CommitRequest, edits []PendingEdit) *OverrideRecord {
	rec, ok := FindOverrideRecord(exts, req.PersonID)
	if !ok {
		rec = &OverrideRecord{}
	}

	stamp := c.now().UTC().Format(time.RFC3339)

	for _, e := range edits {
		cs := timefmt.Parse(e.Value)
		if !cs.Countable() {
			c.logger.Warn("skipping uncommittable edit",
				"person", req.PersonID,
				"key", e.Key.String(),
				"value", e.Value,
			)
			continue
		}

		ma := ModifiedAttempt{
			EventID:      e.Key.EventID,
			RoundID:      fmt.Sprintf("%s-r1", e.Key.EventID),
			AttemptIndex: e.Key.AttemptIndex,
			NewValue:     fmt.Sprintf("%d", int(cs)),
			ModifiedAt:   stamp,
		}

		replaced := false
		for i, existing := range rec.ModifiedAttempts {
			if existing.EventID == ma.EventID && existing.AttemptIndex == ma.AttemptIndex {
				ma.RoundID = existing.RoundID
				rec.ModifiedAttempts[i] = ma
				replaced = true
				break
			}
		}
		if !replaced {
			rec.ModifiedAttempts = append(rec.ModifiedAttempts, ma)
		}
	}

	rec.PersonID = req.PersonID
	rec.PersonName = req.PersonName
	rec.CompetitionID = req.CompetitionID
	rec.LastUpdated = stamp
	return rec
}

// replaceByID swaps the entry with ext's id in place, or appends it. All
// other entries, related or not, pass through byte-for-byte.
func replaceByID(exts []wcif.Extension, ext wcif.Extension) []wcif.Extension {
	out := make([]wcif.Extension, 0, len(exts)+1)
	replaced := false
	for _, e := range exts {
		if e.ID == ext.ID {
			out = append(out, ext)
			replaced = true
			continue
		}
		out = append(out, e)
	}
	if !replaced {
		out = append(out, ext)
	}
	return out
}

func (c *Committer) acquire(cardID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[cardID]; busy {
		return false
	}
	c.inFlight[cardID] = struct{}{}
	return true
}

func (c *Committer) release(cardID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, cardID)
}
