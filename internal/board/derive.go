// Package board derives the per-competitor time ledger from a competition
// record, reconciles it with persisted and in-progress overrides, and commits
// edits back to the record's extension list.
package board

import (
	"slices"

	"github.com/hucube/timesboard/internal/timefmt"
	"github.com/hucube/timesboard/internal/wcif"
)

// syntheticAttempts is how many DNS slots a registered-but-absent competitor
// gets for a category.
const syntheticAttempts = 5

// CategoryResult is one competitor's outcome in one event. Times holds the
// raw attempt values in order; AttemptsSum counts only the positive ones.
type CategoryResult struct {
	EventID     string          `json:"eventId"`
	Times       []timefmt.Centi `json:"times"`
	Average     timefmt.Centi   `json:"average"`
	Best        timefmt.Centi   `json:"best"`
	AttemptsSum int             `json:"attemptsSum"`
}

// CompetitorLedger is one row of the board, immutable for a given load.
// RemainingTime is the raw budget minus UsedTime; the -1 floor is applied
// during reconciliation, after overrides are added in.
type CompetitorLedger struct {
	PersonID      int              `json:"personId"`
	Name          string           `json:"name"`
	Categories    []CategoryResult `json:"categories"`
	UsedTime      int              `json:"usedTime"`
	RemainingTime int              `json:"remainingTime"`
}

// Board is the derived view of one competition record.
type Board struct {
	CompetitionID string             `json:"competitionId"`
	Name          string             `json:"name"`
	TimeLimit     int                `json:"timeLimit"`
	Competitors   []CompetitorLedger `json:"competitors"`
}

// Derive builds the board from a competition record. Competitors with no
// displayable category are dropped entirely, as are categories whose every
// attempt is blank or a sentinel with no average or best to show.
//
// The time budget is taken from the first round of the first event and
// applied globally. The upstream board has always been configured with one
// uniform budget across categories, so a single read suffices; a missing or
// zero limit degrades to a budget of 0 rather than failing the load.
func Derive(comp *wcif.Competition) *Board {
	b := &Board{
		CompetitionID: comp.ID,
		Name:          comp.Name,
		TimeLimit:     globalTimeLimit(comp),
	}

	for _, p := range comp.Persons {
		ledger := deriveCompetitor(comp, p)
		if len(ledger.Categories) == 0 {
			continue
		}
		ledger.RemainingTime = b.TimeLimit - ledger.UsedTime
		b.Competitors = append(b.Competitors, ledger)
	}
	return b
}

// FindCompetitor looks up a ledger row by the competitor's resolved identity.
func (b *Board) FindCompetitor(personID int) (CompetitorLedger, bool) {
	for _, c := range b.Competitors {
		if c.PersonID == personID {
			return c, true
		}
	}
	return CompetitorLedger{}, false
}

func globalTimeLimit(comp *wcif.Competition) int {
	if len(comp.Events) == 0 || len(comp.Events[0].Rounds) == 0 {
		return 0
	}
	if tl := comp.Events[0].Rounds[0].TimeLimit; tl != nil {
		return tl.Centiseconds
	}
	return 0
}

func deriveCompetitor(comp *wcif.Competition, p wcif.Person) CompetitorLedger {
	ledger := CompetitorLedger{
		PersonID: resolveIdentity(p),
		Name:     p.Name,
	}

	var eventIDs []string
	if p.Registration != nil {
		eventIDs = p.Registration.EventIDs
	}

	for _, ev := range comp.Events {
		if !slices.Contains(eventIDs, ev.ID) {
			continue
		}

		cat := deriveCategory(ev, p)
		if !displayable(cat) {
			continue
		}
		ledger.Categories = append(ledger.Categories, cat)
		ledger.UsedTime += cat.AttemptsSum
	}
	return ledger
}

func deriveCategory(ev wcif.Event, p wcif.Person) CategoryResult {
	res := findResult(ev, p)
	if res == nil {
		// Registered but never competed: a full set of DNS slots,
		// nothing to average.
		times := make([]timefmt.Centi, syntheticAttempts)
		for i := range times {
			times[i] = timefmt.DNS
		}
		return CategoryResult{EventID: ev.ID, Times: times}
	}

	cat := CategoryResult{
		EventID: ev.ID,
		Times:   make([]timefmt.Centi, len(res.Attempts)),
		Average: res.Average,
		Best:    res.Best,
	}
	for i, a := range res.Attempts {
		cat.Times[i] = a.Result
		if a.Result.Countable() {
			cat.AttemptsSum += int(a.Result)
		}
	}
	return cat
}

// findResult scans the event's rounds in order and returns the first result
// belonging to p. Round results inconsistently carry either the user id or
// the registrant id in personId, so both are tried; matches are never merged
// across rounds.
func findResult(ev wcif.Event, p wcif.Person) *wcif.Result {
	for _, round := range ev.Rounds {
		for i := range round.Results {
			pid := round.Results[i].PersonID
			if pid == p.ID || (p.RegistrantID != 0 && pid == p.RegistrantID) {
				return &round.Results[i]
			}
		}
	}
	return nil
}

// resolveIdentity picks the key the rest of the system addresses a
// competitor by. The registrant id wins when present; extension entries and
// pending-edit keys are all scoped by this value.
func resolveIdentity(p wcif.Person) int {
	if p.RegistrantID != 0 {
		return p.RegistrantID
	}
	return p.ID
}

// displayable reports whether the category has anything worth a board row:
// at least one non-blank, non-sentinel attempt, or an average or best.
func displayable(cat CategoryResult) bool {
	for _, tv := range cat.Times {
		if tv != timefmt.Blank && !tv.IsSentinel() {
			return true
		}
	}
	return cat.Average != timefmt.Blank || cat.Best != timefmt.Blank
}
