package board

import (
	"github.com/hucube/timesboard/internal/timefmt"
)

// Cell value sources, strongest first.
const (
	SourcePending  = "pending"
	SourceOverride = "override"
	SourceOriginal = "original"
)

// Cell is one resolved attempt slot of a reconciled card.
type Cell struct {
	Display  string `json:"display"`
	Source   string `json:"source"`
	Editable bool   `json:"editable"`
	Modified bool   `json:"modified"`
	DNF      bool   `json:"dnf"`
	DNS      bool   `json:"dns"`
}

// ReconciledCategory is one category row with every cell resolved.
type ReconciledCategory struct {
	EventID string `json:"eventId"`
	Cells   []Cell `json:"cells"`
	Average string `json:"average"`
	Best    string `json:"best"`
}

// ReconciledCard is the displayed form of one competitor: every cell resolved
// against the three layers of truth, and the time budget recomputed.
type ReconciledCard struct {
	PersonID      int                  `json:"personId"`
	Name          string               `json:"name"`
	Categories    []ReconciledCategory `json:"categories"`
	MaxAttempts   int                  `json:"maxAttempts"`
	UsedTime      int                  `json:"usedTime"`
	RemainingTime int                  `json:"remainingTime"`
	HasPending    bool                 `json:"hasPending"`
	FirstEditable string               `json:"firstEditable,omitempty"`
}

// Reconcile resolves one competitor's card. Precedence per cell:
//
//  1. a pending edit, shown verbatim even mid-typing;
//  2. a persisted override, but only when its decoded value is a real time
//     (an override that decodes to a sentinel replaces nothing);
//  3. the derived original.
//
// Only cells whose original value is DNF are editable, and only for viewers
// with edit permission: a DNS was never attempted and stays final, while a
// DNF may have been a timing mistake worth correcting.
//
// Totals start from the ledger's base sums, which already count sentinels as
// zero, so every positive override value and every positive pending value is
// added on top. Remaining time is floored at -1 as the over-budget marker.
func Reconcile(ledger CompetitorLedger, persisted PersistedOverrides, pending *OverrideStore, canEdit bool) ReconciledCard {
	card := ReconciledCard{
		PersonID:      ledger.PersonID,
		Name:          ledger.Name,
		MaxAttempts:   maxAttempts(ledger.Categories),
		UsedTime:      ledger.UsedTime,
		RemainingTime: ledger.RemainingTime,
	}

	for _, cat := range ledger.Categories {
		rc := ReconciledCategory{
			EventID: cat.EventID,
			Average: timefmt.Format(cat.Average, cat.EventID),
			Best:    timefmt.Format(cat.Best, cat.EventID),
			Cells:   make([]Cell, len(cat.Times)),
		}
		for i, original := range cat.Times {
			key := AttemptKey{EventID: cat.EventID, AttemptIndex: i}
			cell := resolveCell(key, original, cat.EventID, persisted, pending)
			cell.Editable = canEdit && original == timefmt.DNF
			if cell.Editable && card.FirstEditable == "" {
				card.FirstEditable = key.String()
			}
			rc.Cells[i] = cell
		}
		card.Categories = append(card.Categories, rc)
	}

	for _, v := range persisted {
		if v.Countable() {
			card.UsedTime += int(v)
			card.RemainingTime -= int(v)
		}
	}
	if pending != nil {
		card.HasPending = pending.Len() > 0
		for _, e := range pending.Snapshot() {
			if v := timefmt.Parse(e.Value); v.Countable() {
				card.UsedTime += int(v)
				card.RemainingTime -= int(v)
			}
		}
	}
	if card.RemainingTime < -1 {
		card.RemainingTime = -1
	}
	return card
}

func resolveCell(key AttemptKey, original timefmt.Centi, eventID string, persisted PersistedOverrides, pending *OverrideStore) Cell {
	cell := Cell{
		DNF: original == timefmt.DNF,
		DNS: original == timefmt.DNS,
	}

	if pending != nil {
		if v, ok := pending.Get(key); ok {
			cell.Display = v
			cell.Source = SourcePending
			cell.Modified = true
			return cell
		}
	}

	if v, ok := persisted[key]; ok && !v.IsSentinel() && v != timefmt.Blank {
		cell.Display = timefmt.Format(v, eventID)
		cell.Source = SourceOverride
		return cell
	}

	cell.Display = timefmt.Format(original, eventID)
	cell.Source = SourceOriginal
	return cell
}

func maxAttempts(cats []CategoryResult) int {
	max := syntheticAttempts
	for _, c := range cats {
		if len(c.Times) > max {
			max = len(c.Times)
		}
	}
	return max
}
