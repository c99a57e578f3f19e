package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hucube/timesboard/internal/board"
)

// BoardResponse is the full reconciled board for one competition.
type BoardResponse struct {
	CompetitionID string                 `json:"competitionId"`
	Name          string                 `json:"name"`
	TimeLimit     int                    `json:"timeLimit"`
	Stale         bool                   `json:"stale"`
	CanEdit       bool                   `json:"canEdit"`
	Competitors   []board.ReconciledCard `json:"competitors"`
}

func handleBoard(boards *BoardRegistry, store Store, edits *EditRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		competitionID := chi.URLParam(r, "competitionID")

		entry, err := boards.Get(r.Context(), competitionID)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		sess, canEdit := viewerPermission(r, store, competitionID)

		resp := BoardResponse{
			CompetitionID: entry.Board.CompetitionID,
			Name:          entry.Board.Name,
			TimeLimit:     entry.Board.TimeLimit,
			Stale:         entry.Stale,
			CanEdit:       canEdit,
			Competitors:   make([]board.ReconciledCard, 0, len(entry.Board.Competitors)),
		}

		query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
		for _, ledger := range entry.Board.Competitors {
			if query != "" && !strings.Contains(strings.ToLower(ledger.Name), query) {
				continue
			}
			persisted := board.PersistedFor(entry.Extensions, ledger.PersonID)
			var pending *board.OverrideStore
			if canEdit {
				pending = edits.Peek(sess.ID, ledger.PersonID)
			}
			resp.Competitors = append(resp.Competitors, board.Reconcile(ledger, persisted, pending, canEdit))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// CardResponse is one competitor's reconciled card.
type CardResponse struct {
	CompetitionID string               `json:"competitionId"`
	Stale         bool                 `json:"stale"`
	Card          board.ReconciledCard `json:"card"`
}

func handleCard(boards *BoardRegistry, store Store, edits *EditRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		competitionID := chi.URLParam(r, "competitionID")
		personID, err := strconv.Atoi(chi.URLParam(r, "personID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid person id")
			return
		}

		entry, err := boards.Get(r.Context(), competitionID)
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		ledger, ok := entry.Board.FindCompetitor(personID)
		if !ok {
			writeError(w, http.StatusNotFound, "competitor not found")
			return
		}

		sess, canEdit := viewerPermission(r, store, competitionID)
		persisted := board.PersistedFor(entry.Extensions, personID)
		var pending *board.OverrideStore
		if canEdit {
			pending = edits.Peek(sess.ID, personID)
		}

		writeJSON(w, http.StatusOK, CardResponse{
			CompetitionID: entry.Board.CompetitionID,
			Stale:         entry.Stale,
			Card:          board.Reconcile(ledger, persisted, pending, canEdit),
		})
	}
}

// viewerPermission resolves the optional session on a read and whether it
// may edit this competition. Anonymous viewers simply get a read-only board.
func viewerPermission(r *http.Request, store Store, competitionID string) (officialSession, bool) {
	sess, err := sessionFromRequest(r, store)
	if err != nil {
		return officialSession{}, false
	}
	ok, err := store.HasEditPermission(r.Context(), sess.OfficialID, competitionID)
	if err != nil {
		return sess, false
	}
	return sess, ok
}
