package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hucube/timesboard/internal/board"
	"github.com/hucube/timesboard/internal/timefmt"
)

// EditRequest is the body for PUT .../edits: one keystroke-level update to an
// attempt cell. Raw is the input as typed; the server normalizes it.
type EditRequest struct {
	Key string `json:"key"`
	Raw string `json:"raw"`
}

// EditResponse echoes the normalized value and the card recomputed around it.
// Order lists the card's touched cells in entry order so the client can move
// focus to the next field on confirm.
type EditResponse struct {
	Key       string               `json:"key"`
	Formatted string               `json:"formatted"`
	Cleared   bool                 `json:"cleared"`
	Order     []string             `json:"order"`
	Card      board.ReconciledCard `json:"card"`
}

func handleEdit(boards *BoardRegistry, store Store, edits *EditRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		competitionID := chi.URLParam(r, "competitionID")
		personID, err := strconv.Atoi(chi.URLParam(r, "personID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid person id")
			return
		}

		sess, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		canEdit, err := store.HasEditPermission(r.Context(), sess.OfficialID, competitionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !canEdit {
			writeError(w, http.StatusForbidden, "no edit permission for this competition")
			return
		}

		var req EditRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		key, err := board.ParseAttemptKey(req.Key)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
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

		// Only a cell whose original outcome is DNF accepts an edit.
		if !editableCell(ledger, key) {
			writeError(w, http.StatusUnprocessableEntity, "attempt is not correctable")
			return
		}

		pending := edits.Card(sess.ID, personID)
		formatted, cleared := pending.Apply(key, req.Raw)

		persisted := board.PersistedFor(entry.Extensions, personID)
		resp := EditResponse{
			Key:       key.String(),
			Formatted: formatted,
			Cleared:   cleared,
			Card:      board.Reconcile(ledger, persisted, pending, true),
		}
		for _, k := range pending.OrderedKeys() {
			resp.Order = append(resp.Order, k.String())
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleDiscardEdits(store Store, edits *EditRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		personID, err := strconv.Atoi(chi.URLParam(r, "personID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid person id")
			return
		}
		sess, err := sessionFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		edits.Drop(sess.ID, personID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func editableCell(ledger board.CompetitorLedger, key board.AttemptKey) bool {
	for _, cat := range ledger.Categories {
		if cat.EventID != key.EventID {
			continue
		}
		return key.AttemptIndex < len(cat.Times) && cat.Times[key.AttemptIndex] == timefmt.DNF
	}
	return false
}
