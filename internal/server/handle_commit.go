package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hucube/timesboard/internal/board"
	"github.com/hucube/timesboard/internal/wcif"
)

// CommitResponse reports a finished commit.
type CommitResponse struct {
	Status    string `json:"status"`
	Committed int    `json:"committed"`
}

func handleCommit(boards *BoardRegistry, store Store, edits *EditRegistry, committer *board.Committer) http.HandlerFunc {
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

		pending := edits.Peek(sess.ID, personID)
		if pending == nil || pending.Len() == 0 {
			writeError(w, http.StatusBadRequest, "nothing to commit")
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

		count := pending.Len()
		err = committer.Commit(r.Context(), board.CommitRequest{
			CompetitionID: competitionID,
			Token:         sess.WCAToken,
			CardID:        cardID(sess.ID, personID),
			PersonID:      personID,
			PersonName:    ledger.Name,
		}, pending)

		switch {
		case err == nil:
			boards.Invalidate(competitionID)
			writeJSON(w, http.StatusOK, CommitResponse{Status: "committed", Committed: count})
		case errors.Is(err, board.ErrNothingToCommit):
			writeError(w, http.StatusBadRequest, "nothing to commit")
		case errors.Is(err, board.ErrCommitInFlight):
			writeError(w, http.StatusConflict, "commit already in progress for this card")
		case errors.Is(err, wcif.ErrUnauthorized):
			// The WCA token is dead; the identity it backed goes with it.
			forceSignOut(w, r, store, edits, sess)
			writeError(w, http.StatusUnauthorized, "authentication failed: "+err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
	}
}
