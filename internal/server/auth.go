package server

import (
	"errors"
	"net/http"
)

const sessionCookieName = "board_session"

var errNoSession = errors.New("no valid session")

// sessionFromRequest reads the session cookie and looks up the official's
// session. Missing or stale cookies yield errNoSession.
func sessionFromRequest(r *http.Request, store Store) (officialSession, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return officialSession{}, errNoSession
	}
	return store.SessionByID(r.Context(), cookie.Value)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// forceSignOut discards the session after the upstream rejected its WCA
// token: the cached credential is useless, so the official must sign in
// again with a fresh one.
func forceSignOut(w http.ResponseWriter, r *http.Request, store Store, edits *EditRegistry, sess officialSession) {
	store.DeleteSession(r.Context(), sess.ID)
	edits.DropSession(sess.ID)
	clearSessionCookie(w)
}
