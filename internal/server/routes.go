package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Times Board API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB))

	// Official auth.
	r.Post("/api/login", handleLogin(deps.Store, deps.MaxAge))
	r.Post("/api/logout", handleLogout(deps.Store, deps.Edits))
	r.Get("/api/me", handleMe(deps.Store))

	// Board and per-card editing. Reads are public; edits and commits are
	// gated on a session with edit permission.
	r.Route("/api/competitions/{competitionID}", func(r chi.Router) {
		r.Get("/board", handleBoard(deps.Boards, deps.Store, deps.Edits))
		r.Get("/persons/{personID}", handleCard(deps.Boards, deps.Store, deps.Edits))
		r.Put("/persons/{personID}/edits", handleEdit(deps.Boards, deps.Store, deps.Edits))
		r.Delete("/persons/{personID}/edits", handleDiscardEdits(deps.Store, deps.Edits))
		r.Post("/persons/{personID}/commit", handleCommit(deps.Boards, deps.Store, deps.Edits, deps.Committer))
	})

	if deps.SPADir != "" {
		if info, err := os.Stat(deps.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", deps.SPADir)
			r.NotFound(handleSPA(deps.SPADir))
		}
	}
}
