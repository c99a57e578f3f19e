package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hucube/timesboard/internal/board"
)

// EditRegistry holds every signed-in session's in-progress override stores,
// one per competitor card. Stores live from the first keystroke until a
// successful commit clears them or the session discards them; they are never
// persisted.
type EditRegistry struct {
	mu    sync.Mutex
	cards map[string]*board.OverrideStore
}

func NewEditRegistry() *EditRegistry {
	return &EditRegistry{cards: make(map[string]*board.OverrideStore)}
}

// cardID scopes an override store to one session editing one competitor.
func cardID(sessionID string, personID int) string {
	return fmt.Sprintf("%s/%d", sessionID, personID)
}

// Card returns the session's store for a competitor, creating it on first use.
func (e *EditRegistry) Card(sessionID string, personID int) *board.OverrideStore {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := cardID(sessionID, personID)
	s, ok := e.cards[id]
	if !ok {
		s = board.NewOverrideStore()
		e.cards[id] = s
	}
	return s
}

// Peek returns the store if the session has touched this card, else nil.
// A nil store reconciles like any other empty one.
func (e *EditRegistry) Peek(sessionID string, personID int) *board.OverrideStore {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cards[cardID(sessionID, personID)]
}

// Drop discards one card's pending edits (card teardown).
func (e *EditRegistry) Drop(sessionID string, personID int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.cards, cardID(sessionID, personID))
}

// DropSession discards every card of a session (sign-out).
func (e *EditRegistry) DropSession(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	prefix := sessionID + "/"
	for id := range e.cards {
		if strings.HasPrefix(id, prefix) {
			delete(e.cards, id)
		}
	}
}
