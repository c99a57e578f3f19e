package server

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// Official is a delegate or organizer account allowed to sign in.
type Official struct {
	ID    string
	Email string
	Name  string
}

// officialSession is one signed-in official plus the WCA bearer token they
// supplied at login. The token never leaves the server.
type officialSession struct {
	ID         string
	OfficialID string
	Email      string
	Name       string
	WCAToken   string
}

type Store interface {
	OfficialByEmail(ctx context.Context, email string) (Official, string, error)
	CreateOfficial(ctx context.Context, email, name, passwordHash string) (Official, error)
	GrantRole(ctx context.Context, officialID, competitionID, role string) error
	HasEditPermission(ctx context.Context, officialID, competitionID string) (bool, error)

	CreateSession(ctx context.Context, id, officialID, wcaToken string) error
	SessionByID(ctx context.Context, id string) (officialSession, error)
	DeleteSession(ctx context.Context, id string) error

	CacheRecord(ctx context.Context, competitionID string, payload []byte, fetchedAt time.Time) error
	CachedRecord(ctx context.Context, competitionID string) ([]byte, time.Time, error)
}
