package server

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) OfficialByEmail(ctx context.Context, email string) (Official, string, error) {
	var o Official
	var hash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, password_hash FROM officials WHERE email = ?
	`, email).Scan(&o.ID, &o.Email, &o.Name, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return Official{}, "", ErrNotFound
	}
	return o, hash, err
}

func (s *SQLiteStore) CreateOfficial(ctx context.Context, email, name, passwordHash string) (Official, error) {
	var o Official
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO officials (email, name, password_hash)
		VALUES (?, ?, ?)
		RETURNING id, email, name
	`, email, name, passwordHash).Scan(&o.ID, &o.Email, &o.Name)
	return o, err
}

func (s *SQLiteStore) GrantRole(ctx context.Context, officialID, competitionID, role string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO official_roles (official_id, competition_id, role)
		VALUES (?, ?, ?)
		ON CONFLICT (official_id, competition_id) DO UPDATE SET role = excluded.role
	`, officialID, competitionID, role)
	return err
}

// HasEditPermission reports whether the official holds a delegate or
// organizer role for the competition. Both roles may correct results.
func (s *SQLiteStore) HasEditPermission(ctx context.Context, officialID, competitionID string) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT role FROM official_roles
		WHERE official_id = ? AND competition_id = ?
	`, officialID, competitionID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == "delegate" || role == "organizer", nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, id, officialID, wcaToken string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, official_id, wca_token) VALUES (?, ?, ?)
	`, id, officialID, wcaToken)
	return err
}

func (s *SQLiteStore) SessionByID(ctx context.Context, id string) (officialSession, error) {
	var sess officialSession
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, o.id, o.email, o.name, s.wca_token
		FROM sessions s
		JOIN officials o ON o.id = s.official_id
		WHERE s.id = ?
	`, id).Scan(&sess.ID, &sess.OfficialID, &sess.Email, &sess.Name, &sess.WCAToken)
	if errors.Is(err, sql.ErrNoRows) {
		return officialSession{}, errNoSession
	}
	return sess, err
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) CacheRecord(ctx context.Context, competitionID string, payload []byte, fetchedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO record_cache (competition_id, payload, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (competition_id) DO UPDATE SET
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, competitionID, payload, fetchedAt.UTC().Format(time.RFC3339))
	return err
}

func (s *SQLiteStore) CachedRecord(ctx context.Context, competitionID string) ([]byte, time.Time, error) {
	var payload []byte
	var fetchedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload, fetched_at FROM record_cache WHERE competition_id = ?
	`, competitionID).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, _ := time.Parse(time.RFC3339, fetchedAt)
	return payload, ts, nil
}
