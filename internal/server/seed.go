package server

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// SeedOfficial creates an official with delegate rights for the competition
// if no account with that email exists yet. Idempotent; used for first-run
// setup and tests.
func SeedOfficial(ctx context.Context, logger *slog.Logger, store Store, email, password, competitionID string) error {
	if email == "" || password == "" {
		return nil
	}

	_, _, err := store.OfficialByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	official, err := store.CreateOfficial(ctx, email, "Seed Delegate", string(hash))
	if err != nil {
		return err
	}
	if err := store.GrantRole(ctx, official.ID, competitionID, "delegate"); err != nil {
		return err
	}

	logger.Info("seeded official", "email", email, "competition", competitionID)
	return nil
}
