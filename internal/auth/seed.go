package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// seedPasswordBytes is the number of random bytes for the bootstrap password.
const seedPasswordBytes = 16

// SeedBootstrap creates the first account on an empty database.
// The generated password is logged once and returned; it must be changed.
// Returns an empty string if any user already exists.
func SeedBootstrap(ctx context.Context, users UserRepository, identifier string, logger *slog.Logger) (string, error) {
	if !IsValidUsername(identifier) {
		return "", fmt.Errorf("invalid bootstrap identifier %q", identifier)
	}

	count, err := users.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("checking user count: %w", err)
	}
	if count > 0 {
		logger.Info("users exist, skipping bootstrap seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil { //nolint:govet // shadow: err re-declared in nested scope
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	user := &User{
		Username:     identifier,
		DisplayName:  identifier,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		return "", fmt.Errorf("creating bootstrap user: %w", err)
	}

	logger.Warn("bootstrap account created",
		"username", identifier,
		"password", password,
		"action_required", "store this password now; it is not shown again",
	)

	return password, nil
}
