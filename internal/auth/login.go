package auth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate resolves identifier and checks secret against the stored hash.
//
// Unknown identifiers, inactive accounts and wrong secrets all return
// ErrInvalidCredentials. Unknown identifiers still cost one hash verification.
// A stored hash that cannot be read is returned as a plain error.
func Authenticate(ctx context.Context, users UserRepository, identifier, secret string) (*User, error) {
	user, err := users.GetByUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			burnVerification(secret)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := VerifyPassword(secret, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying credentials for %s: %w", user.ID, err)
	}
	if !ok || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Register validates input, hashes the secret and stores a new active user.
// Validation failures are returned as ozzo validation.Errors.
func Register(ctx context.Context, users UserRepository, in SignupInput) (*User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Secret)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Identifier
	}

	user := &User{
		Username:     in.Identifier,
		DisplayName:  displayName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
