// Package auth provides credential checking and access tokens for Feedline Core.
//
// It covers:
//   - Argon2id password hashing, with bcrypt hashes accepted on verify
//   - Stateless HS256 access tokens carrying only the user id and an absolute expiry
//   - SQLite-backed user accounts
//   - First-boot seeding of a bootstrap account
//
// Tokens are validated by signature and expiry alone. A valid token's
// subject is trusted for its whole lifetime without a database lookup, so
// deactivating an account takes effect only when its tokens expire.
package auth
