package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// usernamePattern defines the valid format for identifiers:
// alphanumeric, dots, hyphens, underscores.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Field limits for account input.
const (
	maxUsernameLength    = 64
	minPasswordLength    = 6
	maxPasswordLength    = 128
	maxDisplayNameLength = 100
	maxStatusLength      = 280
)

// IsValidUsername checks if an identifier meets format requirements.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// User is an account that can sign in and own resources.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"` // never serialised
	Status       string    `json:"status"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SignupInput is the credential set submitted when creating an account.
type SignupInput struct {
	Identifier  string `json:"identifier"`
	Secret      string `json:"secret"`
	DisplayName string `json:"displayName"`
}

// Normalize trims surrounding whitespace from the identifier and display name.
func (in *SignupInput) Normalize() {
	in.Identifier = strings.TrimSpace(in.Identifier)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
}

// Validate checks field presence and bounds.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Identifier,
			validation.Required,
			validation.Length(1, maxUsernameLength),
			validation.Match(usernamePattern).Error("may only contain letters, digits, dots, hyphens and underscores"),
		),
		validation.Field(&in.Secret,
			validation.Required,
			validation.Length(minPasswordLength, maxPasswordLength),
		),
		validation.Field(&in.DisplayName, validation.Length(0, maxDisplayNameLength)),
	)
}

// ValidateStatus checks a user status text.
func ValidateStatus(status string) error {
	return validation.Validate(status,
		validation.Required,
		validation.RuneLength(1, maxStatusLength),
	)
}

// Sentinel errors for auth operations.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameExists     = errors.New("username already exists")
	ErrTokenInvalid       = errors.New("invalid token")
)
