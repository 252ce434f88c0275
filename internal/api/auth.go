package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/nerrad567/feedline-core/internal/apperr"
	"github.com/nerrad567/feedline-core/internal/auth"
)

// ticketTTL is how long a WebSocket ticket is valid.
const ticketTTL = 60 * time.Second

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

func (req loginRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Identifier, validation.Required),
		validation.Field(&req.Secret, validation.Required),
	)
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Token     string `json:"token"`
	SubjectID string `json:"subjectId"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
}

// signupResponse is the response body for POST /auth/signup.
type signupResponse struct {
	SubjectID string `json:"subjectId"`
	Username  string `json:"username"`
}

// statusRequest is the request body for PATCH /auth/status.
type statusRequest struct {
	Status string `json:"status"`
}

// handleSignup creates an account from an identifier and secret.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) error {
	var in auth.SignupInput
	if err := decodeJSON(r, &in); err != nil {
		return err
	}

	user, err := auth.Register(r.Context(), s.users, in)
	if err != nil {
		return authFailure(err)
	}

	s.logger.Info("account created", "user_id", user.ID, "username", user.Username)
	writeJSON(w, http.StatusCreated, signupResponse{SubjectID: user.ID, Username: user.Username})
	return nil
}

// handleLogin verifies credentials and issues a bearer token. A body that
// cannot be read as credentials fails the same way as a wrong secret.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		return authFailure(fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, err))
	}
	req.Identifier = strings.TrimSpace(req.Identifier)
	if err := req.Validate(); err != nil {
		return authFailure(fmt.Errorf("%w: %w", auth.ErrInvalidCredentials, err))
	}

	user, err := auth.Authenticate(r.Context(), s.users, req.Identifier, req.Secret)
	if err != nil {
		return authFailure(err)
	}

	token, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return apperr.Storage(err)
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		SubjectID: user.ID,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	})
	return nil
}

// handleMe returns the caller's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(r.Context(), callerID)
	if err != nil {
		return authFailure(err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
	return nil
}

// handleUpdateStatus replaces the caller's status text.
func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	req.Status = strings.TrimSpace(req.Status)
	if err := auth.ValidateStatus(req.Status); err != nil {
		return apperr.FromValidation(validation.Errors{"status": err})
	}

	if err := s.users.UpdateStatus(context.WithoutCancel(r.Context()), callerID, req.Status); err != nil {
		return authFailure(err)
	}

	writeJSON(w, http.StatusOK, statusRequest{Status: req.Status})
	return nil
}

// handleWSTicket generates a single-use WebSocket authentication ticket.
// The client uses this ticket to authenticate the WebSocket connection
// without exposing the token in the URL.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) error {
	callerID, err := callerOrFail(r)
	if err != nil {
		return err
	}

	ticket := generateTicket()
	s.tickets.put(ticket, callerID, time.Now().Add(ticketTTL))

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expiresIn":  int(ticketTTL.Seconds()),
	})
	return nil
}

// ticketStore holds pending WebSocket authentication tickets.
// Tickets are single-use and expire after ticketTTL.
type ticketStore struct {
	tickets map[string]ticketEntry
	mu      sync.Mutex
}

type ticketEntry struct {
	userID    string
	expiresAt time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{tickets: make(map[string]ticketEntry)}
}

func (ts *ticketStore) put(ticket, userID string, expiresAt time.Time) {
	ts.mu.Lock()
	ts.tickets[ticket] = ticketEntry{userID: userID, expiresAt: expiresAt}
	ts.mu.Unlock()
}

// consume checks a ticket and removes it whether or not it has expired.
func (ts *ticketStore) consume(ticket string) (ticketEntry, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.tickets[ticket]
	if !ok {
		return ticketEntry{}, false
	}
	delete(ts.tickets, ticket)

	return entry, time.Now().Before(entry.expiresAt)
}

// cleanExpired removes expired tickets from the store.
func (ts *ticketStore) cleanExpired(now time.Time) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for ticket, entry := range ts.tickets {
		if now.After(entry.expiresAt) {
			delete(ts.tickets, ticket)
		}
	}
}

func (ts *ticketStore) size() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.tickets)
}

// ticketBytes is the number of random bytes used for WebSocket tickets.
const ticketBytes = 32

// generateTicket creates a cryptographically random ticket string.
func generateTicket() string {
	b := make([]byte, ticketBytes)
	//nolint:errcheck // crypto/rand.Read always returns len(b) on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// cleanTicketsLoop removes expired tickets periodically until the context is cancelled.
func (s *Server) cleanTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(ticketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tickets.cleanExpired(now)
		}
	}
}
