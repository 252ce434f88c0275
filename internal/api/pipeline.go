package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nerrad567/feedline-core/internal/apperr"
	"github.com/nerrad567/feedline-core/internal/auth"
)

// ctxKeyCaller is the context key for the authenticated subject id.
const ctxKeyCaller contextKey = "caller"

// handlerFunc is a request handler that reports failure by returning an error.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// stage is one step of request processing ahead of a handler. It returns the
// request to continue with, possibly carrying an enriched context, or an
// error that ends the request.
type stage func(r *http.Request) (*http.Request, error)

// dispatch runs stages in order and then the handler. The first error from
// either is passed to respondError; nothing after it runs.
func (s *Server) dispatch(h handlerFunc, stages ...stage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, st := range stages {
			next, err := st(r)
			if err != nil {
				s.respondError(w, r, err)
				return
			}
			r = next
		}
		if err := h(w, r); err != nil {
			s.respondError(w, r, err)
		}
	}
}

// CallerFromContext returns the authenticated subject id set by requireAuth.
func CallerFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKeyCaller).(string)
	return id, ok && id != ""
}

// withCaller returns a copy of ctx carrying the subject id.
func withCaller(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, ctxKeyCaller, subjectID)
}

// requireAuth checks the bearer token and attaches its subject to the
// request. The subject is trusted for the token's lifetime; the user table
// is not consulted.
func (s *Server) requireAuth(r *http.Request) (*http.Request, error) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, apperr.New(apperr.Unauthenticated, "missing bearer token")
	}

	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.Unauthenticated, "invalid or expired token", err)
	}

	return r.WithContext(withCaller(r.Context(), claims.Subject)), nil
}

// rateLimit rejects callers that exceed the per-address token bucket.
func (s *Server) rateLimit(r *http.Request) (*http.Request, error) {
	if !s.limiter.allow(clientIP(r)) {
		return nil, apperr.New(apperr.RateLimited, "too many requests")
	}
	return r, nil
}

// resolveTicket consumes the WebSocket ticket and attaches its subject.
// Without a ticket the connection proceeds anonymously only when allowed.
func (s *Server) resolveTicket(r *http.Request) (*http.Request, error) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		if s.wsCfg.AllowAnonymous {
			return r, nil
		}
		return nil, apperr.New(apperr.Unauthenticated, "ticket query parameter is required")
	}

	entry, ok := s.tickets.consume(ticket)
	if !ok {
		return nil, apperr.New(apperr.Unauthenticated, "invalid or expired ticket")
	}
	return r.WithContext(withCaller(r.Context(), entry.userID)), nil
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// callerOrFail returns the subject attached by requireAuth.
func callerOrFail(r *http.Request) (string, error) {
	id, ok := CallerFromContext(r.Context())
	if !ok {
		return "", apperr.New(apperr.Unauthenticated, "not authenticated")
	}
	return id, nil
}

// authFailure maps credential errors from the auth package onto kinds.
func authFailure(err error) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return apperr.Wrap(apperr.Unauthenticated, "invalid credentials", err)
	case errors.Is(err, auth.ErrUsernameExists):
		return apperr.Wrap(apperr.Conflict, "identifier already registered", err)
	case errors.Is(err, auth.ErrUserNotFound):
		return apperr.Wrap(apperr.NotFound, "account not found", err)
	}
	if verr := apperr.FromValidation(err); verr != nil && verr.Kind == apperr.ValidationFailed {
		return verr
	}
	return apperr.Storage(err)
}
