// Package session owns the portal's login state: the per-request session
// object handed to the backend client, token persistence, and the route
// gate for the single-page app.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Record is a persisted session. Token is the backend access token in
// plain text; stores seal it before it touches storage.
type Record struct {
	ID        string
	Token     string
	Subject   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists session records keyed by the cookie id.
type Store interface {
	Create(ctx context.Context, token string) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	Delete(ctx context.Context, id string) error
}

// IsAuthenticated reports whether rec carries a token. Presence is the
// only signal; the token is never inspected for expiry.
func IsAuthenticated(rec Record) bool {
	return rec.Token != ""
}

// Session is the live view of one browser session for the duration of a
// request. It satisfies backend.TokenSource.
type Session struct {
	mu          sync.Mutex
	id          string
	token       string
	subject     string
	invalidated bool
}

// New wraps rec. A zero Record yields an anonymous session.
func New(rec Record) *Session {
	return &Session{id: rec.ID, token: rec.Token, subject: rec.Subject}
}

func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Subject() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subject
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && !s.invalidated
}

// Invalidate drops the token. Later calls through a client bound to s go
// out anonymously.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.invalidated = true
}

// Invalidated reports whether the backend rejected this session during the
// current request.
func (s *Session) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// UnauthorizedHook returns the callback the backend client fires on 401:
// the stored record is deleted and s is marked invalid. Deletion uses a
// detached context so a cancelled request still clears the token.
func (s *Session) UnauthorizedHook(store Store, logger *slog.Logger) func() {
	return func() {
		id := s.ID()
		s.Invalidate()
		if id == "" || store == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Delete(ctx, id); err != nil {
			logger.Error("deleting rejected session", "error", err, "subject", s.Subject())
		}
	}
}
