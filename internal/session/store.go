// Package session owns the authenticated session value, its file
// persistence and its expiry detection. The Store is the single writer
// of the session; every change replaces the value wholesale.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/naveenspark/shopterm/internal/errs"
	"github.com/naveenspark/shopterm/pkg/client"
	"github.com/naveenspark/shopterm/pkg/domain"
)

// ExpiredReason is the user-visible message attached to a forced logout.
const ExpiredReason = "session expired, please log in again"

// LoginAPI is the slice of the gateway client the store needs.
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
}

// TokenSink receives the bearer credential whenever the session changes.
// *client.Client satisfies it.
type TokenSink interface {
	SetToken(token string)
}

// Store holds the current session and keeps the persisted record and the
// client's bearer credential in step with it.
type Store struct {
	api  LoginAPI
	sink TokenSink
	path string
	now  func() time.Time

	mu      sync.RWMutex
	current *domain.Session
}

// NewStore creates a session store persisting to path. sink may be nil
// when no client needs the credential pushed (tests).
func NewStore(api LoginAPI, sink TokenSink, path string) *Store {
	return &Store{api: api, sink: sink, path: path, now: time.Now}
}

// DefaultPath returns the session record location, honouring the
// SHOPTERM_SESSION_FILE override.
func DefaultPath() (string, error) {
	if p := os.Getenv("SHOPTERM_SESSION_FILE"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".shopterm", "session.json"), nil
}

// Current returns the session, or nil when unauthenticated.
func (s *Store) Current() *domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Token returns the bearer credential of the current session, or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.AccessToken
}

// Restore loads the persisted session record, if any. A malformed record
// (unparsable, missing token or user) is erased and treated as absent;
// restore never surfaces a parse failure. An already-expired record is
// restored as-is — the first expiry check forces the logout, so the
// expiry path stays uniform.
func (s *Store) Restore() *domain.Session {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil || !sess.Valid() {
		_ = os.Remove(s.path)
		return nil
	}

	s.replace(&sess)
	return &sess
}

// Login submits credentials to the gateway and installs the resulting
// session. A success payload missing its token or user fails with an
// AuthError even when the HTTP call itself succeeded.
func (s *Store) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, &errs.AuthError{Message: loginFailureMessage(err), Err: err}
	}

	sess := &domain.Session{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		User:        res.User,
	}
	if sess.TokenType == "" {
		sess.TokenType = "Bearer"
	}
	if !sess.Valid() {
		return nil, &errs.AuthError{Message: "invalid login response"}
	}
	if sess.ExpiresAt == 0 {
		// Some gateway builds omit expires_at; fall back to the token's claims.
		sess.ExpiresAt = expiryFromToken(sess.AccessToken)
	}

	s.replace(sess)
	if err := s.persist(sess); err != nil {
		// The in-memory session is installed either way; persistence is
		// best-effort and only affects the next process start.
		return sess, nil
	}
	return sess, nil
}

// Logout clears the session, erases the persisted record and returns the
// user-visible message. Voluntary logout and forced expiry both go
// through here so the two paths are indistinguishable downstream.
func (s *Store) Logout(reason string) string {
	s.replace(nil)
	_ = os.Remove(s.path)
	if reason == "" {
		return "logged out"
	}
	return reason
}

// Expired reports whether a session exists and its expiry has passed.
func (s *Store) Expired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.ExpiredAt(s.now())
}

// EnforceExpiry checks expiry and, when positive, performs the forced
// logout itself. It returns the logout message and true when it fired.
// Call it before every protected action and on timer ticks.
func (s *Store) EnforceExpiry() (string, bool) {
	if !s.Expired() {
		return "", false
	}
	return s.Logout(ExpiredReason), true
}

// Guard returns ErrNotAuthenticated or ErrSessionExpired when the
// current session cannot back a protected call, enforcing the expiry
// logout as a side effect.
func (s *Store) Guard() error {
	if _, fired := s.EnforceExpiry(); fired {
		return errs.ErrSessionExpired
	}
	if s.Current() == nil {
		return errs.ErrNotAuthenticated
	}
	return nil
}

func (s *Store) replace(sess *domain.Session) {
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()

	if s.sink != nil {
		if sess == nil {
			s.sink.SetToken("")
		} else {
			s.sink.SetToken(sess.AccessToken)
		}
	}
}

func (s *Store) persist(sess *domain.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}

// loginFailureMessage picks the most specific message available: the
// gateway's structured error when present, else a generic fallback.
func loginFailureMessage(err error) string {
	var he *client.HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return "unable to sign in"
}

// expiryFromToken reads the exp claim without verifying the signature;
// the client has no verification key and only needs the timestamp.
func expiryFromToken(token string) int64 {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return 0
	}
	if claims.ExpiresAt == nil {
		return 0
	}
	return claims.ExpiresAt.Unix()
}
