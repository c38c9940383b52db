package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/set-night/mindchat/internal/api"
	"github.com/set-night/mindchat/internal/config"
	"github.com/set-night/mindchat/internal/domain"
	"github.com/set-night/mindchat/internal/repository"
	"github.com/shopspring/decimal"
)

// Authenticator is the part of the backend the session store talks to.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, email, password string) (*api.AuthResponse, error)
	SetToken(token string)
}

// SessionStore owns the authenticated session and keeps it mirrored in
// durable storage. Every mutation bumps the generation so in-flight work can
// tell whether the session it started under is still current.
type SessionStore struct {
	kv   repository.KV
	auth Authenticator

	mu         sync.RWMutex
	session    *domain.Session
	generation uint64
}

func NewSessionStore(kv repository.KV, auth Authenticator) *SessionStore {
	return &SessionStore{kv: kv, auth: auth}
}

func (s *SessionStore) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidCredentials)
	}
	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.establish(ctx, resp)
}

func (s *SessionStore) Register(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return domain.Session{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidCredentials)
	}
	if len([]rune(password)) < config.MinPasswordLength {
		return domain.Session{}, domain.ErrPasswordTooShort
	}
	resp, err := s.auth.Register(ctx, email, password)
	if err != nil {
		return domain.Session{}, err
	}
	return s.establish(ctx, resp)
}

func (s *SessionStore) establish(ctx context.Context, resp *api.AuthResponse) (domain.Session, error) {
	sess := domain.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		User:         resp.User,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	s.session = &sess
	s.generation++
	s.auth.SetToken(sess.AccessToken)
	return sess, nil
}

func (s *SessionStore) persist(ctx context.Context, sess domain.Session) error {
	user, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, config.KeyAuthToken, sess.AccessToken); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.kv.Set(ctx, config.KeyRefreshToken, sess.RefreshToken); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.kv.Set(ctx, config.KeyCurrentUser, string(user)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Logout drops the session from memory and storage. Calling it without a
// session only clears storage again.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = nil
	s.generation++
	s.auth.SetToken("")
	if err := s.kv.Delete(ctx, config.KeyAuthToken, config.KeyRefreshToken, config.KeyCurrentUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Restore rehydrates a persisted session. The token is not validated; an
// expired one surfaces as ErrUnauthorized on first use.
func (s *SessionStore) Restore(ctx context.Context) (bool, error) {
	token, ok, err := s.kv.Get(ctx, config.KeyAuthToken)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !ok || token == "" {
		return false, nil
	}
	refresh, _, err := s.kv.Get(ctx, config.KeyRefreshToken)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	rawUser, ok, err := s.kv.Get(ctx, config.KeyCurrentUser)
	if err != nil {
		return false, fmt.Errorf("restore session: %w", err)
	}
	if !ok {
		return false, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		slog.Warn("discarding unreadable persisted user", "error", err)
		return false, s.Logout(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &domain.Session{AccessToken: token, RefreshToken: refresh, User: user}
	s.generation++
	s.auth.SetToken(token)
	return true, nil
}

func (s *SessionStore) Current() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Active() {
		return domain.Session{}, false
	}
	return *s.session, true
}

func (s *SessionStore) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Active()
}

func (s *SessionStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Valid reports whether the session that was current at generation gen is
// still the active one.
func (s *SessionStore) Valid(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Active() && s.generation == gen
}

// Balance is the locally cached balance; zero without a session.
func (s *SessionStore) Balance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.Active() {
		return decimal.Zero
	}
	return s.session.User.Balance
}

// Debit subtracts cost from the cached balance and persists the user. The
// server stays authoritative; this only keeps the display close to it.
func (s *SessionStore) Debit(ctx context.Context, gen uint64, cost decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Active() || s.generation != gen {
		return decimal.Zero, domain.ErrSessionEnded
	}
	s.session.User.Balance = s.session.User.Balance.Sub(cost)

	user, err := json.Marshal(s.session.User)
	if err != nil {
		return s.session.User.Balance, fmt.Errorf("marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, config.KeyCurrentUser, string(user)); err != nil {
		return s.session.User.Balance, fmt.Errorf("persist balance: %w", err)
	}
	return s.session.User.Balance, nil
}

// Theme returns the persisted theme, or the first known theme.
func (s *SessionStore) Theme(ctx context.Context) string {
	theme, ok, err := s.kv.Get(ctx, config.KeyTheme)
	if err != nil {
		slog.Warn("read theme", "error", err)
	}
	if !ok || !slices.Contains(config.Themes, theme) {
		return config.Themes[0]
	}
	return theme
}

func (s *SessionStore) SetTheme(ctx context.Context, theme string) error {
	if !slices.Contains(config.Themes, theme) {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTheme, theme)
	}
	if err := s.kv.Set(ctx, config.KeyTheme, theme); err != nil {
		return fmt.Errorf("persist theme: %w", err)
	}
	return nil
}
