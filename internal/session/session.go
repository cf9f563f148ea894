// Package session keeps the logged-in user of the application.  The record
// is loaded once at startup and written back only through Store.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"inside-notes/internal/core"
	"inside-notes/pkg"
)

const (
	// DefaultKey is the slot the session record is stored under.
	DefaultKey = "inside-notes-user"

	AdminEmail    = "admin@inside.local"
	AdminPassword = "Admin123456"
	// TechnicianEmail is the account every non-admin login resolves to.
	TechnicianEmail = "ronaldo.costa@inside.local"
)

// ErrNoSession is returned by operations that need a logged-in user.
var ErrNoSession = errors.New("no active session")

// Store reads and writes the session record under a fixed key.
type Store struct {
	kv     KV
	key    string
	logger *zap.Logger
}

func NewStore(kv KV, key string, logger *zap.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, key: key, logger: logger}
}

// Load returns the stored session, or nil when there is none.  A record
// that does not decode is removed and treated as absent.
func (s *Store) Load(ctx context.Context) (*pkg.Session, error) {
	raw, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess pkg.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.User.ID == 0 {
		s.logger.Warn("discarding unreadable session record", zap.String("key", s.key), zap.Error(err))
		if err := s.kv.Del(ctx, s.key); err != nil {
			return nil, fmt.Errorf("clear session: %w", err)
		}
		return nil, nil
	}
	return &sess, nil
}

func (s *Store) Save(ctx context.Context, sess *pkg.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Del(ctx, s.key); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Manager owns the current session.  Init must run before Current is
// meaningful; Close drops the in-memory copy and leaves the store alone.
type Manager struct {
	store  *Store
	users  core.UserStore
	now    func() time.Time
	logger *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	current *pkg.Session
}

func NewManager(store *Store, users core.UserStore, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, users: users, now: time.Now, logger: logger}
}

// Init loads the stored session.  Later calls are no-ops.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return nil
	}
	sess, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	m.current = sess
	m.loaded = true
	if sess != nil {
		m.logger.Info("session restored", zap.Int64("user_id", sess.User.ID))
	}
	return nil
}

// Current returns a copy of the session, or nil when nobody is logged in.
func (m *Manager) Current() *pkg.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	c := *m.current
	return &c
}

// Login authenticates against the demo accounts and persists the session.
func (m *Manager) Login(ctx context.Context, email, password string) (*pkg.Session, error) {
	u, err := Authenticate(ctx, m.users, email, password)
	if err != nil {
		return nil, err
	}
	sess := &pkg.Session{User: *u, StartedAt: m.now().UTC()}
	if err := m.store.Save(ctx, sess); err != nil {
		return nil, &core.ConnectivityError{Op: "save session", Err: err}
	}
	m.mu.Lock()
	m.current = sess
	m.loaded = true
	m.mu.Unlock()
	m.logger.Info("login", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	c := *sess
	return &c, nil
}

// Logout clears the stored and in-memory session.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return &core.ConnectivityError{Op: "clear session", Err: err}
	}
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
	return nil
}

// Refresh replaces the session user after the account was edited.
func (m *Manager) Refresh(ctx context.Context, u pkg.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil || m.current.User.ID != u.ID {
		return nil
	}
	next := *m.current
	next.User = u
	if err := m.store.Save(ctx, &next); err != nil {
		return err
	}
	m.current = &next
	return nil
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.loaded = false
}

// Authenticate is the mock login: the admin credentials yield the admin
// account, any other non-empty pair yields the demo technician.
func Authenticate(ctx context.Context, users core.UserStore, email, password string) (*pkg.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &core.ValidationError{Field: "email", Message: "email e senha são obrigatórios"}
	}
	target := TechnicianEmail
	if strings.EqualFold(email, AdminEmail) && password == AdminPassword {
		target = AdminEmail
	}
	u, err := users.GetByEmail(ctx, target)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, &core.NotFoundError{Resource: "user", ID: target}
		}
		return nil, &core.ConnectivityError{Op: "load user", Err: err}
	}
	return u, nil
}
