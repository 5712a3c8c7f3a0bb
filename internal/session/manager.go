// Package session tracks the client's login session. It remembers the
// bearer token, persists it between runs and logs the user out on its
// own the moment the token's expiry passes.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mkulima/internal/token"
)

// State is the login state of the client
type State int

const (
	// LoggedOut means no valid session is held
	LoggedOut State = iota
	// LoggedIn means a live token is held and an expiry timer is armed
	LoggedIn
)

var (
	// ErrTokenExpired is returned when a token's expiry has already
	// passed
	ErrTokenExpired = errors.New("token expired")
	// ErrNotLoggedIn is returned when an operation needs a live session
	ErrNotLoggedIn = errors.New("not logged in")
)

// Manager owns the session lifecycle. All methods are safe for
// concurrent use. Expiry fires exactly one teardown however it races
// with an explicit Logout.
type Manager struct {
	storage Storage

	// OnExpire, when set, runs after an automatic logout. It is called
	// outside the manager's lock. Set it before the first Login.
	OnExpire func()

	mu     sync.Mutex
	state  State
	token  string
	claims *token.Claims
	timer  *time.Timer

	// generation invalidates timers armed for sessions that have since
	// been torn down
	generation uint64
}

// NewManager creates a logged-out manager persisting to storage
func NewManager(storage Storage) *Manager {
	return &Manager{storage: storage}
}

// Login adopts tok as the current session. The token must decode
// cleanly and still be live; an already-expired token is rejected
// rather than armed with a zero timer. Any previous session is torn
// down first.
func (m *Manager) Login(tok string) (*token.Claims, error) {
	claims, err := token.Decode(tok)
	if err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil, ErrTokenExpired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()

	if err := m.storage.Save(tok); err != nil {
		return nil, err
	}

	m.state = LoggedIn
	m.token = tok
	m.claims = claims

	gen := m.generation
	m.timer = time.AfterFunc(remaining, func() {
		m.expire(gen)
	})

	return claims, nil
}

// Logout tears the session down and clears the stored token. Calling
// it while logged out is a no-op.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == LoggedOut {
		return nil
	}

	m.teardownLocked()
	return m.storage.Clear()
}

// Restore rehydrates the session from storage, typically at startup.
// A missing token leaves the manager logged out; a malformed or
// expired one is discarded from storage as well.
func (m *Manager) Restore() (*token.Claims, error) {
	tok, err := m.storage.Load()
	if errors.Is(err, ErrNoSession) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}

	claims, err := m.Login(tok)
	if err != nil {
		slog.Warn("Discarding stored session", "error", err.Error())
		if clearErr := m.storage.Clear(); clearErr != nil {
			return nil, clearErr
		}
		return nil, err
	}
	return claims, nil
}

// State returns the current login state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Token returns the live bearer token
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == LoggedOut {
		return "", ErrNotLoggedIn
	}
	return m.token, nil
}

// Claims returns the claims of the live session
func (m *Manager) Claims() (*token.Claims, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == LoggedOut {
		return nil, ErrNotLoggedIn
	}
	return m.claims, nil
}

// expire is the timer callback. The generation check makes a timer
// armed for an older session do nothing, so an expiry racing a logout
// or re-login never tears down the wrong state.
func (m *Manager) expire(gen uint64) {
	m.mu.Lock()
	if m.generation != gen || m.state == LoggedOut {
		m.mu.Unlock()
		return
	}

	m.teardownLocked()
	if err := m.storage.Clear(); err != nil {
		slog.Warn("Failed to clear expired session", "error", err.Error())
	}
	onExpire := m.OnExpire
	m.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}

// teardownLocked resets to LoggedOut and disarms the timer. Callers
// hold m.mu. Bumping the generation neutralizes any timer callback
// already on its way.
func (m *Manager) teardownLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.generation++
	m.state = LoggedOut
	m.token = ""
	m.claims = nil
}
