// Package credstore persists session credentials between runs.
//
// The durable contract is exactly three values: the access token, the refresh
// token, and the last known user snapshot. Everything else the application
// holds in memory and re-derives from the backend.
package credstore

import (
	"sync"

	"github.com/meditrade/storefront/internal/errs"
	"github.com/meditrade/storefront/internal/model"
)

// Store is the credential persistence contract.
// Implementations must treat Clear as removing all stored values at once:
// a refresh failure wipes the whole session, never a single key.
type Store interface {
	// Tokens returns the stored token pair; errs.ErrNotFound if none stored.
	Tokens() (model.Tokens, error)
	// SaveTokens replaces the stored token pair.
	SaveTokens(t model.Tokens) error
	// User returns the stored user snapshot; errs.ErrNotFound if none stored.
	User() (*model.User, error)
	// SaveUser replaces the stored user snapshot.
	SaveUser(u *model.User) error
	// Clear removes tokens and user together.
	Clear() error
}

// Memory is an in-process Store for tests and ephemeral sessions.
type Memory struct {
	mu     sync.Mutex
	tokens *model.Tokens
	user   *model.User
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Tokens() (model.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		return model.Tokens{}, errs.ErrNotFound
	}
	return *m.tokens, nil
}

func (m *Memory) SaveTokens(t model.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := t
	m.tokens = &cpy
	return nil
}

func (m *Memory) User() (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, errs.ErrNotFound
	}
	cpy := *m.user
	return &cpy, nil
}

func (m *Memory) SaveUser(u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cpy := *u
	m.user = &cpy
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = nil
	m.user = nil
	return nil
}
