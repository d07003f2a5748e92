package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/meditrade/storefront/internal/credstore"
	"github.com/meditrade/storefront/internal/model"
)

// Backend is the slice of the API the session lifecycle needs.
type Backend interface {
	// PasswordLogin exchanges credentials for a token pair (password grant).
	PasswordLogin(ctx context.Context, username, password string) (model.Tokens, error)
	// CurrentUser fetches the authenticated user through the authenticated surface.
	CurrentUser(ctx context.Context) (*model.User, error)
	// Logout invalidates the session server-side.
	Logout(ctx context.Context) error
}

// Manager owns the session State. All mutations funnel through Reduce, and
// persistence to the credential store happens adjacent to each dispatch, so
// the store and the in-memory state cannot drift apart across a transition.
type Manager struct {
	mu      sync.Mutex
	state   State
	creds   credstore.Store
	backend Backend
	log     *zap.Logger
}

// NewManager constructs a Manager with an empty session.
func NewManager(backend Backend, creds credstore.Store, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{backend: backend, creds: creds, log: log}
}

// Session returns a snapshot of the current state.
func (m *Manager) Session() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) dispatch(a Action) {
	m.mu.Lock()
	m.state = Reduce(m.state, a)
	m.mu.Unlock()
}

// Login performs the password grant, persists the token pair, fetches the
// current user, and transitions to an authenticated session.
func (m *Manager) Login(ctx context.Context, username, password string) (*model.User, error) {
	tokens, err := m.backend.PasswordLogin(ctx, username, password)
	if err != nil {
		return nil, err
	}
	tokens.ExpiresAt = tokenExpiry(tokens.AccessToken)

	// Tokens first: CurrentUser goes through the authenticated surface,
	// which reads the access token from the store.
	if err := m.creds.SaveTokens(tokens); err != nil {
		return nil, err
	}
	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		_ = m.creds.Clear()
		return nil, err
	}
	if err := m.creds.SaveUser(user); err != nil {
		return nil, err
	}

	m.dispatch(Login(user, tokens.AccessToken))
	m.log.Info("logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	return user, nil
}

// Logout tells the backend best-effort, wipes stored credentials, and resets
// the state. A failed server call never blocks the local logout.
func (m *Manager) Logout(ctx context.Context) error {
	if m.Session().Authenticated() {
		if err := m.backend.Logout(ctx); err != nil {
			m.log.Warn("server logout failed", zap.Error(err))
		}
	}
	err := m.creds.Clear()
	m.dispatch(Logout())
	m.log.Info("logged out")
	return err
}

// Restore runs the cold-start session restoration: a stored token is only
// trusted after a current-user round-trip confirms it (the call itself may
// transparently refresh an expired token).
func (m *Manager) Restore(ctx context.Context) State {
	tokens, err := m.creds.Tokens()
	if err != nil || tokens.AccessToken == "" {
		m.dispatch(Logout())
		return m.Session()
	}
	if !tokens.ExpiresAt.IsZero() && time.Now().After(tokens.ExpiresAt) {
		m.log.Debug("stored access token past recorded expiry; validation will refresh")
	}

	user, err := m.backend.CurrentUser(ctx)
	if err != nil {
		m.log.Info("stored session invalid", zap.Error(err))
		_ = m.creds.Clear()
		m.dispatch(Logout())
		return m.Session()
	}
	_ = m.creds.SaveUser(user)

	// Re-read: validation may have rotated the token pair via refresh.
	if fresh, err := m.creds.Tokens(); err == nil && fresh.AccessToken != "" {
		tokens = fresh
	}
	m.dispatch(Login(user, tokens.AccessToken))
	m.log.Info("session restored", zap.String("username", user.Username))
	return m.Session()
}

// UpdateUser merges the patch into the in-memory user and refreshes the
// persisted snapshot. The token is untouched.
func (m *Manager) UpdateUser(patch UserPatch) State {
	m.dispatch(UpdateUser(patch))
	s := m.Session()
	if s.User != nil {
		_ = m.creds.SaveUser(s.User)
	}
	return s
}

// tokenExpiry reads exp from the access token without verifying the signature;
// the value is advisory (diagnostics and skip-validation hints only).
func tokenExpiry(access string) time.Time {
	var claims jwt.RegisteredClaims
	_, _ = jwt.ParseWithClaims(access, &claims,
		func(*jwt.Token) (any, error) { return nil, nil },
		jwt.WithoutClaimsValidation(),
	)
	if claims.ExpiresAt != nil {
		return claims.ExpiresAt.Time
	}
	return time.Time{}
}
