package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/securevault/internal/client/client"
	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
)

type SessionState int

const (
	StateUnknown SessionState = iota
	StateChecking
	StateAuthenticated
	StateAnonymous
)

func (s SessionState) String() string {
	switch s {
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// SessionManager owns the current identity. It persists the refresh token
// in the metadata store so a session survives restarts.
type SessionManager struct {
	backend client.IdentityBackend
	store   metadata.Repository
	logger  logging.Logger

	mu       sync.Mutex
	state    SessionState
	identity *models.Identity
	nextSub  int
	subs     map[int]func(*models.Identity)

	// held while an identity change is delivered, so subscribers observe
	// changes in the order they happened
	changeMu sync.Mutex

	// closed once Start has resolved the persisted session
	started chan struct{}

	unhook []func()
}

func NewSessionManager(b client.IdentityBackend, store metadata.Repository, l logging.Logger) *SessionManager {
	m := &SessionManager{
		backend: b,
		store:   store,
		logger:  l.With("module", "session"),
		subs:    make(map[int]func(*models.Identity)),
		started: make(chan struct{}),
	}
	m.unhook = []func(){
		b.OnSessionInvalidated(m.invalidate),
		b.OnTokenRotated(m.rotated),
	}
	return m
}

// Close detaches from the backend. The identity is left as is.
func (m *SessionManager) Close() {
	for _, fn := range m.unhook {
		fn()
	}
	m.unhook = nil
}

// Start resumes the persisted session, if any. It runs once; later calls
// are no-ops. A rejected token is forgotten. A network failure leaves the
// manager anonymous but keeps the token for the next start.
func (m *SessionManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUnknown {
		m.mu.Unlock()
		return nil
	}
	m.state = StateChecking
	m.mu.Unlock()
	defer close(m.started)

	token, err := m.store.Get(ctx, metadata.RefreshTokenKey)
	if err != nil {
		m.setIdentity(nil)
		return fmt.Errorf("read session: %w", err)
	}
	if len(token) == 0 {
		m.setIdentity(nil)
		return nil
	}

	id, err := m.backend.Resume(ctx, string(token))
	if err != nil {
		if errors.Is(err, common.ErrNotAuthenticated) {
			m.logger.Info(ctx, "persisted session rejected", "error", err)
			m.forget(ctx)
			m.setIdentity(nil)
			return nil
		}
		m.logger.Warn(ctx, "session resume failed", "error", err)
		m.setIdentity(nil)
		return err
	}

	m.persist(ctx, m.backend.RefreshToken())
	m.setIdentity(id)
	return nil
}

func (m *SessionManager) SignIn(ctx context.Context, email, secret string) (*models.Identity, error) {
	if err := common.RequireNonEmpty("email", email, "password", secret); err != nil {
		return nil, err
	}

	if err := m.awaitStart(ctx); err != nil {
		return nil, err
	}
	m.leave(ctx)

	id, err := m.backend.SignIn(ctx, email, secret)
	if err != nil {
		return nil, err
	}
	m.persist(ctx, m.backend.RefreshToken())
	m.setIdentity(id)
	return cloneIdentity(id), nil
}

// SignUp registers a new account and signs it in.
func (m *SessionManager) SignUp(ctx context.Context, email, secret, displayName string) (*models.Identity, error) {
	if err := common.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := common.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}
	if err := common.CheckAccountSecret(secret); err != nil {
		return nil, err
	}

	if err := m.awaitStart(ctx); err != nil {
		return nil, err
	}
	m.leave(ctx)

	id, err := m.backend.SignUp(ctx, email, secret, displayName)
	if err != nil {
		return nil, err
	}
	m.persist(ctx, m.backend.RefreshToken())
	m.setIdentity(id)
	return cloneIdentity(id), nil
}

// SignOut always ends the local session. Failing to revoke the token on
// the server is logged, not returned.
func (m *SessionManager) SignOut(ctx context.Context) {
	if err := m.backend.SignOut(ctx); err != nil {
		m.logger.Warn(ctx, "token revocation failed", "error", err)
	}
	m.forget(ctx)
	m.setIdentity(nil)
}

func (m *SessionManager) CurrentIdentity() *models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneIdentity(m.identity)
}

func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for identity changes; nil means signed out. If
// the state is already resolved, fn is called at once with the current
// identity.
func (m *SessionManager) Subscribe(fn func(*models.Identity)) (cancel func()) {
	m.changeMu.Lock()
	defer m.changeMu.Unlock()

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	resolved := m.state == StateAuthenticated || m.state == StateAnonymous
	current := cloneIdentity(m.identity)
	m.mu.Unlock()

	if resolved {
		fn(current)
	}

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// awaitStart blocks while Start is still checking the persisted session,
// so a sign-in cannot race a late resume.
func (m *SessionManager) awaitStart(ctx context.Context) error {
	if m.State() != StateChecking {
		return nil
	}
	select {
	case <-m.started:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// rotated persists a refreshed token while the session it belongs to is
// still the live one.
func (m *SessionManager) rotated(token string) {
	if m.State() != StateAuthenticated || m.backend.RefreshToken() != token {
		return
	}
	m.persist(context.Background(), token)
}

// leave passes through the anonymous state before a new sign-in, so
// subscribers never see one identity replaced by another directly.
func (m *SessionManager) leave(ctx context.Context) {
	if m.State() != StateAuthenticated {
		return
	}
	m.SignOut(ctx)
}

func (m *SessionManager) invalidate() {
	ctx := context.Background()
	if m.State() != StateAuthenticated {
		return
	}
	m.logger.Info(ctx, "session invalidated by backend")
	m.forget(ctx)
	m.setIdentity(nil)
}

func (m *SessionManager) persist(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := m.store.Set(ctx, metadata.RefreshTokenKey, []byte(token)); err != nil {
		m.logger.Warn(ctx, "failed to persist session", "error", err)
	}
}

func (m *SessionManager) forget(ctx context.Context) {
	if err := m.store.Delete(ctx, metadata.RefreshTokenKey); err != nil {
		m.logger.Warn(ctx, "failed to clear session", "error", err)
	}
}

func (m *SessionManager) setIdentity(id *models.Identity) {
	m.changeMu.Lock()
	defer m.changeMu.Unlock()

	m.mu.Lock()
	prev := m.identity
	prevState := m.state
	m.identity = cloneIdentity(id)
	if id == nil {
		m.state = StateAnonymous
	} else {
		m.state = StateAuthenticated
	}
	changed := prevState != m.state || !sameIdentity(prev, id)
	fns := make([]func(*models.Identity), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range fns {
		fn(cloneIdentity(id))
	}
}

func sameIdentity(a, b *models.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneIdentity(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
