package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/client"
	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
)

// identitySource is what a VaultStore binds to.
type identitySource interface {
	Subscribe(fn func(*models.Identity)) (cancel func())
}

// VaultStore caches the credential entries of the current identity.
//
// Every scope change (sign in, sign out) bumps a generation counter. Backend
// calls capture the generation before they start and the lock is never held
// across them; a response that comes back for an older generation is dropped
// and the call fails with common.ErrStaleScope.
type VaultStore struct {
	backend client.VaultBackend
	logger  logging.Logger

	mu       sync.Mutex
	identity *models.Identity
	gen      uint64
	cache    map[string]*models.CredentialEntry
	stop     context.CancelFunc
	nextSub  int
	subs     map[int]func([]*models.CredentialEntry)

	// held while subscribers are called, so they see changes in order
	notifyMu sync.Mutex

	unbind func()
}

func NewVaultStore(b client.VaultBackend, l logging.Logger) *VaultStore {
	return &VaultStore{
		backend: b,
		logger:  l.With("module", "vault_store"),
		cache:   make(map[string]*models.CredentialEntry),
		subs:    make(map[int]func([]*models.CredentialEntry)),
	}
}

// Bind scopes the store to the identity published by src.
func (s *VaultStore) Bind(src identitySource) {
	s.unbind = src.Subscribe(s.onIdentity)
}

// Close unbinds the store and tears down the current scope.
func (s *VaultStore) Close() {
	if s.unbind != nil {
		s.unbind()
		s.unbind = nil
	}
	s.deactivate()
}

func (s *VaultStore) onIdentity(id *models.Identity) {
	if id == nil {
		s.deactivate()
		return
	}
	s.activate(id)
}

func (s *VaultStore) activate(id *models.Identity) {
	s.mu.Lock()
	if s.identity != nil && s.identity.ID == id.ID {
		s.mu.Unlock()
		return
	}
	if s.stop != nil {
		s.stop()
	}
	s.gen++
	gen := s.gen
	s.identity = cloneIdentity(id)
	s.cache = make(map[string]*models.CredentialEntry)
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.mu.Unlock()

	s.logger.Debug(ctx, "scope activated", "user", id.ID, "generation", gen)
	s.notify()

	listener := NewSyncListener(s.backend, s.applySnapshot, s.logger)
	go func() {
		if _, err := s.load(ctx, gen); err != nil && ctx.Err() == nil {
			s.logger.Warn(ctx, "initial load failed", "error", err)
		}
		listener.Run(ctx, gen)
	}()
}

// deactivate cancels the scope's goroutines without waiting for them:
// it may run on one of them. Anything they still deliver carries an old
// generation and is dropped.
func (s *VaultStore) deactivate() {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.gen++
	s.identity = nil
	s.cache = make(map[string]*models.CredentialEntry)
	s.mu.Unlock()

	s.notify()
}

func (s *VaultStore) scope() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return 0, common.ErrNotAuthenticated
	}
	return s.gen, nil
}

func (s *VaultStore) current(gen uint64) bool {
	return s.identity != nil && s.gen == gen
}

// commit runs fn under the lock if gen is still current and notifies
// subscribers afterwards.
func (s *VaultStore) commit(gen uint64, fn func()) error {
	s.mu.Lock()
	if !s.current(gen) {
		s.mu.Unlock()
		return common.ErrStaleScope
	}
	fn()
	s.mu.Unlock()

	s.notify()
	return nil
}

// LoadAll fetches every entry and replaces the cache with the result.
func (s *VaultStore) LoadAll(ctx context.Context) ([]*models.CredentialEntry, error) {
	gen, err := s.scope()
	if err != nil {
		return nil, err
	}
	return s.load(ctx, gen)
}

func (s *VaultStore) load(ctx context.Context, gen uint64) ([]*models.CredentialEntry, error) {
	entries, err := s.backend.List(ctx)
	if err != nil {
		return nil, s.failure(gen, err)
	}
	if err := s.commit(gen, func() { s.replaceLocked(entries) }); err != nil {
		return nil, err
	}
	return sortedClones(entries), nil
}

func (s *VaultStore) applySnapshot(gen uint64, entries []*models.CredentialEntry) {
	if err := s.commit(gen, func() { s.replaceLocked(entries) }); err != nil {
		s.logger.Debug(context.Background(), "stale snapshot dropped", "generation", gen)
	}
}

func (s *VaultStore) replaceLocked(entries []*models.CredentialEntry) {
	s.cache = make(map[string]*models.CredentialEntry, len(entries))
	for _, e := range entries {
		s.cache[e.ID] = e.Clone()
	}
}

func (s *VaultStore) Create(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error) {
	if err := common.RequireNonEmpty(
		"siteName", fields.SiteName,
		"username", fields.Username,
		"secret", fields.Secret,
	); err != nil {
		return nil, err
	}
	gen, err := s.scope()
	if err != nil {
		return nil, err
	}

	e, err := s.backend.Push(ctx, fields)
	if err != nil {
		return nil, s.failure(gen, err)
	}
	if err := s.commit(gen, func() { s.cache[e.ID] = e.Clone() }); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

// Update changes the fields present in patch. Present fields must not be
// empty, and at least one must be present.
func (s *VaultStore) Update(ctx context.Context, id string, patch models.CredentialPatch) (*models.CredentialEntry, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	gen, err := s.scope()
	if err != nil {
		return nil, err
	}

	e, err := s.backend.Update(ctx, id, patch)
	if err != nil {
		return nil, s.failure(gen, err)
	}
	if err := s.commit(gen, func() { s.cache[e.ID] = e.Clone() }); err != nil {
		return nil, err
	}
	return e.Clone(), nil
}

func validatePatch(p models.CredentialPatch) error {
	if p.IsEmpty() {
		return common.NewValidationError("patch", "nothing to update")
	}
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"siteName", p.SiteName},
		{"username", p.Username},
		{"secret", p.Secret},
	} {
		if f.value != nil && *f.value == "" {
			return common.NewValidationError(f.name, "required")
		}
	}
	return nil
}

func (s *VaultStore) Delete(ctx context.Context, id string) error {
	gen, err := s.scope()
	if err != nil {
		return err
	}

	if err := s.backend.Remove(ctx, id); err != nil {
		return s.failure(gen, err)
	}
	return s.commit(gen, func() { delete(s.cache, id) })
}

// Export asks the server for an encrypted archive of the vault and
// returns its download link.
func (s *VaultStore) Export(ctx context.Context, passphrase string) (string, time.Time, error) {
	if err := common.RequireNonEmpty("passphrase", passphrase); err != nil {
		return "", time.Time{}, err
	}
	gen, err := s.scope()
	if err != nil {
		return "", time.Time{}, err
	}

	url, expiresAt, err := s.backend.Export(ctx, passphrase)
	if err != nil {
		return "", time.Time{}, s.failure(gen, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return "", time.Time{}, common.ErrStaleScope
	}
	return url, expiresAt, nil
}

// failure reports err, unless the scope changed while the call was in
// flight.
func (s *VaultStore) failure(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.current(gen) {
		return common.ErrStaleScope
	}
	return err
}

// Entries returns the cached entries, oldest first.
func (s *VaultStore) Entries() []*models.CredentialEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entriesLocked()
}

func (s *VaultStore) entriesLocked() []*models.CredentialEntry {
	out := make([]*models.CredentialEntry, 0, len(s.cache))
	for _, e := range s.cache {
		out = append(out, e.Clone())
	}
	models.SortEntries(out)
	return out
}

func (s *VaultStore) Get(id string) (*models.CredentialEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil, common.ErrNotAuthenticated
	}
	e, ok := s.cache[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return e.Clone(), nil
}

// Search returns the cached entries whose site name or username contains
// query, ignoring case.
func (s *VaultStore) Search(query string) []*models.CredentialEntry {
	var out []*models.CredentialEntry
	for _, e := range s.Entries() {
		if e.Matches(query) {
			out = append(out, e)
		}
	}
	return out
}

// Subscribe registers fn for cache changes. fn gets the full entry set,
// oldest first, and is called at once with the current set. fn must not
// modify the store.
func (s *VaultStore) Subscribe(fn func([]*models.CredentialEntry)) (cancel func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	entries := s.entriesLocked()
	s.mu.Unlock()

	fn(entries)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *VaultStore) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	entries := s.entriesLocked()
	fns := make([]func([]*models.CredentialEntry), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		// each subscriber gets its own copy
		cp := make([]*models.CredentialEntry, len(entries))
		for i, e := range entries {
			cp[i] = e.Clone()
		}
		fn(cp)
	}
}

func sortedClones(entries []*models.CredentialEntry) []*models.CredentialEntry {
	out := make([]*models.CredentialEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Clone())
	}
	models.SortEntries(out)
	return out
}
