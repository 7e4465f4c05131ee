package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
)

var errBoom = errors.New("boom")

func nopLogger() logging.Logger { return logging.Discard() }

/*************
 * identity backend
 *************/

type fakeIdentity struct {
	mu sync.Mutex

	signInID  *models.Identity
	signInErr error
	signUpErr error
	resumeID  *models.Identity
	resumeErr error
	outErr    error
	// when set, Resume closes resumeStarted and waits for resumeRelease
	resumeStarted chan struct{}
	resumeRelease chan struct{}

	signInCalls int
	signUpCalls int
	outCalls    int
	resumedWith string

	token string

	hookID      int
	invalidated map[int]func()
	rotated     map[int]func(string)
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		invalidated: map[int]func(){},
		rotated:     map[int]func(string){},
	}
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, secret string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	f.token = "R-" + email
	if f.signInID != nil {
		return f.signInID, nil
	}
	return &models.Identity{ID: "u-" + email, Email: email}, nil
}

func (f *fakeIdentity) SignUp(ctx context.Context, email, secret, displayName string) (*models.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUpCalls++
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	f.token = "R-" + email
	return &models.Identity{ID: "u-" + email, Email: email, DisplayName: displayName}, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outCalls++
	f.token = ""
	return f.outErr
}

func (f *fakeIdentity) Resume(ctx context.Context, refreshToken string) (*models.Identity, error) {
	if f.resumeRelease != nil {
		close(f.resumeStarted)
		<-f.resumeRelease
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumedWith = refreshToken
	if f.resumeErr != nil {
		return nil, f.resumeErr
	}
	f.token = refreshToken + "'"
	return f.resumeID, nil
}

func (f *fakeIdentity) RefreshToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeIdentity) OnSessionInvalidated(fn func()) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.hookID
	f.hookID++
	f.invalidated[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.invalidated, id)
	}
}

func (f *fakeIdentity) OnTokenRotated(fn func(string)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.hookID
	f.hookID++
	f.rotated[id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.rotated, id)
	}
}

func (f *fakeIdentity) invalidate() {
	f.mu.Lock()
	f.token = ""
	var fns []func()
	for _, fn := range f.invalidated {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeIdentity) rotate(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
	f.fireRotated(token)
}

// fireRotated runs the rotation hooks without touching the current token,
// like a refresh that finishes after the session moved on.
func (f *fakeIdentity) fireRotated(token string) {
	f.mu.Lock()
	var fns []func(string)
	for _, fn := range f.rotated {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(token)
	}
}

/*************
 * metadata store
 *************/

type memMetadata struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func newMemMetadata() *memMetadata { return &memMetadata{values: map[string][]byte{}} }

func (m *memMetadata) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.values[key], nil
}

func (m *memMetadata) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memMetadata) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *memMetadata) value(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.values[key])
}

/*************
 * vault backend
 *************/

// fakeVault keeps entries per backend instance; it does not separate
// owners, tests switch identities explicitly.
type fakeVault struct {
	mu      sync.Mutex
	rows    map[string]*models.CredentialEntry
	seq     int
	now     time.Time
	listErr error
	pushErr error

	// called inside Push and List, before answering
	pushHook func()
	listHook func()

	calls map[string]int

	feed     chan []*models.CredentialEntry
	watching chan struct{}
}

func newFakeVault() *fakeVault {
	return &fakeVault{
		rows:     map[string]*models.CredentialEntry{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		calls:    map[string]int{},
		feed:     make(chan []*models.CredentialEntry),
		watching: make(chan struct{}, 16),
	}
}

func (f *fakeVault) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeVault) tick() time.Time {
	f.now = f.now.Add(time.Second)
	return f.now
}

func (f *fakeVault) snapshot() []*models.CredentialEntry {
	out := make([]*models.CredentialEntry, 0, len(f.rows))
	for _, e := range f.rows {
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeVault) List(ctx context.Context) ([]*models.CredentialEntry, error) {
	f.mu.Lock()
	f.calls["list"]++
	hook := f.listHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.snapshot(), nil
}

func (f *fakeVault) Get(ctx context.Context, id string) (*models.CredentialEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["get"]++
	e, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return e.Clone(), nil
}

func (f *fakeVault) Push(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error) {
	f.mu.Lock()
	f.calls["push"]++
	hook := f.pushHook
	f.mu.Unlock()
	if hook != nil {
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return nil, f.pushErr
	}
	f.seq++
	e := &models.CredentialEntry{
		ID:        fmt.Sprintf("c-%02d", f.seq),
		SiteName:  fields.SiteName,
		Username:  fields.Username,
		Secret:    fields.Secret,
		ColorTag:  common.ColorTags[0],
		CreatedAt: f.tick(),
	}
	f.rows[e.ID] = e
	return e.Clone(), nil
}

func (f *fakeVault) Update(ctx context.Context, id string, p models.CredentialPatch) (*models.CredentialEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["update"]++
	e, ok := f.rows[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if p.SiteName != nil {
		e.SiteName = *p.SiteName
	}
	if p.Username != nil {
		e.Username = *p.Username
	}
	if p.Secret != nil {
		e.Secret = *p.Secret
	}
	now := f.tick()
	e.UpdatedAt = &now
	return e.Clone(), nil
}

func (f *fakeVault) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["remove"]++
	if _, ok := f.rows[id]; !ok {
		return common.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

// Watch forwards whatever the test sends on feed.
func (f *fakeVault) Watch(ctx context.Context, fn func([]*models.CredentialEntry)) error {
	select {
	case f.watching <- struct{}{}:
	default:
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-f.feed:
			fn(snap)
		}
	}
}

func (f *fakeVault) Export(ctx context.Context, passphrase string) (string, time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["export"]++
	return "https://exports.example/" + passphrase, f.now.Add(15 * time.Minute), nil
}

/*************
 * identity source
 *************/

// fakeSource publishes identities to a bound store synchronously.
type fakeSource struct {
	fn func(*models.Identity)
}

func (s *fakeSource) Subscribe(fn func(*models.Identity)) func() {
	s.fn = fn
	return func() { s.fn = nil }
}

func (s *fakeSource) publish(id *models.Identity) {
	if s.fn != nil {
		s.fn(id)
	}
}
