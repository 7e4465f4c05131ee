package grpc

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
	"github.com/dmitrijs2005/securevault/internal/server/models"
	"github.com/dmitrijs2005/securevault/internal/server/services"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type fakeUsers struct {
	sess *services.Session
	err  error

	signedOut []string
}

func (f *fakeUsers) SignUp(ctx context.Context, email, password, displayName string) (*services.Session, error) {
	return f.sess, f.err
}
func (f *fakeUsers) SignIn(ctx context.Context, email, password string) (*services.Session, error) {
	return f.sess, f.err
}
func (f *fakeUsers) RefreshToken(ctx context.Context, refreshToken string) (*services.Session, error) {
	return f.sess, f.err
}
func (f *fakeUsers) SignOut(ctx context.Context, refreshToken string) error {
	f.signedOut = append(f.signedOut, refreshToken)
	return f.err
}

// fakeVault keeps plaintext credentials per user in memory.
type fakeVault struct {
	mu      sync.Mutex
	byUser  map[string]map[string]*models.PlainCredential
	seq     int
	err     error
	patches []models.CredentialPatch
}

func newFakeVault() *fakeVault {
	return &fakeVault{byUser: make(map[string]map[string]*models.PlainCredential)}
}

func (f *fakeVault) List(ctx context.Context, userID string) ([]*models.PlainCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*models.PlainCredential, 0)
	for _, c := range f.byUser[userID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeVault) Get(ctx context.Context, userID, id string) (*models.PlainCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byUser[userID][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}

func (f *fakeVault) Push(ctx context.Context, userID, siteName, username, secret string) (*models.PlainCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.byUser[userID] == nil {
		f.byUser[userID] = make(map[string]*models.PlainCredential)
	}
	f.seq++
	c := &models.PlainCredential{
		ID:        string(rune('a' + f.seq - 1)),
		SiteName:  siteName,
		Username:  username,
		Secret:    secret,
		ColorTag:  common.ColorTags[0],
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.byUser[userID][c.ID] = c
	return c, nil
}

func (f *fakeVault) Update(ctx context.Context, userID, id string, patch models.CredentialPatch) (*models.PlainCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patches = append(f.patches, patch)
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.byUser[userID][id]
	if !ok {
		return nil, common.ErrNotFound
	}
	if patch.SiteName != nil {
		c.SiteName = *patch.SiteName
	}
	if patch.Username != nil {
		c.Username = *patch.Username
	}
	if patch.Secret != nil {
		c.Secret = *patch.Secret
	}
	return c, nil
}

func (f *fakeVault) Remove(ctx context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byUser[userID][id]; !ok {
		return common.ErrNotFound
	}
	delete(f.byUser[userID], id)
	return nil
}

type fakeExports struct {
	url     string
	expires time.Time
	err     error

	gotUser, gotPassphrase string
}

func (f *fakeExports) Export(ctx context.Context, userID, passphrase string) (string, time.Time, error) {
	f.gotUser, f.gotPassphrase = userID, passphrase
	return f.url, f.expires, f.err
}
