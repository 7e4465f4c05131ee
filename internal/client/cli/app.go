package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/client"
	"github.com/dmitrijs2005/securevault/internal/client/config"
	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/securevault/internal/client/services"
	"github.com/dmitrijs2005/securevault/internal/common"
	"github.com/dmitrijs2005/securevault/internal/logging"
)

// startupTimeout bounds session resume and the first ping.
var startupTimeout = 15 * time.Second

type sessionAPI interface {
	Start(ctx context.Context) error
	SignIn(ctx context.Context, email, secret string) (*models.Identity, error)
	SignUp(ctx context.Context, email, secret, displayName string) (*models.Identity, error)
	SignOut(ctx context.Context)
	CurrentIdentity() *models.Identity
}

type vaultAPI interface {
	Entries() []*models.CredentialEntry
	Search(query string) []*models.CredentialEntry
	Get(id string) (*models.CredentialEntry, error)
	Create(ctx context.Context, fields models.EntryFields) (*models.CredentialEntry, error)
	Update(ctx context.Context, id string, patch models.CredentialPatch) (*models.CredentialEntry, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, passphrase string) (string, time.Time, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	backend pinger
	session sessionAPI
	store   vaultAPI
	editor  *services.EntryEditor
	reader  *bufio.Reader
	out     io.Writer

	closers []func()
}

func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	l := logging.NewText(os.Stderr, level)

	db, err := client.InitDatabase(ctx, c.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	backend, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout, l)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error creating grpc client: %w", err)
	}

	session := services.NewSessionManager(backend, metadata.NewSQLiteRepository(db), l)
	store := services.NewVaultStore(backend, l)
	store.Bind(session)

	a := &App{
		config:  c,
		logger:  l.With("module", "cli"),
		db:      db,
		backend: backend,
		session: session,
		store:   store,
		editor:  services.NewEntryEditor(store),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
	}
	// reverse order of construction
	a.closers = []func(){
		store.Close,
		session.Close,
		func() { _ = backend.Close() },
		func() { _ = db.Close() },
	}
	return a, nil
}

func (a *App) Close() {
	for _, fn := range a.closers {
		fn()
	}
}

// Run resumes the persisted session and blocks in the REPL until the user
// exits or stdin ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to SecureVault (type 'help' for commands)")

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	if err := a.backend.Ping(startCtx); err != nil {
		a.logger.Warn(ctx, "server ping failed", "addr", a.config.ServerEndpointAddr, "error", err)
		fmt.Fprintln(a.out, "Server is not reachable right now.")
	}
	if err := a.session.Start(startCtx); err != nil {
		a.report(ctx, err)
	}
	cancel()

	if id := a.session.CurrentIdentity(); id != nil {
		fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	}

	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session.CurrentIdentity() != nil
}

func (a *App) status() string {
	if id := a.session.CurrentIdentity(); id != nil {
		return id.Email
	}
	return "signed out"
}

// report prints the user-facing text of err. Errors without one (a stale
// scope) are only logged.
func (a *App) report(ctx context.Context, err error) {
	a.logger.Debug(ctx, "command failed", "error", err)
	if msg := common.UserMessage(err); msg != "" {
		fmt.Fprintln(a.out, msg)
	}
}
