package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/securevault/internal/dbx"
	"github.com/dmitrijs2005/securevault/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Channel is the PostgreSQL notification channel carrying user ids.
const Channel = "vault_changes"

// PGNotifier publishes change signals through pg_notify so that every
// server instance sharing the database hears them.
type PGNotifier struct {
	db dbx.DBTX
}

func NewPGNotifier(db dbx.DBTX) *PGNotifier {
	return &PGNotifier{db: db}
}

func (n *PGNotifier) Notify(ctx context.Context, userID string) error {
	if _, err := n.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, Channel, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type listenConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

// pgConnect is a seam for tests.
var pgConnect = func(ctx context.Context, dsn string) (listenConn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Listener holds a dedicated LISTEN connection and republishes every
// notification into a Hub.
type Listener struct {
	dsn        string
	hub        *Hub
	logger     logging.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewListener(dsn string, hub *Hub, l logging.Logger) *Listener {
	return &Listener{
		dsn:        dsn,
		hub:        hub,
		logger:     l.With("module", "pg_listener"),
		minBackoff: 500 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
}

// Run listens until ctx is cancelled, reconnecting with exponential backoff.
// Notifications sent while no connection was listening are lost, so every
// successful LISTEN wakes all watchers to re-read their vaults.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.minBackoff
	for {
		err := l.listen(ctx, func() {
			backoff = l.minBackoff
			l.hub.PublishAll()
		})
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn(ctx, "listen connection lost", "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, l.maxBackoff)
	}
}

func (l *Listener) listen(ctx context.Context, ready func()) error {
	conn, err := pgConnect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.Info(ctx, "listening for vault changes", "channel", Channel)
	ready()

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		if n.Channel == Channel && n.Payload != "" {
			l.hub.Publish(n.Payload)
		}
	}
}
