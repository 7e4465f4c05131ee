package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/securevault/internal/client/models"
	"github.com/dmitrijs2005/securevault/internal/logging"
)

// Reconnect backoff of the watch stream.
var (
	watchMinBackoff = 500 * time.Millisecond
	watchMaxBackoff = 30 * time.Second
)

type watcher interface {
	Watch(ctx context.Context, fn func([]*models.CredentialEntry)) error
}

// SyncListener forwards server snapshots of one scope to apply. Receiving
// and applying run in separate goroutines joined by a one-slot mailbox:
// a slow apply only ever sees the newest snapshot.
type SyncListener struct {
	watcher watcher
	apply   func(gen uint64, entries []*models.CredentialEntry)
	logger  logging.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewSyncListener(w watcher, apply func(uint64, []*models.CredentialEntry), l logging.Logger) *SyncListener {
	return &SyncListener{
		watcher:    w,
		apply:      apply,
		logger:     l.With("module", "sync_listener"),
		minBackoff: watchMinBackoff,
		maxBackoff: watchMaxBackoff,
	}
}

// Run blocks until ctx is done. Every snapshot is applied tagged with gen.
func (l *SyncListener) Run(ctx context.Context, gen uint64) {
	mailbox := make(chan []*models.CredentialEntry, 1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		l.receive(ctx, mailbox)
	}()

	for {
		select {
		case <-ctx.Done():
			<-done
			return
		case entries := <-mailbox:
			l.apply(gen, entries)
		}
	}
}

func (l *SyncListener) receive(ctx context.Context, mailbox chan []*models.CredentialEntry) {
	backoff := l.minBackoff

	for {
		received := false
		err := l.watcher.Watch(ctx, func(entries []*models.CredentialEntry) {
			received = true
			offer(mailbox, entries)
		})
		if ctx.Err() != nil {
			return
		}
		if received {
			backoff = l.minBackoff
		}

		l.logger.Warn(ctx, "watch stream ended, reconnecting", "error", err, "backoff", backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		backoff = min(backoff*2, l.maxBackoff)
	}
}

// offer replaces whatever is waiting in the mailbox. There is a single
// sender, so the send after draining never blocks.
func offer(mailbox chan []*models.CredentialEntry, entries []*models.CredentialEntry) {
	select {
	case <-mailbox:
	default:
	}
	mailbox <- entries
}
