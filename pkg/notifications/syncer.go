package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/questnotify/pkg/async"
	"github.com/dmitrymomot/questnotify/pkg/logger"
)

// Result is the outcome of one mark-seen request issued by MarkAllAsRead.
type Result struct {
	ID  int64
	Err error
}

// Syncer keeps one domain's Store in line with the REST API and applies
// read-state changes. Create one Syncer per domain.
type Syncer struct {
	domain        Domain
	api           API
	store         *Store
	logger        *slog.Logger
	confirmedBulk bool
	onChange      func(domain string, st State)
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithSyncerLogger sets the logger for the Syncer.
func WithSyncerLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore shares an existing store.
func WithStore(st *Store) SyncerOption {
	return func(s *Syncer) {
		if st != nil {
			s.store = st
		}
	}
}

// WithConfirmedBulkMark makes MarkAllAsRead apply only the items the server
// confirmed. By default every unseen item is marked and the counter zeroed
// once all requests have finished, whatever their outcome.
func WithConfirmedBulkMark() SyncerOption {
	return func(s *Syncer) { s.confirmedBulk = true }
}

// OnChange registers fn to be called with a snapshot after every local
// state change.
func OnChange(fn func(domain string, st State)) SyncerOption {
	return func(s *Syncer) { s.onChange = fn }
}

// NewSyncer creates a syncer for domain d.
func NewSyncer(d Domain, api API, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		domain: d,
		api:    api,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = NewStore()
	}
	s.logger = s.logger.With(logger.Component("notifications"), logger.Domain(d.Name))
	return s
}

// Domain returns the descriptor the syncer works on.
func (s *Syncer) Domain() Domain { return s.domain }

// Store returns the underlying cache.
func (s *Syncer) Store() *Store { return s.store }

// Snapshot returns a copy of the cached state.
func (s *Syncer) Snapshot() State { return s.store.Snapshot() }

// Describe returns the display content for n in this domain.
func (s *Syncer) Describe(n Notification) Content { return s.domain.Describe(n) }

// Refresh fetches the list and the unread counter concurrently. Each result
// replaces its part of the cache as soon as it succeeds; a failed fetch
// leaves the previous value in place. The returned error joins both
// failures.
func (s *Syncer) Refresh(ctx context.Context) error {
	list := async.Async(ctx, s.domain, func(ctx context.Context, d Domain) (int, error) {
		items, err := s.api.List(ctx, d)
		if err != nil {
			return 0, fmt.Errorf("list: %w", err)
		}
		s.store.Replace(items)
		return len(items), nil
	})
	count := async.Async(ctx, s.domain, func(ctx context.Context, d Domain) (int, error) {
		n, err := s.api.UnreadCount(ctx, d)
		if err != nil {
			return 0, fmt.Errorf("unread count: %w", err)
		}
		s.store.SetUnread(n)
		return n, nil
	})

	outcomes := async.Settle(list, count)
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	if len(errs) < len(outcomes) {
		s.changed()
	}

	err := errors.Join(errs...)
	if err != nil {
		s.logger.WarnContext(ctx, "refresh failed", logger.Error(err))
		return err
	}
	s.logger.DebugContext(ctx, "refreshed",
		slog.Int("notifications", outcomes[0].Value),
		slog.Int("unread", outcomes[1].Value),
	)
	return nil
}

// MarkAsRead marks id seen on the server and, only once the server
// confirms, in the cache. Marking a record the cache already shows as seen
// succeeds without a request. Failures leave the cache untouched and are
// not retried.
func (s *Syncer) MarkAsRead(ctx context.Context, id int64) error {
	if n, ok := s.store.Get(id); ok && n.Seen {
		return nil
	}

	if err := s.api.MarkSeen(ctx, s.domain, id); err != nil {
		s.logger.ErrorContext(ctx, "mark as read failed", logger.NotificationID(id), logger.Error(err))
		return err
	}
	s.store.MarkSeen(id)
	s.changed()
	return nil
}

// MarkAllAsRead issues one mark-seen request per unseen record concurrently
// and waits for all of them. By default the cache then reports everything
// seen with a zero counter, even when some requests failed; the per-item
// results are returned so callers can surface failures.
func (s *Syncer) MarkAllAsRead(ctx context.Context) []Result {
	ids := s.store.Unseen()
	if len(ids) == 0 {
		if s.store.Unread() > 0 && !s.confirmedBulk {
			s.store.MarkAllSeen()
			s.changed()
		}
		return nil
	}

	outcomes := async.Map(ctx, ids, func(ctx context.Context, id int64) (int64, error) {
		return id, s.api.MarkSeen(ctx, s.domain, id)
	})

	results := make([]Result, len(ids))
	failed := 0
	for i, o := range outcomes {
		results[i] = Result{ID: ids[i], Err: o.Err}
		switch {
		case o.Err != nil:
			failed++
			s.logger.ErrorContext(ctx, "mark as read failed", logger.NotificationID(ids[i]), logger.Error(o.Err))
		case s.confirmedBulk:
			s.store.MarkSeen(ids[i])
		}
	}
	if !s.confirmedBulk {
		s.store.MarkAllSeen()
	}
	if failed > 0 {
		s.logger.WarnContext(ctx, "mark all as read finished with failures",
			slog.Int("total", len(ids)),
			slog.Int("failed", failed),
		)
	}
	s.changed()
	return results
}

func (s *Syncer) changed() {
	if s.onChange != nil {
		s.onChange(s.domain.Name, s.store.Snapshot())
	}
}
