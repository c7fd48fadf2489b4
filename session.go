package questnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/questnotify/pkg/async"
	"github.com/dmitrymomot/questnotify/pkg/broadcast"
	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/notifications"
	"github.com/dmitrymomot/questnotify/pkg/realtime"
	"github.com/dmitrymomot/questnotify/pkg/token"
)

// View selects which domain read-state operations apply to.
type View string

const (
	ViewUser  View = "user"
	ViewAdmin View = "admin"
)

// Session ties one socket connection to the user and admin notification
// syncers. It refreshes after every successful connect and after every
// pushed notification, and republishes what happens as Events.
type Session struct {
	cfg     Config
	logger  *slog.Logger
	manager *realtime.Manager
	user    *notifications.Syncer
	admin   *notifications.Syncer
	events  *broadcast.Broadcaster[Event]

	mu   sync.RWMutex
	view View

	ctx     context.Context
	cancel  context.CancelFunc
	pending sync.WaitGroup
	stop    sync.Once
}

// New builds a session. Nothing is connected until Start.
func New(cfg Config, tokens token.Provider, opts ...Option) (*Session, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	domains := o.domains
	if domains == nil {
		d, err := notifications.LoadDomains(cfg.DomainsFile)
		if err != nil {
			return nil, fmt.Errorf("questnotify: %w", err)
		}
		domains = &d
	}

	api := o.api
	if api == nil {
		clientOpts := []notifications.ClientOption{notifications.WithClientLogger(o.logger)}
		if o.httpClient != nil {
			clientOpts = append(clientOpts, notifications.WithHTTPClient(o.httpClient))
		} else {
			clientOpts = append(clientOpts, notifications.WithTimeout(cfg.RequestTimeout))
		}
		api = notifications.NewClient(cfg.APIURL, tokens, clientOpts...)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:    cfg,
		logger: o.logger.With(logger.Component("session")),
		events: broadcast.New[Event](cfg.EventBuffer),
		view:   ViewUser,
		ctx:    ctx,
		cancel: cancel,
	}

	syncOpts := []notifications.SyncerOption{
		notifications.WithSyncerLogger(o.logger),
		notifications.OnChange(s.synced),
	}
	if cfg.ConfirmedBulkMark {
		syncOpts = append(syncOpts, notifications.WithConfirmedBulkMark())
	}
	s.user = notifications.NewSyncer(domains.User, api, syncOpts...)
	if cfg.Admin {
		s.admin = notifications.NewSyncer(domains.Admin, api, syncOpts...)
	}

	s.manager = realtime.NewManager(cfg.SocketURL, tokens,
		realtime.WithAutoReconnect(cfg.AutoReconnect),
		realtime.WithReconnectInterval(cfg.ReconnectInterval),
		realtime.WithMaxReconnectAttempts(cfg.MaxReconnectAttempts),
		realtime.WithBackoff(o.backoff),
		realtime.WithDialer(o.dialer),
		realtime.WithLogger(o.logger),
		realtime.OnConnect(s.connected),
		realtime.OnDisconnect(s.disconnected),
		realtime.OnError(s.failed),
		realtime.OnNotification(s.notified),
	)
	return s, nil
}

// Start connects the socket. The initial refresh runs once the connection
// opens.
func (s *Session) Start(ctx context.Context) error {
	return s.manager.Connect(ctx)
}

// Stop closes the socket, waits for in-flight refreshes and closes every
// subscription. A stopped session cannot be restarted.
func (s *Session) Stop() error {
	var err error
	s.stop.Do(func() {
		err = s.manager.Close()
		s.cancel()
		s.pending.Wait()
		_ = s.events.Close()
	})
	return err
}

// Disconnect closes the socket but keeps the session usable; Start
// reconnects.
func (s *Session) Disconnect() {
	s.manager.Disconnect()
}

// Status reports the socket state.
func (s *Session) Status() realtime.Status {
	return s.manager.Status()
}

// Subscribe returns a stream of session events that ends when ctx is done
// or the session stops. Slow subscribers miss events.
func (s *Session) Subscribe(ctx context.Context) *broadcast.Subscription[Event] {
	return s.events.Subscribe(ctx)
}

// User returns the user-domain syncer.
func (s *Session) User() *notifications.Syncer { return s.user }

// Admin returns the admin-domain syncer, or nil when Config.Admin is off.
func (s *Session) Admin() *notifications.Syncer { return s.admin }

// Refresh re-fetches every enabled domain concurrently.
func (s *Session) Refresh(ctx context.Context) error {
	syncers := []*notifications.Syncer{s.user}
	if s.admin != nil {
		syncers = append(syncers, s.admin)
	}

	outcomes := async.Map(ctx, syncers, func(ctx context.Context, sy *notifications.Syncer) (struct{}, error) {
		if err := sy.Refresh(ctx); err != nil {
			return struct{}{}, fmt.Errorf("%s: %w", sy.Domain().Name, err)
		}
		return struct{}{}, nil
	})

	errs := make([]error, 0, len(outcomes))
	for _, o := range outcomes {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// SetView switches the domain MarkAsRead and MarkAllAsRead act on.
func (s *Session) SetView(v View) error {
	switch v {
	case ViewUser:
	case ViewAdmin:
		if s.admin == nil {
			return ErrAdminDisabled
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownView, v)
	}

	s.mu.Lock()
	s.view = v
	s.mu.Unlock()
	return nil
}

// View returns the current view.
func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// MarkAsRead marks id seen in the domain of the current view.
func (s *Session) MarkAsRead(ctx context.Context, id int64) error {
	err := s.current().MarkAsRead(ctx, id)
	if err != nil {
		s.publishError(err)
	}
	return err
}

// MarkAllAsRead marks every unseen notification of the current view.
func (s *Session) MarkAllAsRead(ctx context.Context) []notifications.Result {
	results := s.current().MarkAllAsRead(ctx)
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("notification %d: %w", r.ID, r.Err))
		}
	}
	if len(errs) > 0 {
		s.publishError(errors.Join(errs...))
	}
	return results
}

func (s *Session) current() *notifications.Syncer {
	if s.View() == ViewAdmin && s.admin != nil {
		return s.admin
	}
	return s.user
}

// refreshAsync runs a refresh off the connection goroutine.
func (s *Session) refreshAsync(reason string) {
	if s.ctx.Err() != nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.Refresh(s.ctx); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("refresh failed", slog.String("trigger", reason), logger.Error(err))
			s.publishError(err)
		}
	}()
}

func (s *Session) connected() {
	s.events.Publish(newEvent(EventConnected))
	s.refreshAsync("connect")
}

func (s *Session) disconnected(code int, reason string) {
	ev := newEvent(EventDisconnected)
	ev.Code, ev.Reason = code, reason
	s.events.Publish(ev)
}

func (s *Session) failed(err error) {
	s.publishError(err)
}

func (s *Session) notified(_ context.Context, n realtime.NotificationEvent) {
	ev := newEvent(EventNotification)
	ev.Notification = n
	s.events.Publish(ev)
	s.refreshAsync("push")
}

func (s *Session) synced(domain string, st notifications.State) {
	ev := newEvent(EventSynced)
	ev.Domain, ev.State = domain, st
	s.events.Publish(ev)
}

func (s *Session) publishError(err error) {
	ev := newEvent(EventError)
	ev.Err = err
	s.events.Publish(ev)
}
