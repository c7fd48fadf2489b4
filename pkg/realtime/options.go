package realtime

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/questnotify/pkg/backoff"
)

const (
	DefaultReconnectInterval    = 3 * time.Second
	DefaultMaxReconnectAttempts = 5
	defaultDialTimeout          = 15 * time.Second
)

// Close reasons sent by the client.
const (
	ReasonDisconnect = "client disconnect"
	ReasonUnmount    = "component unmount"
)

type options struct {
	autoReconnect        bool
	reconnectInterval    time.Duration
	maxReconnectAttempts int
	backoff              backoff.Strategy
	dialTimeout          time.Duration
	dialer               Dialer
	router               *Router
	logger               *slog.Logger

	onNotification Handler
	onError        func(err error)
	onConnect      func()
	onDisconnect   func(code int, reason string)
}

func defaultOptions() options {
	return options{
		autoReconnect:        true,
		reconnectInterval:    DefaultReconnectInterval,
		maxReconnectAttempts: DefaultMaxReconnectAttempts,
		dialTimeout:          defaultDialTimeout,
		dialer:               WebSocketDialer{},
		logger:               slog.Default(),
	}
}

// Option configures a Manager.
type Option func(*options)

// WithAutoReconnect enables or disables the reconnect loop. Enabled by default.
func WithAutoReconnect(enabled bool) Option {
	return func(o *options) { o.autoReconnect = enabled }
}

// WithReconnectInterval sets the fixed delay between reconnect attempts.
// Non-positive values are ignored.
func WithReconnectInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.reconnectInterval = d
		}
	}
}

// WithMaxReconnectAttempts sets the reconnect ceiling. Zero disables retries
// while keeping the exhausted error state; negative values are ignored.
func WithMaxReconnectAttempts(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxReconnectAttempts = n
		}
	}
}

// WithBackoff replaces the fixed reconnect interval with a strategy.
func WithBackoff(s backoff.Strategy) Option {
	return func(o *options) { o.backoff = s }
}

// WithDialTimeout bounds a single dial attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dialTimeout = d
		}
	}
}

// WithDialer replaces the websocket dialer, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithRouter shares a router instead of creating a private one.
func WithRouter(r *Router) Option {
	return func(o *options) { o.router = r }
}

// WithLogger sets the logger for the Manager.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// OnNotification subscribes fn to routed notification events.
func OnNotification(fn Handler) Option {
	return func(o *options) { o.onNotification = fn }
}

// OnError is called for transport errors and for the terminal
// ErrMaxReconnectAttempts condition.
func OnError(fn func(err error)) Option {
	return func(o *options) { o.onError = fn }
}

// OnConnect is called after every successful handshake.
func OnConnect(fn func()) Option {
	return func(o *options) { o.onConnect = fn }
}

// OnDisconnect is called with the close code and reason whenever an open
// or pending connection ends.
func OnDisconnect(fn func(code int, reason string)) Option {
	return func(o *options) { o.onDisconnect = fn }
}
