package questnotify

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/questnotify/pkg/backoff"
	"github.com/dmitrymomot/questnotify/pkg/notifications"
	"github.com/dmitrymomot/questnotify/pkg/realtime"
)

type options struct {
	logger     *slog.Logger
	dialer     realtime.Dialer
	api        notifications.API
	domains    *notifications.Domains
	httpClient *http.Client
	backoff    backoff.Strategy
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger for the Session and everything it creates.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithDialer replaces the websocket dialer.
func WithDialer(d realtime.Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithAPI replaces the REST client.
func WithAPI(api notifications.API) Option {
	return func(o *options) { o.api = api }
}

// WithDomains sets the domain descriptors instead of reading
// Config.DomainsFile.
func WithDomains(d notifications.Domains) Option {
	return func(o *options) { o.domains = &d }
}

// WithHTTPClient sets the HTTP client used by the default REST client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithBackoff replaces the fixed reconnect interval.
func WithBackoff(s backoff.Strategy) Option {
	return func(o *options) { o.backoff = s }
}
