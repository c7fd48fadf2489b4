package questnotify

import (
	"time"

	"github.com/dmitrymomot/questnotify/pkg/realtime"
)

// Config holds session settings. Load it with config.Load.
type Config struct {
	APIURL    string `env:"QUESTNOTIFY_API_URL,required"`
	SocketURL string `env:"QUESTNOTIFY_WS_URL,required"`

	// Admin enables the admin notification domain.
	Admin bool `env:"QUESTNOTIFY_ADMIN" envDefault:"false"`

	AutoReconnect        bool          `env:"QUESTNOTIFY_AUTO_RECONNECT" envDefault:"true"`
	ReconnectInterval    time.Duration `env:"QUESTNOTIFY_RECONNECT_INTERVAL" envDefault:"3s"`
	MaxReconnectAttempts int           `env:"QUESTNOTIFY_MAX_RECONNECT_ATTEMPTS" envDefault:"5"`
	RequestTimeout       time.Duration `env:"QUESTNOTIFY_REQUEST_TIMEOUT" envDefault:"10s"`

	DomainsFile       string `env:"QUESTNOTIFY_DOMAINS_FILE"`
	ConfirmedBulkMark bool   `env:"QUESTNOTIFY_CONFIRMED_BULK_MARK" envDefault:"false"`
	EventBuffer       int    `env:"QUESTNOTIFY_EVENT_BUFFER" envDefault:"32"`
}

// DefaultConfig returns a Config with the same defaults as the env tags.
func DefaultConfig(apiURL, socketURL string) Config {
	return Config{
		APIURL:               apiURL,
		SocketURL:            socketURL,
		AutoReconnect:        true,
		ReconnectInterval:    realtime.DefaultReconnectInterval,
		MaxReconnectAttempts: realtime.DefaultMaxReconnectAttempts,
		RequestTimeout:       10 * time.Second,
		EventBuffer:          32,
	}
}
