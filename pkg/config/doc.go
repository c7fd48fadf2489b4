// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for optional .env files and
// github.com/caarlos0/env/v11 for struct-tag driven parsing. Load caches the
// parsed value per type for the lifetime of the process; Parse always reads
// the current environment and is what tests and short-lived tools use.
//
//	type Config struct {
//		WebSocketURL      string        `env:"QUESTNOTIFY_WS_URL,required"`
//		ReconnectInterval time.Duration `env:"QUESTNOTIFY_RECONNECT_INTERVAL" envDefault:"3s"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
package config
