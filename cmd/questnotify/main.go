package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dmitrymomot/questnotify"
	"github.com/dmitrymomot/questnotify/pkg/config"
	"github.com/dmitrymomot/questnotify/pkg/logger"
	"github.com/dmitrymomot/questnotify/pkg/notifications"
	"github.com/dmitrymomot/questnotify/pkg/token"
)

type appConfig struct {
	questnotify.Config

	Env        string `env:"APP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOG_LEVEL"`
	TokenEnv   string `env:"QUESTNOTIFY_TOKEN_ENV" envDefault:"QUESTNOTIFY_TOKEN"`
	KeyringDir string `env:"QUESTNOTIFY_KEYRING_DIR"`
	KeyringKey string `env:"QUESTNOTIFY_KEYRING_KEY" envDefault:"access_token"`
}

func main() {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	opts := []logger.Option{logger.WithEnvironment(cfg.Env, "questnotify")}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	cmd := "run"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "run":
		err = run(cfg, log)
	case "login":
		err = login(cfg)
	case "logout":
		err = logout(cfg)
	default:
		err = fmt.Errorf("unknown command %q (want run, login or logout)", cmd)
	}
	if err != nil {
		log.Error("questnotify failed", logger.Error(err))
		os.Exit(1)
	}
}

func keyringProvider(cfg appConfig) (*token.KeyringProvider, error) {
	ring, err := token.OpenKeyring(token.DefaultService, cfg.KeyringDir)
	if err != nil {
		return nil, err
	}
	return token.NewKeyringProvider(ring, cfg.KeyringKey), nil
}

func run(cfg appConfig, log *slog.Logger) error {
	providers := []token.Provider{token.Env(cfg.TokenEnv)}
	if kp, err := keyringProvider(cfg); err != nil {
		log.Warn("keyring unavailable", logger.Error(err))
	} else {
		providers = append(providers, kp)
	}

	session, err := questnotify.New(cfg.Config, token.Chain(providers...), questnotify.WithLogger(log))
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Stop(); err != nil {
			log.Error("stopping session", logger.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	events := session.Subscribe(ctx)
	if err := session.Start(ctx); err != nil {
		return err
	}
	log.Info("questnotify running", slog.Bool("admin", cfg.Admin), slog.String("socket", cfg.SocketURL))

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case ev, ok := <-events.C():
			if !ok {
				return nil
			}
			logEvent(log, session, ev)
		}
	}
}

func logEvent(log *slog.Logger, s *questnotify.Session, ev questnotify.Event) {
	switch ev.Kind {
	case questnotify.EventConnected:
		log.Info("connected")
	case questnotify.EventDisconnected:
		log.Info("disconnected", logger.CloseCode(ev.Code), slog.String("reason", ev.Reason))
	case questnotify.EventNotification:
		log.Info("notification pushed",
			logger.UserID(ev.Notification.UserID),
			slog.String("notif_type", ev.Notification.NotifType),
		)
	case questnotify.EventSynced:
		sy := s.User()
		if ev.Domain == notifications.DomainAdmin && s.Admin() != nil {
			sy = s.Admin()
		}
		for _, n := range ev.State.Notifications {
			if n.Seen {
				continue
			}
			c := sy.Describe(n)
			log.Info(c.Title, logger.Domain(ev.Domain), logger.NotificationID(n.ID), slog.String("message", c.Message))
		}
		log.Info("synced", logger.Domain(ev.Domain), slog.Int("unread", ev.State.Unread))
	case questnotify.EventError:
		if errors.Is(ev.Err, token.ErrNoToken) {
			log.Warn("no access token; run `questnotify login`")
			return
		}
		log.Warn("sync error", logger.Error(ev.Err))
	}
}

func login(cfg appConfig) error {
	kp, err := keyringProvider(cfg)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stderr, "access token: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading token: %w", err)
	}
	tok := strings.TrimSpace(line)
	if tok == "" {
		return token.ErrNoToken
	}
	return kp.Store(tok)
}

func logout(cfg appConfig) error {
	kp, err := keyringProvider(cfg)
	if err != nil {
		return err
	}
	return kp.Forget()
}
