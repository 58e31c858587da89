package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sethvargo/go-envconfig"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
	_ "golang.org/x/crypto/x509roots/fallback"
	_ "modernc.org/sqlite"

	"github.com/writtenhq/written/internal/api"
	"github.com/writtenhq/written/internal/identity"
	"github.com/writtenhq/written/internal/logger"
	"github.com/writtenhq/written/internal/migrations"
	wrsqlite "github.com/writtenhq/written/internal/sqlite"
	"github.com/writtenhq/written/internal/written"
)

type config struct {
	Database string `env:"DATABASE, required"`

	Port                 int    `env:"PORT, default=4444"`
	HTTPSCookies         bool   `env:"HTTPS_COOKIES, default=false"`
	FacebookClientID     string `env:"FACEBOOK_CLIENT_ID"`
	FacebookClientSecret string `env:"FACEBOOK_CLIENT_SECRET"`
	CookieHashKey        string `env:"COOKIE_HASH_KEY"`
	CookieBlockKey       string `env:"COOKIE_BLOCK_KEY"`
	CorsHeader           string `env:"CORS_HEADER, default=*"`
	SSORedirectURL       string `env:"SSO_REDIRECT_URL"`
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Parse the config
	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		log.Fatalf("error parsing config: %s", err)
	}

	l := slog.New(logger.NewContextHandler(slog.NewTextHandler(os.Stdout, nil)))
	slog.SetDefault(l)

	// Connect to the sqlite db
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?_txlock=immediate&_journal_mode=WAL&_busy_timeout=5000", cfg.Database))
	if err != nil {
		log.Fatalf("error opening database: %s", err)
	}
	defer dbx.Close()

	// Retry until the database is actually reachable
	if err := retry.Fibonacci(ctx, 1*time.Second, func(ctx context.Context) error {
		if err := dbx.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Fatalf("error pinging database: %s", err)
	}

	// Run all migrations
	if err := migrations.Run(dbx); err != nil {
		log.Fatalf("error running migrations: %s", err)
	}

	repo := wrsqlite.New(dbx)

	// Start the application
	fx.New(
		fx.Supply(
			api.ServerConfig{
				Port:                 cfg.Port,
				CookieHashKey:        []byte(cfg.CookieHashKey),
				CookieBlockKey:       []byte(cfg.CookieBlockKey),
				HttpsCookies:         cfg.HTTPSCookies,
				FacebookClientID:     cfg.FacebookClientID,
				FacebookClientSecret: cfg.FacebookClientSecret,
				CorsHeader:           cfg.CorsHeader,
				SSORedirectURL:       cfg.SSORedirectURL,
			},
			dbx,
			fx.Annotate(ctx, fx.As(new(context.Context))),
			fx.Annotate(repo, fx.As(new(written.Repository))),
			fx.Annotate(identity.NewFacebook(), fx.As(new(identity.Verifier))),
		),
		api.Module,
		fx.Invoke(func(*api.Server) {}), // Start the API server
	).Run()
}
