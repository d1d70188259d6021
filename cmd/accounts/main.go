package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	adapthttp "accounts/internal/adapter/http"
	"accounts/internal/adapter/memory"
	"accounts/internal/adapter/postgres"
	"accounts/internal/app"
	"accounts/internal/domain"

	"github.com/caarlos0/env/v11"
)

type config struct {
	Addr          string        `env:"ADDR" envDefault:":8080"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	WebDir        string        `env:"WEB_DIR" envDefault:"web"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SecureCookies bool          `env:"SECURE_COOKIES"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}

	var users domain.UserRepository
	var sessions domain.SessionRepository

	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open: %v", err)
		}
		defer func() { _ = db.Close() }()
		users = db
		sessions = postgres.NewSessionRepo(db)
	} else {
		log.Print("DATABASE_URL not set, using in-memory store")
		mem := memory.New()
		users = mem
		sessions = mem.NewSessionRepo()
	}

	authSvc := app.NewAuthService(users, sessions, cfg.SessionTTL)

	go sweepExpiredSessions(sessions)

	srv := adapthttp.New(authSvc, cfg.WebDir)
	if cfg.SecureCookies {
		srv = srv.WithSecureCookies()
	}

	log.Printf("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}

func sweepExpiredSessions(sessions domain.SessionRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := sessions.DeleteExpired(ctx); err != nil {
			log.Printf("session sweep: %v", err)
		}
		cancel()
	}
}
