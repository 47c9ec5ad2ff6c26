package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/Skotchmaster/restoran/internal/config"
	"github.com/Skotchmaster/restoran/internal/db"
	"github.com/Skotchmaster/restoran/internal/handlers"
	"github.com/Skotchmaster/restoran/internal/hash"
	"github.com/Skotchmaster/restoran/internal/logging"
	authmw "github.com/Skotchmaster/restoran/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/restoran/internal/middleware/logging"
	"github.com/Skotchmaster/restoran/internal/middleware/metrics"
	"github.com/Skotchmaster/restoran/internal/mykafka"
	"github.com/Skotchmaster/restoran/internal/repo"
	"github.com/Skotchmaster/restoran/internal/service"
	"github.com/Skotchmaster/restoran/internal/tokens"
	httpserver "github.com/Skotchmaster/restoran/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	var (
		events service.EventPublisher = service.NopPublisher{}
		prod   *mykafka.Producer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_init_failed", "error", err)
			os.Exit(1)
		}
		events = prod
	}

	store := repo.New(gdb)
	tok := tokens.NewService(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authSvc := &service.AuthService{
		Repo:                   store,
		Tokens:                 tok,
		Hasher:                 hash.NewBcrypt(bcrypt.DefaultCost),
		Events:                 events,
		AllowAdminRegistration: cfg.AllowAdminRegistration,
	}
	if err := authSvc.SeedAdmin(logging.IntoContext(ctx, logger), cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("admin_seed_failed", "error", err)
		os.Exit(1)
	}

	carrier, err := authmw.ParseCarrier(cfg.AuthTransport)
	if err != nil {
		logger.Error("config_invalid", "error", err)
		os.Exit(1)
	}
	m := metrics.New(cfg.ServiceName)

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestID(),
		m.Middleware(),
		loggingmw.RequestLogger(logger),
		middleware.CORS(),
		middleware.BodyLimit("1M"),
		middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}),
	)

	httpserver.Register(e, &httpserver.Deps{
		DB:             gdb,
		Resolver:       &authmw.Resolver{Tokens: tok, Store: store},
		Carrier:        carrier,
		Metrics:        m,
		CookieSecure:   cfg.CookieSecure,
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc, Carrier: carrier, CookieSecure: cfg.CookieSecure},
		ProfileHandler: &handlers.ProfileHandler{Svc: &service.ProfileService{Repo: store}},
		CatalogHandler: &handlers.CatalogHandler{Svc: &service.CatalogService{Repo: store, Events: events}},
		ReviewHandler:  &handlers.ReviewHandler{Svc: &service.ReviewService{Repo: store, Events: events}},
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("http_server_started", "addr", srv.Addr, "auth_transport", string(carrier))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close_failed", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
