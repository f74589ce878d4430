package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/docshelf/internal/config"
	"github.com/Skotchmaster/docshelf/internal/db"
	"github.com/Skotchmaster/docshelf/internal/events"
	"github.com/Skotchmaster/docshelf/internal/httpserver"
	"github.com/Skotchmaster/docshelf/internal/logging"
	"github.com/Skotchmaster/docshelf/internal/metrics"
	"github.com/Skotchmaster/docshelf/internal/repo"
	"github.com/Skotchmaster/docshelf/internal/search"
	"github.com/Skotchmaster/docshelf/internal/service"
	"github.com/Skotchmaster/docshelf/internal/session"
	"github.com/Skotchmaster/docshelf/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	initCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	gdb, err := db.Open(initCtx, cfg.DB.URL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		cancel()
		log.Fatalf("db handle: %v", err)
	}
	if cfg.DB.AutoMigrate {
		if err := db.Migrate(initCtx, sqlDB); err != nil {
			cancel()
			log.Fatalf("migrate: %v", err)
		}
	}

	backend, staticDir, err := newBackend(initCtx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	index, err := search.New(search.Config{
		URL:      cfg.Elastic.URL,
		User:     cfg.Elastic.User,
		Password: cfg.Elastic.Password,
		Index:    cfg.Elastic.Index,
	})
	if err != nil {
		log.Fatalf("search: %v", err)
	}

	prod := events.New(cfg.Kafka.Brokers)
	m := metrics.New()
	r := repo.New(gdb)

	sessions := session.NewManager(r, []byte(cfg.Session.Secret),
		session.WithTTL(cfg.Session.TTL),
		session.WithCookieName(cfg.Session.CookieName),
	)

	e := httpserver.New(&httpserver.Deps{
		Logger:   logger,
		Metrics:  m,
		Sessions: sessions,
		Auth: &httpserver.AuthHTTP{
			Svc:          &service.AuthService{Users: r, Sessions: sessions, Events: prod},
			Sessions:     sessions,
			CookieSecure: cfg.Session.CookieSecure,
		},
		Documents: &httpserver.DocumentsHTTP{
			Svc: &service.DocumentService{Docs: r, Backend: backend, Events: prod, Index: index, Metrics: m},
		},
		Upload: &httpserver.UploadHTTP{
			Svc: &service.UploadService{
				Docs:     r,
				Backend:  backend,
				Events:   prod,
				Index:    index,
				Metrics:  m,
				MaxBytes: cfg.Upload.MaxBytes,
			},
		},
		Health:         &httpserver.HealthHTTP{DB: sqlDB},
		CookieSecure:   cfg.Session.CookieSecure,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		StaticDir:      staticDir,
		StaticPath:     cfg.Storage.PublicPath,
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           e,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepSessions(ctx, logger, sessions, cfg.Session.SweepEvery)

	go func() {
		logger.Info("http_listen", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}

// newBackend returns the configured blob store and, for local storage, the
// directory to serve under the public path.
func newBackend(ctx context.Context, c config.Storage) (storage.Backend, string, error) {
	if c.Backend == config.StorageS3 {
		s3, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			Endpoint:  c.S3Endpoint,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			PublicURL: c.S3PublicURL,
			PathStyle: c.S3PathStyle,
		})
		return s3, "", err
	}
	local, err := storage.NewLocal(c.LocalDir, c.PublicPath)
	if err != nil {
		return nil, "", err
	}
	return local, c.LocalDir, nil
}

func sweepSessions(ctx context.Context, l *slog.Logger, m *session.Manager, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				l.Warn("session_sweep_failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("session_sweep", "deleted", n)
			}
		}
	}
}
