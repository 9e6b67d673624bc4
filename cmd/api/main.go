package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ev-tracker/internal/config"
	"ev-tracker/internal/db"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/ratelimit"
	"ev-tracker/internal/workflow"
	"ev-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := workflow.CheckMetadata(); err != nil {
		log.Error("stage metadata invalid", "err", err)
		os.Exit(1)
	}

	conn, err := db.Open(rootCtx, cfg.PostgresDSN(), db.PoolConfig{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Apply(rootCtx, conn); err != nil {
		log.Error("schema apply failed", "err", err)
		os.Exit(1)
	}

	var limiter *ratelimit.Limiter
	if cfg.RedisEnabled() {
		rdb, err := ratelimit.OpenRedis(rootCtx, ratelimit.RedisConfig{
			Addr:     cfg.RedisAddr(),
			Password: cfg.Redis.Password,
		})
		if err != nil {
			log.Error("redis init failed", "err", err)
			os.Exit(1)
		}
		defer rdb.Close()
		limiter = ratelimit.New(rdb, cfg.RateLimit.Capacity, cfg.RateLimit.Refill)
	} else {
		log.Warn("redis not configured, public rate limiting disabled")
	}

	pub, closePub := newPublisher(cfg, log)
	defer closePub()

	// The outbox outlives the HTTP server so requests finishing during shutdown
	// still get their notifications published.
	outbox := notify.NewOutbox(pub, 256, log)
	outboxCtx, stopOutbox := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		outbox.Run(outboxCtx, 5*time.Second)
	}()

	h, err := newHandlers(cfg, conn, outbox, log)
	if err != nil {
		log.Error("handlers init failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           newRouter(cfg, log, h, limiter),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	stopOutbox()
	wg.Wait()
	st := outbox.Stats()
	log.Info("outbox stopped",
		slog.Int64("published", st.Published),
		slog.Int64("failed", st.Failed),
		slog.Int64("dropped", st.Dropped),
	)
}

// newPublisher returns the broker publisher when AMQP is configured, otherwise
// a publisher that writes notifications to the log.
func newPublisher(cfg config.Config, log *slog.Logger) (notify.Publisher, func()) {
	if cfg.AMQP.URL == "" {
		log.Warn("amqp not configured, notifications go to the log")
		return notify.LogPublisher{Log: log}, func() {}
	}
	p := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Queue, log)
	return p, func() { _ = p.Close() }
}

func pinger(conn *sql.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return db.Ping(ctx, conn, 2*time.Second)
	}
}
