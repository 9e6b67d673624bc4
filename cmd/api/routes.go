package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"ev-tracker/internal/auth"
	"ev-tracker/internal/config"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/httpapi"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/migration"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/ratelimit"
	"ev-tracker/internal/reference"
	"ev-tracker/internal/reporting"
	"ev-tracker/internal/scripts"
	"ev-tracker/internal/team"
	"ev-tracker/pkg/logger"

	"github.com/gin-gonic/gin"
)

// newHandlers builds every service on top of Postgres.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func newHandlers(cfg config.Config, conn *sql.DB, notifier notify.Notifier, log *slog.Logger) (httpapi.Handlers, error) {
	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		return httpapi.Handlers{}, fmt.Errorf("auth: %w", err)
	}

	migRepo := migration.NewPostgresRepo(conn)
	countries := migration.Countries{Repo: migRepo}

	users := enduser.NewService(enduser.NewPostgresRepo(conn), countries, log)
	numbers := phonenumber.NewService(phonenumber.NewPostgresRepo(conn), countries, users, log)
	links := magiclink.NewService(magiclink.NewPostgresRepo(conn), cfg.App.PublicBaseURL, cfg.Links.DefaultTTL, log)

	migrations := migration.NewService(migration.Deps{
		Repo:     migRepo,
		Links:    links,
		Users:    users,
		Numbers:  numbers,
		Notifier: notifier,
		Log:      log,
	})

	h := httpapi.Handlers{
		Auth:        authManager,
		Team:        team.NewService(team.NewPostgresRepo(conn), log),
		Migrations:  migrations,
		Users:       users,
		Numbers:     numbers,
		Links:       links,
		Subscribers: notify.NewPostgresSubscribers(conn),
		Reference:   reference.NewService(reference.NewPostgresRepo(conn), log),
		Scripts:     scripts.NewService(migrations, users, numbers),
		Reporting:   reporting.NewService(reporting.NewPostgresRepo(conn)),
		Ping:        pinger(conn),
	}
	if o, ok := notifier.(*notify.Outbox); ok {
		h.Outbox = o
	}
	return h, nil
}

// newRouter wires middleware and routes.
func newRouter(cfg config.Config, log *slog.Logger, h httpapi.Handlers, limiter *ratelimit.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))
	r.Use(httpapi.CORS(cfg.App.CORSOrigin))

	httpapi.Register(r, h, httpapi.Middleware{
		Public: limiter.Middleware(log),
	})
	return r
}
