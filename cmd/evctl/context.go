package main

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"ev-tracker/internal/config"
	"ev-tracker/internal/db"
	"ev-tracker/pkg/logger"

	"github.com/joho/godotenv"
)

// commandContext lazily loads configuration, the logger and the database
// so commands that need none of them (schema print) run without an environment.
type commandContext struct {
	envFlag *string

	configOnce sync.Once
	config     config.Config
	log        *slog.Logger
	configErr  error

	conn *sql.DB
}

func newCommandContext(envFlag *string) *commandContext {
	return &commandContext{envFlag: envFlag}
}

func (c *commandContext) ensureConfig() (config.Config, error) {
	c.configOnce.Do(func() {
		if path := strings.TrimSpace(*c.envFlag); path != "" {
			if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				c.configErr = err
				return
			}
		}
		cfg, err := config.Load()
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.log = logger.New(cfg.App.Env)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	if c.log == nil {
		return slog.Default()
	}
	return c.log
}

// database opens the pool once per process. Callers must not close it.
func (c *commandContext) database(ctx context.Context) (*sql.DB, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	conn, err := db.Open(ctx, cfg.PostgresDSN(), db.PoolConfig{MaxOpenConns: cfg.DB.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return conn, nil
}

func (c *commandContext) close() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
