// Package database opens the MariaDB pool and the Redis client at startup
// and runs schema migrations. Connections are created once and handed to
// internal/app; nothing else in the codebase dials infrastructure.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/sheeplab/sheepdiary/internal/config"
)

const (
	pingAttempts = 10
	pingTimeout  = 5 * time.Second
	maxBackoff   = 30 * time.Second
)

// NewMariaDB opens a connection pool and verifies it with a ping. The ping
// retries with exponential backoff since the database container often comes
// up after the app during a compose cold start.
func NewMariaDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening mariadb connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	backoff := time.Second
	var pingErr error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		pingErr = db.PingContext(ctx)
		cancel()
		if pingErr == nil {
			return db, nil
		}
		if attempt == pingAttempts {
			break
		}
		slog.Warn("mariadb not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", backoff),
			slog.Any("error", pingErr),
		)
		time.Sleep(backoff)
		backoff = min(backoff*2, maxBackoff)
	}

	db.Close()
	return nil, fmt.Errorf("pinging mariadb after %d attempts: %w", pingAttempts, pingErr)
}
