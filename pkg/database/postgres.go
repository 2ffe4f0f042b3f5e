package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/childcare-incidents-api/pkg/config"
)

const applicationName = "childcare-incidents-api"

// NewPostgres opens the incident database and waits for it to answer, retrying the ping while
// the server is still starting.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*sqlx.DB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sqlx.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	attempts := cfg.ConnectRetries
	if attempts <= 0 {
		attempts = 1
	}
	backoff := 500 * time.Millisecond
	for attempt := 1; ; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}
		if attempt >= attempts {
			break
		}
		logger.Warn("postgres not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("connect postgres: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	_ = db.Close()
	return nil, fmt.Errorf("connect postgres after %d attempts: %w", attempts, err)
}

// DSN builds a lib/pq connection string. Values are quoted so passwords may contain spaces or
// quotes; statement_timeout is sent as a session parameter.
func DSN(cfg config.DatabaseConfig) string {
	params := []struct{ key, value string }{
		{"host", cfg.Host},
		{"port", fmt.Sprint(cfg.Port)},
		{"user", cfg.User},
		{"password", cfg.Password},
		{"dbname", cfg.Name},
		{"sslmode", cfg.SSLMode},
		{"application_name", applicationName},
	}
	if cfg.StatementTimeout > 0 {
		params = append(params, struct{ key, value string }{"statement_timeout", fmt.Sprint(cfg.StatementTimeout.Milliseconds())})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+quoteValue(p.value))
	}
	return strings.Join(parts, " ")
}

func quoteValue(v string) string {
	if !strings.ContainsAny(v, ` '\`) {
		return v
	}
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(v)
	return "'" + escaped + "'"
}
