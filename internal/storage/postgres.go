package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	postgresPingAttempts = 10
	postgresPingInterval = 2 * time.Second
)

// NewPostgres connects to PostgreSQL, waiting for the server to accept connections, and
// migrates the schema.
func NewPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*SQLStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for attempt := 1; attempt <= postgresPingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Warn("postgres not ready",
			zap.String("op", "storage.NewPostgres"),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == postgresPingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, ctx.Err()
		case <-time.After(postgresPingInterval):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	return newSQLStore(ctx, db, dialectPostgres, logger)
}
