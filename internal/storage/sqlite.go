package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// NewSQLite opens (creating if needed) the SQLite database at path and migrates its schema.
func NewSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	return newSQLStore(ctx, db, dialectSQLite, logger)
}
