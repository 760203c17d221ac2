// Package storage persists finance options. Every record is scoped by the opaque id of the user
// that owns it; a user can never read or overwrite another user's options.
package storage

import (
	"context"
	"errors"

	"github.com/iwvelando/loan-compare/internal/finance"
)

// ErrNotFound is returned when an option does not exist for the requesting user.
var ErrNotFound = errors.New("finance option not found")

// Store is the persistence boundary for finance options.
type Store interface {
	// Save inserts or replaces the option identified by option.ID.
	Save(ctx context.Context, option finance.Option) error
	Get(ctx context.Context, userID, id string) (finance.Option, error)
	// List returns the user's options ordered by creation time.
	List(ctx context.Context, userID string) ([]finance.Option, error)
	Delete(ctx context.Context, userID, id string) error
	Close() error
}
