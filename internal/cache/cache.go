// Package cache stores generated comparative reports so identical requests are not sent to the
// report provider twice.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/pkg/constants"
	"go.uber.org/zap"
)

// Cache is a string key/value store with implementation-defined expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string) error
}

// Key derives a stable cache key from the JSON form of value.
func Key(prefix string, value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("cache: encode key: %w", err)
	}
	return prefix + ":" + strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// New returns the cache selected by cfg.Driver, or nil when caching is disabled.
func New(cfg config.CacheConfig, logger *zap.Logger) (Cache, error) {
	switch cfg.Driver {
	case constants.CacheNone:
		return nil, nil
	case "", constants.CacheMemory:
		return NewMemory(cfg.TTL), nil
	case constants.CacheRedis:
		return NewRedis(cfg, logger), nil
	default:
		return nil, fmt.Errorf("cache: unsupported driver %q", cfg.Driver)
	}
}
