package report

import (
	"context"

	"github.com/iwvelando/loan-compare/internal/cache"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "report"

// CachedGenerator reuses reports for requests with identical options.
type CachedGenerator struct {
	next   Generator
	cache  cache.Cache
	logger *zap.Logger
}

func NewCachedGenerator(next Generator, c cache.Cache, logger *zap.Logger) *CachedGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedGenerator{next: next, cache: c, logger: logger}
}

func (g *CachedGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	key, err := cache.Key(cacheKeyPrefix, req)
	if err != nil {
		return g.next.Generate(ctx, req)
	}

	if report, ok := g.cache.Get(ctx, key); ok {
		g.logger.Debug("comparative report served from cache",
			zap.String("op", "report.CachedGenerator.Generate"),
			zap.String("key", key),
		)
		return Response{ComparativeReport: report}, nil
	}

	resp, err := g.next.Generate(ctx, req)
	if err != nil {
		return Response{}, err
	}

	if err := g.cache.Set(ctx, key, resp.ComparativeReport); err != nil {
		g.logger.Warn("failed to cache comparative report",
			zap.String("op", "report.CachedGenerator.Generate"),
			zap.Error(err),
		)
	}
	return resp, nil
}
