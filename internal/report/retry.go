package report

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetryingGenerator retries failed generations with exponential back-off.
type RetryingGenerator struct {
	next        Generator
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

func NewRetryingGenerator(next Generator, maxAttempts int, baseDelay time.Duration, logger *zap.Logger) *RetryingGenerator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingGenerator{next: next, maxAttempts: maxAttempts, baseDelay: baseDelay, logger: logger}
}

// Generate stops retrying once ctx is done. The last provider error is returned unchanged so
// its message reaches the user as is.
func (g *RetryingGenerator) Generate(ctx context.Context, req Request) (Response, error) {
	var lastErr error
	delay := g.baseDelay

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		resp, err := g.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, ErrNoOptions) || ctx.Err() != nil || attempt == g.maxAttempts {
			break
		}

		g.logger.Warn("comparative report failed, retrying",
			zap.String("op", "report.RetryingGenerator.Generate"),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", g.maxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return Response{}, lastErr
		case <-time.After(delay):
		}
		delay *= 2
	}

	return Response{}, lastErr
}
