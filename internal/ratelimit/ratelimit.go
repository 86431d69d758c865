// Package ratelimit throttles outbound calls to the trading provider.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/fd1az/artcoin-trader/internal/apperror"
)

// Limiter is a token bucket sized per minute.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New allows requestsPerMinute with a burst of a tenth of that, at least one.
// A non-positive rate disables limiting.
func New(name string, requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		return &Limiter{name: name, limiter: rate.NewLimiter(rate.Inf, 1)}
	}

	burst := max(requestsPerMinute/10, 1)
	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60), burst),
	}
}

// Wait blocks for a token. A cancelled ctx returns ctx.Err(); a deadline the
// next token cannot meet returns RATE_LIMIT_EXCEEDED without waiting.
func (l *Limiter) Wait(ctx context.Context) error {
	err := l.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return apperror.New(apperror.CodeRateLimitExceeded,
		apperror.WithCause(err),
		apperror.WithContext(l.name))
}

// Allow takes a token if one is available now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}
