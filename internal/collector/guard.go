package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"AwesomeSentinel/internal/model"
)

// RateGuard keeps requests under a provider's call budget. When the budget is
// spent it fails with ErrRateLimited without calling the provider.
type RateGuard struct {
	next    Fetcher
	limiter *rate.Limiter
}

// NewRateGuard allows perMinute calls per minute with a burst of the same size.
// A non-positive perMinute disables the guard.
func NewRateGuard(next Fetcher, perMinute int) Fetcher {
	if perMinute <= 0 {
		return next
	}
	return &RateGuard{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (g *RateGuard) Name() string { return g.next.Name() }

func (g *RateGuard) FetchWeeklyBars(ctx context.Context, symbol string) ([]model.Bar, error) {
	if !g.limiter.Allow() {
		return nil, fmt.Errorf("%s: local call budget spent: %w", g.next.Name(), ErrRateLimited)
	}
	return g.next.FetchWeeklyBars(ctx, symbol)
}
