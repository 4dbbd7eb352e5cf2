package utils

import (
	"context"
	"time"
)

// Query timeout tiers. Session and user lookups ride the fast tier; seeding
// and table setup use the default; unbounded scans like the activity-log
// listing get the slow tier.
const (
	DefaultQueryTimeout = 30 * time.Second
	FastQueryTimeout    = 10 * time.Second
	SlowQueryTimeout    = 60 * time.Second
)

// GetQueryContext derives a timeout context for a database call. A nil parent
// falls back to the background context so storage helpers can be called
// outside a request.
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, FastQueryTimeout)
}

func GetSlowQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, SlowQueryTimeout)
}
