package domain

import (
	"context"
	"time"
)

// DefaultTrendBuckets is the bucket count used when callers do not ask
// for a specific resolution.
const DefaultTrendBuckets = 6

// Service assembles the dashboard read models. BuildDashboard and
// BuildTrend degrade gracefully and never propagate fetch errors; Data
// surfaces them so the API can answer with a failure envelope.
type Service interface {
	BuildDashboard(ctx context.Context) DashboardView
	BuildTrend(ctx context.Context, start, end time.Time, bucketCount int) []TrendPoint
	Data(ctx context.Context) (DashboardData, error)
}
