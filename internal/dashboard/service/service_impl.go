package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/smallbiznis/wattbill/internal/clock"
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	dashboarddomain "github.com/smallbiznis/wattbill/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	recentInvoiceLimit = 5
	rollingWindowDays  = 30
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	Clock    clock.Clock
	Billing  *appconfig.BillingConfigHolder
	Source   meteringdomain.Source
	Invoices invoicedomain.Service
	Fallback dashboarddomain.TrendFallback
}

type Service struct {
	log      *zap.Logger
	clock    clock.Clock
	billing  *appconfig.BillingConfigHolder
	source   meteringdomain.Source
	invoices invoicedomain.Service
	fallback dashboarddomain.TrendFallback
}

func NewService(p ServiceParam) dashboarddomain.Service {
	return &Service{
		log:      p.Log.Named("dashboard.service"),
		clock:    p.Clock,
		billing:  p.Billing,
		source:   p.Source,
		invoices: p.Invoices,
		fallback: p.Fallback,
	}
}

// BuildDashboard assembles the HTML dashboard view. Every fetch degrades
// independently to empty data; nothing propagates to the presentation
// layer.
func (s *Service) BuildDashboard(ctx context.Context) dashboarddomain.DashboardView {
	view := dashboarddomain.DashboardView{
		Consumption:    dashboarddomain.ConsumptionSeries{Labels: []string{}, Values: []float64{}},
		RecentInvoices: []dashboarddomain.RecentInvoice{},
	}

	if recent, err := s.recentInvoices(ctx); err != nil {
		s.log.Warn("recent invoices unavailable", zap.Error(err))
	} else {
		view.RecentInvoices = recent
	}

	consumption, err := s.rollingConsumption(ctx)
	if err != nil {
		s.log.Warn("consumption unavailable", zap.Error(err))
		return view
	}

	points := sortedKeys(consumption)
	for _, mp := range points {
		label := mp
		if len(label) > 8 {
			label = label[:8]
		}
		view.Consumption.Labels = append(view.Consumption.Labels, fmt.Sprintf("Device %s", label))
		view.Consumption.Values = append(view.Consumption.Values, consumption[mp])
	}
	return view
}

// BuildTrend splits [start, end] into bucketCount equal-width buckets and
// queries the source per bucket. A bucket whose mapping is empty or whose
// values are all non-positive takes the fallback value for that index;
// any positive reading uses the real sum rounded to two decimals.
func (s *Service) BuildTrend(ctx context.Context, start, end time.Time, bucketCount int) []dashboarddomain.TrendPoint {
	if bucketCount <= 1 {
		bucketCount = dashboarddomain.DefaultTrendBuckets
	}
	cfg := s.billing.Get()

	days := int(end.Sub(start).Hours() / 24)
	interval := days / (bucketCount - 1)

	trend := make([]dashboarddomain.TrendPoint, 0, bucketCount)
	for i := 0; i < bucketCount; i++ {
		bucketStart := start.AddDate(0, 0, i*interval)
		bucketEnd := bucketStart.AddDate(0, 0, interval)

		point := dashboarddomain.TrendPoint{Date: bucketStart.Format("2006-01-02")}

		data, err := s.source.ModuleConsumption(ctx, cfg.ModuleID, cfg.MeasuringPoints, bucketStart, bucketEnd)
		if err != nil {
			s.log.Warn("trend bucket fetch failed", zap.Int("bucket", i), zap.Error(err))
			data = nil
		}

		if hasPositive(data) {
			var total float64
			for _, v := range data {
				total += v
			}
			point.Consumption = math.Round(total*100) / 100
		} else {
			point.Consumption = s.fallback.Value(i)
		}

		trend = append(trend, point)
	}
	return trend
}

// Data builds the JSON read model. Unlike the HTML view, fetch errors
// surface so the API can answer with a failure envelope.
func (s *Service) Data(ctx context.Context) (dashboarddomain.DashboardData, error) {
	consumption, err := s.rollingConsumption(ctx)
	if err != nil {
		return dashboarddomain.DashboardData{}, err
	}

	recent, err := s.recentInvoices(ctx)
	if err != nil {
		return dashboarddomain.DashboardData{}, err
	}

	now := s.clock.Now()
	trend := s.BuildTrend(ctx, now.AddDate(0, 0, -rollingWindowDays), now, dashboarddomain.DefaultTrendBuckets)

	return dashboarddomain.DashboardData{
		Consumption:    consumption,
		Trend:          trend,
		RecentInvoices: recent,
	}, nil
}

func (s *Service) rollingConsumption(ctx context.Context) (map[string]float64, error) {
	cfg := s.billing.Get()
	now := s.clock.Now()
	return s.source.ModuleConsumption(ctx, cfg.ModuleID, cfg.MeasuringPoints, now.AddDate(0, 0, -rollingWindowDays), now)
}

func (s *Service) recentInvoices(ctx context.Context) ([]dashboarddomain.RecentInvoice, error) {
	invoices, err := s.invoices.List(ctx, recentInvoiceLimit)
	if err != nil {
		return nil, err
	}

	recent := make([]dashboarddomain.RecentInvoice, 0, len(invoices))
	for _, inv := range invoices {
		recent = append(recent, dashboarddomain.RecentInvoice{
			InvoiceNumber: inv.InvoiceNumber,
			DeviceID:      inv.DeviceID.String(),
			TotalAmount:   inv.TotalAmount,
			Status:        string(inv.Status),
		})
	}
	return recent, nil
}

func hasPositive(data map[string]float64) bool {
	for _, v := range data {
		if v > 0 {
			return true
		}
	}
	return false
}

func sortedKeys(data map[string]float64) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
