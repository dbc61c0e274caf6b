package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/wattbill/internal/clock"
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	dashboarddomain "github.com/smallbiznis/wattbill/internal/dashboard/domain"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type queueSource struct {
	responses []map[string]float64
	err       error
	calls     int
}

func (s *queueSource) ModuleConsumption(ctx context.Context, moduleID string, points []string, start, end time.Time) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	var resp map[string]float64
	if s.calls < len(s.responses) {
		resp = s.responses[s.calls]
	}
	s.calls++
	return resp, nil
}

type invoicesStub struct {
	invoices []invoicedomain.Invoice
	err      error
}

func (s *invoicesStub) Generate(ctx context.Context, req invoicedomain.GenerateRequest) (invoicedomain.GenerateResponse, error) {
	return invoicedomain.GenerateResponse{}, nil
}

func (s *invoicesStub) List(ctx context.Context, limit int) ([]invoicedomain.Invoice, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && len(s.invoices) > limit {
		return s.invoices[:limit], nil
	}
	return s.invoices, nil
}

func (s *invoicesStub) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	return nil, invoicedomain.ErrInvoiceNotFound
}

func (s *invoicesStub) RenderPDF(ctx context.Context, id string) (invoicedomain.RenderResponse, error) {
	return invoicedomain.RenderResponse{}, invoicedomain.ErrInvoiceNotFound
}

var fallbackSeries = dashboarddomain.FixedSeries{42.5, 38.2, 45.7, 51.3, 47.8, 53.1}

func newTestService(source *queueSource, invoices *invoicesStub) dashboarddomain.Service {
	return NewService(ServiceParam{
		Log:      zap.NewNop(),
		Clock:    clock.NewFakeClock(time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)),
		Billing:  appconfig.NewBillingConfigHolderFrom(appconfig.DefaultBillingConfig()),
		Source:   source,
		Invoices: invoices,
		Fallback: fallbackSeries,
	})
}

func TestBuildTrend_FallbackSubstitution(t *testing.T) {
	// Bucket readings 0, -3, 5, {}, {}, {}: only index 2 carries real
	// data, every other index takes the baseline value.
	source := &queueSource{responses: []map[string]float64{
		{"mp": 0},
		{"mp": -3},
		{"mp": 5},
		{},
		{},
		{},
	}}
	svc := newTestService(source, &invoicesStub{})

	start := time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)
	trend := svc.BuildTrend(context.Background(), start, end, 6)

	assert.Len(t, trend, 6)
	assert.Equal(t, 42.5, trend[0].Consumption)
	assert.Equal(t, 38.2, trend[1].Consumption)
	assert.Equal(t, 5.0, trend[2].Consumption)
	assert.Equal(t, 51.3, trend[3].Consumption)
	assert.Equal(t, 47.8, trend[4].Consumption)
	assert.Equal(t, 53.1, trend[5].Consumption)
}

func TestBuildTrend_SumsAndRounds(t *testing.T) {
	source := &queueSource{responses: []map[string]float64{
		{"a": 1.111, "b": 2.222},
	}}
	svc := newTestService(source, &invoicesStub{})

	start := time.Date(2024, 10, 16, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 11, 25, 0, 0, 0, 0, time.UTC)
	trend := svc.BuildTrend(context.Background(), start, end, 6)

	assert.Equal(t, 3.33, trend[0].Consumption)
	assert.Equal(t, "2024-10-16", trend[0].Date)
}

func TestBuildTrend_AlwaysReturnsBucketCount(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, buckets := range []int{2, 6, 9} {
		svc := newTestService(&queueSource{}, &invoicesStub{})
		trend := svc.BuildTrend(context.Background(), start, end, buckets)
		assert.Len(t, trend, buckets)
	}

	// Source errors still yield a full series via the fallback.
	svc := newTestService(&queueSource{err: errors.New("down")}, &invoicesStub{})
	trend := svc.BuildTrend(context.Background(), start, end, 6)
	assert.Len(t, trend, 6)
}

func TestBuildDashboard_DegradesToEmpty(t *testing.T) {
	svc := newTestService(&queueSource{err: errors.New("api down")}, &invoicesStub{err: errors.New("db down")})

	view := svc.BuildDashboard(context.Background())
	assert.Equal(t, []string{}, view.Consumption.Labels)
	assert.Equal(t, []float64{}, view.Consumption.Values)
	assert.Empty(t, view.RecentInvoices)
}

func TestBuildDashboard_FormatsLabels(t *testing.T) {
	source := &queueSource{responses: []map[string]float64{
		{
			"71ef9476-3855-4a3f-8fc5-333cfbf9e898": 120.5,
			"fd7e69ef-cd01-4b9a-8958-2aa5051428d4": 88.25,
		},
	}}
	svc := newTestService(source, &invoicesStub{})

	view := svc.BuildDashboard(context.Background())
	assert.Equal(t, []string{"Device 71ef9476", "Device fd7e69ef"}, view.Consumption.Labels)
	assert.Equal(t, []float64{120.5, 88.25}, view.Consumption.Values)
}

func TestData_SurfacesSourceFailure(t *testing.T) {
	svc := newTestService(&queueSource{err: errors.New("api down")}, &invoicesStub{})

	_, err := svc.Data(context.Background())
	assert.Error(t, err)
}

func TestData_ReadModel(t *testing.T) {
	responses := []map[string]float64{
		{"mp": 10}, // rolling window consumption
	}
	// trend buckets
	for i := 0; i < 6; i++ {
		responses = append(responses, map[string]float64{"mp": float64(i + 1)})
	}
	source := &queueSource{responses: responses}
	invoices := &invoicesStub{invoices: []invoicedomain.Invoice{
		{InvoiceNumber: "INV-202411-71ef9476", TotalAmount: 14.46, Status: invoicedomain.InvoiceStatusPending},
	}}
	svc := newTestService(source, invoices)

	data, err := svc.Data(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, map[string]float64{"mp": 10}, data.Consumption)
	assert.Len(t, data.Trend, 6)
	assert.Len(t, data.RecentInvoices, 1)
	assert.Equal(t, "INV-202411-71ef9476", data.RecentInvoices[0].InvoiceNumber)
}
