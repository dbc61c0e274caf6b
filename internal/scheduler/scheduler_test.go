package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/wattbill/internal/clock"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingInvoiceService struct {
	calls []invoicedomain.GenerateRequest
	resp  invoicedomain.GenerateResponse
	err   error
}

func (r *recordingInvoiceService) Generate(ctx context.Context, req invoicedomain.GenerateRequest) (invoicedomain.GenerateResponse, error) {
	_ = ctx
	r.calls = append(r.calls, req)
	return r.resp, r.err
}

func (r *recordingInvoiceService) List(ctx context.Context, limit int) ([]invoicedomain.Invoice, error) {
	_ = ctx
	_ = limit
	return nil, nil
}

func (r *recordingInvoiceService) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	_ = ctx
	_ = id
	return nil, invoicedomain.ErrInvoiceNotFound
}

func (r *recordingInvoiceService) RenderPDF(ctx context.Context, id string) (invoicedomain.RenderResponse, error) {
	_ = ctx
	_ = id
	return invoicedomain.RenderResponse{}, invoicedomain.ErrInvoiceNotFound
}

func setupScheduler(t *testing.T, now time.Time, svc *recordingInvoiceService) (*Scheduler, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&invoicedomain.Invoice{}))

	sched := New(Params{
		DB:         conn,
		Log:        zap.NewNop(),
		InvoiceSvc: svc,
		Clock:      clock.NewFakeClock(now),
	})
	return sched, conn
}

func TestRunOnce_BillsPreviousMonth(t *testing.T) {
	svc := &recordingInvoiceService{resp: invoicedomain.GenerateResponse{Count: 3}}
	sched, _ := setupScheduler(t, time.Date(2024, 12, 5, 8, 0, 0, 0, time.UTC), svc)

	require.NoError(t, sched.RunOnce(context.Background()))

	require.Len(t, svc.calls, 1)
	req := svc.calls[0]
	require.NotNil(t, req.PeriodStart)
	require.NotNil(t, req.PeriodEnd)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), *req.PeriodStart)
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), *req.PeriodEnd)
}

func TestRunOnce_SkipsWhenMonthAlreadyBilled(t *testing.T) {
	svc := &recordingInvoiceService{}
	sched, conn := setupScheduler(t, time.Date(2024, 12, 5, 8, 0, 0, 0, time.UTC), svc)

	require.NoError(t, conn.Create(&invoicedomain.Invoice{
		ID:                 1,
		DeviceID:           1,
		InvoiceNumber:      "INV-202412-71ef9476",
		BillingPeriodStart: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		BillingPeriodEnd:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		Status:             invoicedomain.InvoiceStatusPending,
	}).Error)

	require.NoError(t, sched.RunOnce(context.Background()))
	assert.Empty(t, svc.calls)
}

func TestRunOnce_ReportsWorkflowFailure(t *testing.T) {
	svc := &recordingInvoiceService{err: invoicedomain.ErrInvalidPeriod}
	sched, _ := setupScheduler(t, time.Date(2024, 12, 5, 8, 0, 0, 0, time.UTC), svc)

	err := sched.RunOnce(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPeriod)
}
