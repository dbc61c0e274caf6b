package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/wattbill/internal/clock"
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	devicedomain "github.com/smallbiznis/wattbill/internal/device/domain"
	devicerepo "github.com/smallbiznis/wattbill/internal/device/repository"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"github.com/smallbiznis/wattbill/internal/providers/pdf"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	mpA = "71ef9476-3855-4a3f-8fc5-333cfbf9e898"
	mpB = "fd7e69ef-cd01-4b9a-8958-2aa5051428d4"
	mpC = "b7423cbc-d622-4247-bb9a-8d125e5e2351"
)

type sourceStub struct {
	data map[string]float64
	err  error
}

func (s *sourceStub) ModuleConsumption(ctx context.Context, moduleID string, points []string, start, end time.Time) (map[string]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

type rendererStub struct {
	failFor map[string]bool
	renders int
}

func (r *rendererStub) RenderInvoice(ctx context.Context, doc pdf.InvoiceDocument) (string, error) {
	for mp := range r.failFor {
		if strings.HasSuffix(doc.InvoiceNumber, mp[:8]) {
			return "", errors.New("render exploded")
		}
	}
	r.renders++
	return "static/invoices/invoice_" + doc.InvoiceNumber + ".pdf", nil
}

func setupTest(t *testing.T, source meteringdomain.Source, renderer pdf.Renderer, now time.Time) (invoicedomain.Service, *gorm.DB) {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	assert.NoError(t, err)

	err = conn.AutoMigrate(
		&devicedomain.Device{},
		&meteringdomain.ConsumptionRecord{},
		&invoicedomain.Invoice{},
	)
	assert.NoError(t, err)

	node, err := snowflake.NewNode(1)
	assert.NoError(t, err)

	devices := devicerepo.Provide(conn)
	for i, mp := range []string{mpA, mpB, mpC} {
		err := devices.Insert(context.Background(), &devicedomain.Device{
			ID:               node.Generate(),
			ModelNumber:      "DCC-10",
			SerialNumber:     fmt.Sprintf("SN-%s-%d", t.Name(), i),
			Location:         "Garage A",
			MaxAmperage:      40,
			EVSECount:        1,
			MeasuringPointID: mp,
		})
		assert.NoError(t, err)
	}

	svc := NewService(ServiceParam{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clock.NewFakeClock(now),
		Billing:  appconfig.NewBillingConfigHolderFrom(appconfig.DefaultBillingConfig()),
		Source:   source,
		Devices:  devices,
		Renderer: renderer,
	})
	return svc, conn
}

func TestGenerate_InvoiceNumberFormat(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, _ := setupTest(t, &sourceStub{data: map[string]float64{mpA: 100}}, &rendererStub{}, now)

	resp, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "INV-202411-71ef9476", resp.Invoices[0].InvoiceNumber)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, resp.Invoices[0].Status)
}

func TestGenerate_AmountIsKWhTimesRate(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	kwh := map[string]float64{mpA: 123.456, mpB: 0, mpC: 77.7}
	svc, conn := setupTest(t, &sourceStub{data: kwh}, &rendererStub{}, now)

	resp, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 3, resp.Count)

	var invoices []invoicedomain.Invoice
	assert.NoError(t, conn.Find(&invoices).Error)
	for _, inv := range invoices {
		assert.InDelta(t, inv.TotalKWh*0.12, inv.TotalAmount, 1e-9)
	}
}

func TestGenerate_RenderFailureIsItemScoped(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	kwh := map[string]float64{mpA: 10, mpB: 20, mpC: 30}
	renderer := &rendererStub{failFor: map[string]bool{mpB: true}}
	svc, conn := setupTest(t, &sourceStub{data: kwh}, renderer, now)

	resp, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)

	// One render failure: two success entries, three persisted rows.
	assert.Equal(t, 2, resp.Count)
	for _, result := range resp.Invoices {
		assert.NotContains(t, result.InvoiceNumber, "fd7e69ef")
	}

	var count int64
	assert.NoError(t, conn.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	// The orphaned row keeps a null pdf_path.
	var orphan invoicedomain.Invoice
	assert.NoError(t, conn.First(&orphan, "invoice_number = ?", "INV-202411-fd7e69ef").Error)
	assert.Nil(t, orphan.PDFPath)
	assert.Equal(t, invoicedomain.InvoiceStatusPending, orphan.Status)

	var attached invoicedomain.Invoice
	assert.NoError(t, conn.First(&attached, "invoice_number = ?", "INV-202411-71ef9476").Error)
	assert.NotNil(t, attached.PDFPath)
}

func TestGenerate_UnmappedMeasuringPointIsSkipped(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	unknown := "99999999-0000-4000-8000-000000000000"
	kwh := map[string]float64{mpA: 10, unknown: 55}
	svc, conn := setupTest(t, &sourceStub{data: kwh}, &rendererStub{}, now)

	resp, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "INV-202411-71ef9476", resp.Invoices[0].InvoiceNumber)

	var count int64
	assert.NoError(t, conn.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerate_SourceFailureIsWorkflowFailure(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, conn := setupTest(t, &sourceStub{err: errors.New("api down")}, &rendererStub{}, now)

	_, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.Error(t, err)

	var count int64
	assert.NoError(t, conn.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestGenerate_DuplicateInvoiceNumberDoesNotOverwrite(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, conn := setupTest(t, &sourceStub{data: map[string]float64{mpA: 10}}, &rendererStub{}, now)

	resp, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 1, resp.Count)

	// Same period again: the unique index rejects the second row and the
	// item is skipped, the first invoice stays intact.
	resp, err = svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)
	assert.Equal(t, 0, resp.Count)

	var count int64
	assert.NoError(t, conn.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerate_ExplicitPeriodValidation(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, _ := setupTest(t, &sourceStub{data: map[string]float64{}}, &rendererStub{}, now)

	start := now
	end := now.AddDate(0, -1, 0)
	_, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{PeriodStart: &start, PeriodEnd: &end})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPeriod)
}

func TestRenderPDF_UnknownInvoice(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, _ := setupTest(t, &sourceStub{data: map[string]float64{}}, &rendererStub{}, now)

	_, err := svc.RenderPDF(context.Background(), "123456789")
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)

	_, err = svc.RenderPDF(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidID)
}

func TestRenderPDF_FilenameContainsInvoiceNumber(t *testing.T) {
	now := time.Date(2024, 11, 25, 12, 0, 0, 0, time.UTC)
	svc, conn := setupTest(t, &sourceStub{data: map[string]float64{mpA: 42}}, &rendererStub{}, now)

	_, err := svc.Generate(context.Background(), invoicedomain.GenerateRequest{})
	assert.NoError(t, err)

	var inv invoicedomain.Invoice
	assert.NoError(t, conn.First(&inv).Error)

	resp, err := svc.RenderPDF(context.Background(), inv.ID.String())
	assert.NoError(t, err)
	assert.Contains(t, resp.Filename, inv.InvoiceNumber)
	assert.NotEmpty(t, resp.Path)
}
