package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wattbill/internal/clock"
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	devicedomain "github.com/smallbiznis/wattbill/internal/device/domain"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"github.com/smallbiznis/wattbill/internal/providers/pdf"
	"github.com/smallbiznis/wattbill/pkg/db"
	"github.com/smallbiznis/wattbill/pkg/db/option"
	"github.com/smallbiznis/wattbill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dueDays = 30

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Billing  *appconfig.BillingConfigHolder
	Source   meteringdomain.Source
	Devices  devicedomain.Repository
	Renderer pdf.Renderer
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID    *snowflake.Node
	clock    clock.Clock
	billing  *appconfig.BillingConfigHolder
	source   meteringdomain.Source
	devices  devicedomain.Repository
	renderer pdf.Renderer

	invoicerepo     repository.Repository[invoicedomain.Invoice]
	consumptionrepo repository.Repository[meteringdomain.ConsumptionRecord]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("invoice.service"),
		genID: p.GenID,

		clock:    p.Clock,
		billing:  p.Billing,
		source:   p.Source,
		devices:  p.Devices,
		renderer: p.Renderer,

		invoicerepo:     repository.ProvideStore[invoicedomain.Invoice](p.DB),
		consumptionrepo: repository.ProvideStore[meteringdomain.ConsumptionRecord](p.DB),
	}
}

// Generate runs the billing workflow: one consumption fetch for the
// period, then one invoice per measuring point. Items fail independently;
// a failed item is logged and skipped without aborting the rest.
func (s *Service) Generate(ctx context.Context, req invoicedomain.GenerateRequest) (invoicedomain.GenerateResponse, error) {
	cfg := s.billing.Get()
	now := s.clock.Now()

	start, end, err := resolvePeriod(req, now)
	if err != nil {
		return invoicedomain.GenerateResponse{}, err
	}

	consumption, err := s.source.ModuleConsumption(ctx, cfg.ModuleID, cfg.MeasuringPoints, start, end)
	if err != nil {
		return invoicedomain.GenerateResponse{}, fmt.Errorf("fetch consumption: %w", err)
	}

	points := make([]string, 0, len(consumption))
	for mp := range consumption {
		points = append(points, mp)
	}
	sort.Strings(points)

	results := make([]invoicedomain.GenerationResult, 0, len(points))
	for _, mp := range points {
		result, err := s.generateOne(ctx, cfg, mp, consumption[mp], start, end)
		if err != nil {
			s.log.Error("invoice generation failed",
				zap.String("measuring_point", mp),
				zap.Error(err),
			)
			continue
		}
		results = append(results, result)
	}

	s.log.Info("invoice generation finished",
		zap.Int("measuring_points", len(points)),
		zap.Int("generated", len(results)),
	)

	return invoicedomain.GenerateResponse{Invoices: results, Count: len(results)}, nil
}

func (s *Service) generateOne(
	ctx context.Context,
	cfg appconfig.BillingConfig,
	measuringPoint string,
	kwh float64,
	start, end time.Time,
) (invoicedomain.GenerationResult, error) {
	device, err := s.devices.FindByMeasuringPoint(ctx, measuringPoint)
	if err != nil {
		return invoicedomain.GenerationResult{}, err
	}
	if device == nil {
		return invoicedomain.GenerationResult{}, fmt.Errorf("%w: measuring point %s", devicedomain.ErrNotFound, measuringPoint)
	}

	number := invoiceNumber(end, measuringPoint)
	amount := kwh * cfg.RatePerKWh

	record := &meteringdomain.ConsumptionRecord{
		ID:        s.genID.Generate(),
		DeviceID:  device.ID,
		Timestamp: end,
		KWh:       kwh,
		Rate:      cfg.RatePerKWh,
	}
	if err := s.consumptionrepo.Create(ctx, record); err != nil {
		return invoicedomain.GenerationResult{}, fmt.Errorf("record consumption: %w", err)
	}

	// The invoice row must be durable before rendering; a render failure
	// leaves it behind with a null pdf_path.
	inv := &invoicedomain.Invoice{
		ID:                 s.genID.Generate(),
		DeviceID:           device.ID,
		InvoiceNumber:      number,
		BillingPeriodStart: start,
		BillingPeriodEnd:   end,
		TotalKWh:           kwh,
		TotalAmount:        amount,
		Status:             invoicedomain.InvoiceStatusPending,
		Metadata:           datatypes.JSONMap{"measuring_point_id": measuringPoint},
	}
	if err := s.invoicerepo.Create(ctx, inv); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return invoicedomain.GenerationResult{}, fmt.Errorf("%w: %s", invoicedomain.ErrDuplicateNumber, number)
		}
		return invoicedomain.GenerationResult{}, fmt.Errorf("persist invoice: %w", err)
	}

	doc := buildDocument(cfg, inv, []pdf.ChargingSession{{
		Date:      end.Format("2006-01-02"),
		StartTime: "00:00",
		EndTime:   "23:59",
		Duration:  "24:00",
		KWh:       kwh,
		Rate:      cfg.RatePerKWh,
		Amount:    amount,
	}})

	path, err := s.renderer.RenderInvoice(ctx, doc)
	if err != nil {
		return invoicedomain.GenerationResult{}, fmt.Errorf("render pdf: %w", err)
	}

	if err := s.invoicerepo.Update(ctx, inv.ID.String(), map[string]any{
		"pdf_path":   path,
		"updated_at": s.clock.Now(),
	}); err != nil {
		return invoicedomain.GenerationResult{}, fmt.Errorf("attach pdf: %w", err)
	}

	return invoicedomain.GenerationResult{
		InvoiceNumber: number,
		TotalAmount:   amount,
		Status:        invoicedomain.InvoiceStatusPending,
	}, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]invoicedomain.Invoice, error) {
	items, err := s.invoicerepo.Find(ctx, &invoicedomain.Invoice{},
		option.WithOrderDesc("created_at"),
		option.WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		invoices = append(invoices, *item)
	}
	return invoices, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, invoicedomain.ErrInvalidID
	}

	item, err := s.invoicerepo.FindOne(ctx, &invoicedomain.Invoice{ID: parsed})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, invoicedomain.ErrInvoiceNotFound
	}
	return item, nil
}

// RenderPDF re-renders the invoice document for download. Line items come
// from the device's consumption records within the billing period; when
// none exist a single aggregate session covers the total.
func (s *Service) RenderPDF(ctx context.Context, id string) (invoicedomain.RenderResponse, error) {
	inv, err := s.GetByID(ctx, id)
	if err != nil {
		return invoicedomain.RenderResponse{}, err
	}

	sessions, err := s.sessionLines(ctx, inv)
	if err != nil {
		return invoicedomain.RenderResponse{}, err
	}

	doc := buildDocument(s.billing.Get(), inv, sessions)
	path, err := s.renderer.RenderInvoice(ctx, doc)
	if err != nil {
		return invoicedomain.RenderResponse{}, err
	}

	return invoicedomain.RenderResponse{
		Path:     path,
		Filename: fmt.Sprintf("invoice_%s.pdf", inv.InvoiceNumber),
	}, nil
}

func (s *Service) sessionLines(ctx context.Context, inv *invoicedomain.Invoice) ([]pdf.ChargingSession, error) {
	records, err := s.consumptionrepo.Find(ctx, &meteringdomain.ConsumptionRecord{DeviceID: inv.DeviceID})
	if err != nil {
		return nil, err
	}

	sessions := make([]pdf.ChargingSession, 0, len(records))
	for _, r := range records {
		if r.Timestamp.Before(inv.BillingPeriodStart) || r.Timestamp.After(inv.BillingPeriodEnd) {
			continue
		}
		sessions = append(sessions, pdf.ChargingSession{
			Date:      r.Timestamp.Format("2006-01-02"),
			StartTime: "00:00",
			EndTime:   "23:59",
			Duration:  "24:00",
			KWh:       r.KWh,
			Rate:      r.Rate,
			Amount:    r.KWh * r.Rate,
		})
	}

	if len(sessions) == 0 {
		sessions = append(sessions, pdf.ChargingSession{
			Date:      inv.BillingPeriodEnd.Format("2006-01-02"),
			StartTime: "00:00",
			EndTime:   "23:59",
			Duration:  "24:00",
			KWh:       inv.TotalKWh,
			Rate:      safeRate(inv),
			Amount:    inv.TotalAmount,
		})
	}
	return sessions, nil
}

func safeRate(inv *invoicedomain.Invoice) float64 {
	if inv.TotalKWh == 0 {
		return 0
	}
	return inv.TotalAmount / inv.TotalKWh
}

func buildDocument(cfg appconfig.BillingConfig, inv *invoicedomain.Invoice, sessions []pdf.ChargingSession) pdf.InvoiceDocument {
	return pdf.InvoiceDocument{
		InvoiceNumber: inv.InvoiceNumber,
		IssuerName:    cfg.Issuer.Name,
		IssuerAddress: cfg.Issuer.Address,
		IssuerPhone:   cfg.Issuer.Phone,
		IssuerEmail:   cfg.Issuer.Email,
		IssuerWebsite: cfg.Issuer.Website,
		PeriodStart:   inv.BillingPeriodStart.Format("2006-01-02"),
		PeriodEnd:     inv.BillingPeriodEnd.Format("2006-01-02"),
		DueDate:       inv.BillingPeriodEnd.AddDate(0, 0, dueDays).Format("2006-01-02"),
		TotalKWh:      inv.TotalKWh,
		TotalAmount:   inv.TotalAmount,
		Currency:      cfg.Currency,
		Sessions:      sessions,
	}
}

// resolvePeriod defaults to the previous calendar month: from its first
// day up to now.
func resolvePeriod(req invoicedomain.GenerateRequest, now time.Time) (time.Time, time.Time, error) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
	end := now

	if req.PeriodStart != nil {
		start = *req.PeriodStart
	}
	if req.PeriodEnd != nil {
		end = *req.PeriodEnd
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, invoicedomain.ErrInvalidPeriod
	}
	return start, end, nil
}

func invoiceNumber(end time.Time, measuringPoint string) string {
	prefix := measuringPoint
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("INV-%s-%s", end.Format("200601"), prefix)
}
