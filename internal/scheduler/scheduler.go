package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/smallbiznis/wattbill/internal/clock"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	InvoiceSvc invoicedomain.Service
	Clock      clock.Clock
	Config     Config `optional:"true"`
}

// Scheduler drives monthly billing without operator action. Each tick it
// checks whether the current month has been billed yet and, when not,
// runs the invoice workflow for the previous calendar month.
type Scheduler struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        Config
	invoiceSvc invoicedomain.Service
	clock      clock.Clock
}

func New(p Params) *Scheduler {
	return &Scheduler{
		db:         p.DB,
		log:        p.Log.Named("scheduler"),
		cfg:        p.Config.withDefaults(),
		invoiceSvc: p.InvoiceSvc,
		clock:      p.Clock,
	}
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, s.cfg.RunTimeout)
	defer cancel()

	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	periodStart := monthStart.AddDate(0, -1, 0)

	billed, err := s.monthAlreadyBilled(ctx, monthStart)
	if err != nil {
		return fmt.Errorf("check billing run: %w", err)
	}
	if billed {
		return nil
	}

	resp, err := s.invoiceSvc.Generate(ctx, invoicedomain.GenerateRequest{
		PeriodStart: &periodStart,
		PeriodEnd:   &monthStart,
	})
	if err != nil {
		return fmt.Errorf("monthly billing run: %w", err)
	}

	s.log.Info("monthly billing run finished",
		zap.String("period_start", periodStart.Format("2006-01-02")),
		zap.String("period_end", monthStart.Format("2006-01-02")),
		zap.Int("generated", resp.Count),
	)
	return nil
}

// monthAlreadyBilled reports whether any invoice was issued this month.
// Invoice numbers embed the issue month, so a prefix match is enough.
func (s *Scheduler) monthAlreadyBilled(ctx context.Context, monthStart time.Time) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("invoice_number LIKE ?", fmt.Sprintf("INV-%s-%%", monthStart.Format("200601"))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
