package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/wattbill/internal/config"
	devicedomain "github.com/smallbiznis/wattbill/internal/device/domain"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"github.com/smallbiznis/wattbill/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate keeps the schema in sync on startup and seeds the device
// catalog from the configured measuring points.
func Migrate(db *gorm.DB, node *snowflake.Node, billing *config.BillingConfigHolder, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&devicedomain.Device{},
		&meteringdomain.ConsumptionRecord{},
		&invoicedomain.Invoice{},
	); err != nil {
		return err
	}

	cfg := billing.Get()
	if err := seed.EnsureDevices(db, node, cfg.MeasuringPoints); err != nil {
		return err
	}

	log.Info("schema migrated", zap.Int("measuring_points", len(cfg.MeasuringPoints)))
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(Migrate),
)
