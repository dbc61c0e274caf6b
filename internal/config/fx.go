package config

import (
	"github.com/smallbiznis/wattbill/pkg/db"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		NewBillingConfigHolder,
		provideDBConfig,
	),
)

func provideDBConfig(cfg Config) db.Config {
	return cfg.DB
}
