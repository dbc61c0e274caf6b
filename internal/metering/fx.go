package metering

import (
	"github.com/smallbiznis/wattbill/internal/config"
	"github.com/smallbiznis/wattbill/internal/metering/cloudocean"
	meteringdomain "github.com/smallbiznis/wattbill/internal/metering/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func provideSource(cfg config.Config, log *zap.Logger) meteringdomain.Source {
	return cloudocean.NewClient(cfg.CloudOcean.BaseURL, cfg.CloudOcean.APIKey, log)
}

var Module = fx.Module("metering",
	fx.Provide(provideSource),
)
