package pdf

import (
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	"go.uber.org/fx"
)

func provideRenderer(cfg appconfig.Config) (Renderer, error) {
	return NewMarotoRenderer(cfg.InvoiceDir)
}

var Module = fx.Module("providers.pdf",
	fx.Provide(provideRenderer),
)
