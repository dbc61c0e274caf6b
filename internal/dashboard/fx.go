package dashboard

import (
	appconfig "github.com/smallbiznis/wattbill/internal/config"
	dashboarddomain "github.com/smallbiznis/wattbill/internal/dashboard/domain"
	"github.com/smallbiznis/wattbill/internal/dashboard/service"
	"go.uber.org/fx"
)

func provideFallback(billing *appconfig.BillingConfigHolder) dashboarddomain.TrendFallback {
	return dashboarddomain.FixedSeries(billing.Get().TrendFallback)
}

var Module = fx.Module("dashboard.service",
	fx.Provide(
		provideFallback,
		service.NewService,
	),
)
