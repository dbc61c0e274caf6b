package device

import (
	"github.com/smallbiznis/wattbill/internal/device/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("device",
	fx.Provide(repository.Provide),
)
