package domain

import (
	"context"
	"errors"
	"time"
)

// Source fetches consumed energy from the metering provider. The result
// maps measuring-point id to kWh consumed over [start, end]; the mapping
// may be partial or empty.
type Source interface {
	ModuleConsumption(ctx context.Context, moduleID string, measuringPointIDs []string, start, end time.Time) (map[string]float64, error)
}

var (
	ErrInvalidMeasuringPoint = errors.New("invalid_measuring_point")
	ErrSourceUnavailable     = errors.New("metering_source_unavailable")
)
