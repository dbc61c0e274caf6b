package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, device *Device) error
	FindByID(ctx context.Context, id snowflake.ID) (*Device, error)
	FindByMeasuringPoint(ctx context.Context, measuringPointID string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
}

var (
	ErrNotFound = errors.New("device_not_found")
)
