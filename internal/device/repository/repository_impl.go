package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	devicedomain "github.com/smallbiznis/wattbill/internal/device/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) devicedomain.Repository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, d *devicedomain.Device) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*devicedomain.Device, error) {
	var device devicedomain.Device
	err := r.db.WithContext(ctx).First(&device, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *repo) FindByMeasuringPoint(ctx context.Context, measuringPointID string) (*devicedomain.Device, error) {
	var device devicedomain.Device
	err := r.db.WithContext(ctx).First(&device, "measuring_point_id = ?", measuringPointID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *repo) List(ctx context.Context) ([]devicedomain.Device, error) {
	var devices []devicedomain.Device
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&devices).Error
	if err != nil {
		return nil, err
	}
	return devices, nil
}
