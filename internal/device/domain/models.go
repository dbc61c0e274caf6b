// Package domain contains persistence models for charging devices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Device represents a physical metering/charging unit. Each device is
// bound to exactly one Cloud Ocean measuring point; consumption fetched
// for that point is billed against this device.
type Device struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	ModelNumber      string       `json:"model_number" gorm:"type:text;not null"`
	SerialNumber     string       `json:"serial_number" gorm:"type:text;not null;uniqueIndex:ux_devices_serial"`
	Location         string       `json:"location" gorm:"type:text"`
	MaxAmperage      float64      `json:"max_amperage"`
	EVSECount        int          `json:"evse_count" gorm:"not null;default:1"`
	MeasuringPointID string       `json:"measuring_point_id" gorm:"type:text;not null;uniqueIndex:ux_devices_measuring_point"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Device) TableName() string { return "devices" }
