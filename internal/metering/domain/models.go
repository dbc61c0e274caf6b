// Package domain contains the consumption read model and the metering
// source contract.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ConsumptionRecord is one metered reading billed against a device.
// Records are immutable once created.
type ConsumptionRecord struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	DeviceID  snowflake.ID `json:"device_id" gorm:"not null;index"`
	Timestamp time.Time    `json:"timestamp" gorm:"not null;default:CURRENT_TIMESTAMP"`
	KWh       float64      `json:"kwh" gorm:"column:kwh;not null"`
	Rate      float64      `json:"rate" gorm:"not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (ConsumptionRecord) TableName() string { return "consumption_records" }
