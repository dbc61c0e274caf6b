// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states. The generation
// workflow only ever produces pending; paid and void are terminal states
// applied elsewhere.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusVoid    InvoiceStatus = "void"
)

// Invoice is a billing document for one device over one period.
// PDFPath stays null until rendering succeeds; the row itself is durable
// before the render starts.
type Invoice struct {
	ID                 snowflake.ID      `json:"id" gorm:"primaryKey"`
	DeviceID           snowflake.ID      `json:"device_id" gorm:"not null;index"`
	InvoiceNumber      string            `json:"invoice_number" gorm:"type:text;not null;uniqueIndex:ux_invoices_number"`
	BillingPeriodStart time.Time         `json:"billing_period_start" gorm:"not null"`
	BillingPeriodEnd   time.Time         `json:"billing_period_end" gorm:"not null"`
	TotalKWh           float64           `json:"total_kwh" gorm:"column:total_kwh;not null"`
	TotalAmount        float64           `json:"total_amount" gorm:"not null"`
	Status             InvoiceStatus     `json:"status" gorm:"type:text;not null;default:'pending'"`
	PDFPath            *string           `json:"pdf_path" gorm:"column:pdf_path;type:text"`
	Metadata           datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt          time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt          time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// MeasuringPoint returns the measuring point the invoice was generated
// from, if recorded.
func (i Invoice) MeasuringPoint() string {
	if i.Metadata == nil {
		return ""
	}
	if v, ok := i.Metadata["measuring_point_id"].(string); ok {
		return v
	}
	return ""
}
