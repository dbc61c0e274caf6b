package domain

import (
	"context"
	"errors"
	"time"
)

// GenerateRequest optionally overrides the billing period. When both
// bounds are nil the previous calendar month up to now is billed.
type GenerateRequest struct {
	PeriodStart *time.Time
	PeriodEnd   *time.Time
}

// GenerationResult is one successfully invoiced measuring point. Failed
// items are logged and skipped, never reported here.
type GenerationResult struct {
	InvoiceNumber string        `json:"invoice_number"`
	TotalAmount   float64       `json:"total_amount"`
	Status        InvoiceStatus `json:"status"`
}

type GenerateResponse struct {
	Invoices []GenerationResult `json:"invoices"`
	Count    int                `json:"count"`
}

// RenderResponse points at a freshly rendered PDF artifact.
type RenderResponse struct {
	Path     string
	Filename string
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
	List(ctx context.Context, limit int) ([]Invoice, error)
	GetByID(ctx context.Context, id string) (*Invoice, error)
	RenderPDF(ctx context.Context, id string) (RenderResponse, error)
}

var (
	ErrInvoiceNotFound = errors.New("invoice_not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidPeriod   = errors.New("invalid_period")
	ErrDuplicateNumber = errors.New("duplicate_invoice_number")
)
