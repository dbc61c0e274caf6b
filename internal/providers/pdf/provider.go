package pdf

import "context"

// InvoiceDocument is the structured invoice description handed to the
// renderer.
type InvoiceDocument struct {
	InvoiceNumber string

	IssuerName    string
	IssuerAddress string
	IssuerPhone   string
	IssuerEmail   string
	IssuerWebsite string

	PeriodStart string // YYYY-MM-DD
	PeriodEnd   string // YYYY-MM-DD
	DueDate     string // YYYY-MM-DD

	TotalKWh    float64
	TotalAmount float64
	Currency    string

	Sessions []ChargingSession
}

// ChargingSession is one line item; session amounts sum to the invoice
// total.
type ChargingSession struct {
	Date      string
	StartTime string
	EndTime   string
	Duration  string
	KWh       float64
	Rate      float64
	Amount    float64
}

// Renderer produces a PDF artifact on durable storage and returns its
// path.
type Renderer interface {
	RenderInvoice(ctx context.Context, doc InvoiceDocument) (string, error)
}
