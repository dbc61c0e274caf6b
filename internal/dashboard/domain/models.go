// Package domain contains the dashboard read model.
package domain

// ConsumptionSeries is the chart-ready consumption snapshot: parallel
// label/value sequences keyed by measuring point.
type ConsumptionSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// RecentInvoice is the invoice summary shown on the dashboard.
type RecentInvoice struct {
	InvoiceNumber string  `json:"invoice_number"`
	DeviceID      string  `json:"device_id"`
	TotalAmount   float64 `json:"total_amount"`
	Status        string  `json:"status"`
}

// TrendPoint is one bucket of the historical consumption series.
type TrendPoint struct {
	Date        string  `json:"date"`
	Consumption float64 `json:"consumption"`
}

// DashboardView backs the HTML dashboard page.
type DashboardView struct {
	Consumption    ConsumptionSeries `json:"consumption"`
	RecentInvoices []RecentInvoice   `json:"recent_invoices"`
}

// DashboardData is the JSON read model served to the API.
type DashboardData struct {
	Consumption    map[string]float64 `json:"consumption"`
	Trend          []TrendPoint       `json:"trend"`
	RecentInvoices []RecentInvoice    `json:"recent_invoices"`
}
