package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dashboard renders the HTML dashboard. Fetch failures degrade to an
// empty page rather than an error.
func (s *Server) Dashboard(c *gin.Context) {
	view := s.dashboardSvc.BuildDashboard(c.Request.Context())

	c.HTML(http.StatusOK, "dashboard.html", gin.H{
		"AppName":        s.cfg.AppName,
		"Consumption":    view.Consumption,
		"RecentInvoices": view.RecentInvoices,
	})
}

// InvoicesPage lists invoices newest first.
func (s *Server) InvoicesPage(c *gin.Context) {
	invoices, err := s.invoiceSvc.List(c.Request.Context(), 0)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.HTML(http.StatusOK, "invoices.html", gin.H{
		"AppName":  s.cfg.AppName,
		"Invoices": invoices,
	})
}

// DashboardData serves the JSON read model behind the dashboard charts.
// Unlike the HTML page it surfaces provider failures so the frontend
// can show an error state.
func (s *Server) DashboardData(c *gin.Context) {
	data, err := s.dashboardSvc.Data(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// TestCloudOcean probes the metering provider with the configured
// module and measuring points over the last 24 hours.
func (s *Server) TestCloudOcean(c *gin.Context) {
	billing := s.billing.Get()
	end := time.Now().UTC()
	start := end.Add(-24 * time.Hour)

	consumption, err := s.source.ModuleConsumption(c.Request.Context(), billing.ModuleID, billing.MeasuringPoints, start, end)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"module_id":   billing.ModuleID,
			"consumption": consumption,
			"period": gin.H{
				"start": start.Format(time.RFC3339),
				"end":   end.Format(time.RFC3339),
			},
		},
	})
}
