package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/wattbill/internal/invoice/domain"
	"go.uber.org/zap"
)

type generateInvoicesRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// GenerateInvoices runs the billing workflow for the requested period,
// defaulting to the previous calendar month. The response keeps the
// success envelope the dashboard frontend expects.
func (s *Server) GenerateInvoices(c *gin.Context) {
	var body generateInvoicesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "invalid request body",
			})
			return
		}
	}

	req := invoicedomain.GenerateRequest{}
	if body.PeriodStart != "" {
		start, err := time.Parse(time.RFC3339, body.PeriodStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "period_start must be RFC 3339",
			})
			return
		}
		req.PeriodStart = &start
	}
	if body.PeriodEnd != "" {
		end, err := time.Parse(time.RFC3339, body.PeriodEnd)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "period_end must be RFC 3339",
			})
			return
		}
		req.PeriodEnd = &end
	}

	resp, err := s.invoiceSvc.Generate(c.Request.Context(), req)
	if err != nil {
		s.log.Error("invoice generation failed", zap.Error(err))
		status := http.StatusInternalServerError
		if code, _ := mapError(err); code == http.StatusBadRequest {
			status = code
		}
		c.JSON(status, gin.H{
			"success": false,
			"message": fmt.Sprintf("Error generating invoices: %v", err),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  fmt.Sprintf("Generated %d invoices", resp.Count),
		"invoices": resp.Invoices,
	})
}

// DownloadInvoice renders the invoice PDF and streams it back as an
// attachment. The artifact is rebuilt on every download so edits to the
// underlying consumption records are always reflected.
func (s *Server) DownloadInvoice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	resp, err := s.invoiceSvc.RenderPDF(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.FileAttachment(resp.Path, resp.Filename)
}
