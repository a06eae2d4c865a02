package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/fuelops/task-tracker/internal/errors"
	"github.com/fuelops/task-tracker/internal/services"
)

// ReportHandler serves the daily report.
type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// GetDailyReport returns the summary for ?date=YYYY-MM-DD, today by default.
// ?format=html returns the email body instead.
func (h *ReportHandler) GetDailyReport(c *gin.Context) {
	report, err := h.reports.Daily(c.Request.Context(), c.Query("date"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	if c.Query("format") == "html" {
		body, err := h.reports.Render(report)
		if err != nil {
			apierrors.Respond(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(body))
		return
	}
	c.JSON(http.StatusOK, report)
}

// SendDailyReport mails the report for ?date= now
func (h *ReportHandler) SendDailyReport(c *gin.Context) {
	report, err := h.reports.Send(c.Request.Context(), c.Query("date"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Report sent",
		"report":  report,
	})
}
