package handlers

import (
	"net/http"

	"veridie/services/diagnostics"

	"github.com/gin-gonic/gin"
)

// DiagnosticsHandler serves the admin diagnostics report.
type DiagnosticsHandler struct {
	Reporter diagnostics.Reporter
}

func NewDiagnosticsHandler(reporter diagnostics.Reporter) *DiagnosticsHandler {
	return &DiagnosticsHandler{Reporter: reporter}
}

// ReportHandler runs all diagnostics checks. Pass consultantId to include
// per-consultant consistency checks.
func (h *DiagnosticsHandler) ReportHandler(c *gin.Context) {
	report := h.Reporter.Run(c.Request.Context(), c.Query("consultantId"))
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, report)
}
