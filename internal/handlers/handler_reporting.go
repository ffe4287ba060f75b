package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// reportingHandler handles HTTP requests for tax computation and summaries.
type reportingHandler struct {
	reportingService portssvc.ReportingSvc
}

// newReportingHandler creates a new reportingHandler.
func newReportingHandler(rs portssvc.ReportingSvc) *reportingHandler {
	return &reportingHandler{reportingService: rs}
}

// registerReportingRoutes registers reporting routes nested under a company.
func registerReportingRoutes(rg *gin.RouterGroup, rs portssvc.ReportingSvc) {
	h := newReportingHandler(rs)

	reports := rg.Group("/reports")
	{
		reports.POST("/compute-totals", h.computeTotals)
		reports.GET("/tax-summary", h.taxSummary)
	}
}

// computeTotals godoc
// @Summary Compute transaction totals
// @Description Computes VAT, withholding and net amounts for given base amount and rates without persisting anything.
// @Tags reports
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   amounts body dto.ComputeTotalsRequest true "Base amount and rates"
// @Success 200 {object} tax.TransactionTotals
// @Failure 400 {object} map[string]string "Invalid amount or rate"
// @Security BearerAuth
// @Router /companies/{company_id}/reports/compute-totals [post]
func (h *reportingHandler) computeTotals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ComputeTotalsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind compute totals request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	totals, err := h.reportingService.ComputeTotals(req.BaseAmount, req.VatRatePercent, req.WithholdingRatePercent)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, totals)
}

// taxSummary godoc
// @Summary Period tax summary
// @Description Aggregates input/output VAT and withholding positions over a date range.
// @Tags reports
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   from query string true "Period start (YYYY-MM-DD)"
// @Param   to query string true "Period end (YYYY-MM-DD)"
// @Success 200 {object} dto.TaxSummaryResponse
// @Failure 400 {object} map[string]string "Invalid period"
// @Security BearerAuth
// @Router /companies/{company_id}/reports/tax-summary [get]
func (h *reportingHandler) taxSummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var params dto.TaxSummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to query parameters are required"})
		return
	}

	from, err := time.Parse("2006-01-02", params.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date, expected YYYY-MM-DD"})
		return
	}
	to, err := time.Parse("2006-01-02", params.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date, expected YYYY-MM-DD"})
		return
	}
	// Make the end date inclusive of the whole day.
	to = to.Add(24*time.Hour - time.Nanosecond)
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must not be before from"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summary, err := h.reportingService.SummarizeTaxes(c.Request.Context(), companyID, userID, from, to)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
