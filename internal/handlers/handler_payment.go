package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// paymentHandler handles HTTP requests for payment attributions and settlement.
type paymentHandler struct {
	settlementService portssvc.SettlementSvcFacade
	dispatcher        portssvc.EventDispatcher
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(ss portssvc.SettlementSvcFacade, dispatcher portssvc.EventDispatcher) *paymentHandler {
	return &paymentHandler{
		settlementService: ss,
		dispatcher:        dispatcher,
	}
}

// registerPaymentRoutes registers settlement routes nested under a company.
func registerPaymentRoutes(rg *gin.RouterGroup, ss portssvc.SettlementSvcFacade, dispatcher portssvc.EventDispatcher) {
	h := newPaymentHandler(ss, dispatcher)

	rg.PUT("/transactions/:transaction_id/payments", h.attachPayments)
	rg.GET("/transactions/:transaction_id/payments", h.listPayments)

	payments := rg.Group("/payments")
	{
		payments.GET("/:payment_id", h.getPayment)
		payments.POST("/:payment_id/settle", h.settlePayment)
		payments.POST("/:payment_id/reverse", h.reversePayment)
		payments.POST("/batch-settle", h.batchSettle)
		payments.GET("/summary/by-person", h.summarizeByPerson)
		payments.GET("/summary/by-month", h.summarizeByMonth)
	}
}

// attachPayments godoc
// @Summary Attach payment attributions
// @Description Rebuilds the who-paid list of an expense. Settled rows survive the rebuild untouched.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Param   attributions body dto.AttachPaymentsRequest true "Attribution rows"
// @Success 200 {array} dto.PaymentResponse
// @Failure 400 {object} map[string]string "Invalid input or amounts exceed net"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id}/payments [put]
func (h *paymentHandler) attachPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	var req dto.AttachPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind attach payments request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payments, err := h.settlementService.AttachPayments(c.Request.Context(), companyID, transactionID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// listPayments godoc
// @Summary List payment attributions
// @Description Lists the attribution rows of a transaction.
// @Tags payments
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 200 {array} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id}/payments [get]
func (h *paymentHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payments, err := h.settlementService.ListPayments(c.Request.Context(), companyID, transactionID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponses(payments))
}

// getPayment godoc
// @Summary Get a payment attribution
// @Description Retrieves a single attribution row with its settlement state and history.
// @Tags payments
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   payment_id path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /companies/{company_id}/payments/{payment_id} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	paymentID := c.Param("payment_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, err := h.settlementService.GetPayment(c.Request.Context(), companyID, paymentID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// settlePayment godoc
// @Summary Settle a payment
// @Description Marks a pending reimbursement as paid out with a settlement reference.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   payment_id path string true "Payment ID"
// @Param   settlement body dto.SettlePaymentRequest true "Settlement reference"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Already settled or approval pending"
// @Security BearerAuth
// @Router /companies/{company_id}/payments/{payment_id}/settle [post]
func (h *paymentHandler) settlePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	paymentID := c.Param("payment_id")

	var req dto.SettlePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind settle request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, events, err := h.settlementService.SettlePayment(c.Request.Context(), companyID, paymentID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// reversePayment godoc
// @Summary Reverse a settlement
// @Description Returns a settled row to pending. The original settlement metadata is kept as history.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   payment_id path string true "Payment ID"
// @Param   reversal body dto.ReversePaymentRequest true "Reversal reason"
// @Success 200 {object} dto.PaymentResponse
// @Failure 409 {object} map[string]string "Not settled"
// @Security BearerAuth
// @Router /companies/{company_id}/payments/{payment_id}/reverse [post]
func (h *paymentHandler) reversePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	paymentID := c.Param("payment_id")

	var req dto.ReversePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind reverse request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	payment, events, err := h.settlementService.ReversePayment(c.Request.Context(), companyID, paymentID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// batchSettle godoc
// @Summary Batch settle payments
// @Description Settles many pending rows at once with per-id outcomes; optionally synthesizes a reimbursement expense per payer.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   batch body dto.BatchSettleRequest true "Payment ids and reference"
// @Success 200 {object} dto.BatchSettleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /companies/{company_id}/payments/batch-settle [post]
func (h *paymentHandler) batchSettle(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.BatchSettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind batch settle request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	resp, err := h.settlementService.BatchSettle(c.Request.Context(), companyID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// summarizeByPerson godoc
// @Summary Per-person settlement summary
// @Description Reports pending and settled reimbursement totals for every company member.
// @Tags payments
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Success 200 {array} domain.PersonSettlementSummary
// @Security BearerAuth
// @Router /companies/{company_id}/payments/summary/by-person [get]
func (h *paymentHandler) summarizeByPerson(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summaries, err := h.settlementService.SummarizeByPerson(c.Request.Context(), companyID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}

// summarizeByMonth godoc
// @Summary Monthly settlement summary
// @Description Reports monthly pending and settled reimbursement totals for a year.
// @Tags payments
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   year query int true "Year (e.g. 2026)"
// @Success 200 {array} domain.MonthlySettlementSummary
// @Failure 400 {object} map[string]string "Invalid year"
// @Security BearerAuth
// @Router /companies/{company_id}/payments/summary/by-month [get]
func (h *paymentHandler) summarizeByMonth(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil || year < 2000 || year > 2200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	summaries, err := h.settlementService.SummarizeByMonth(c.Request.Context(), companyID, userID, year)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, summaries)
}
