package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// transactionHandler handles HTTP requests for expense and income records.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
	dispatcher         portssvc.EventDispatcher
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(ts portssvc.TransactionSvcFacade, dispatcher portssvc.EventDispatcher) *transactionHandler {
	return &transactionHandler{
		transactionService: ts,
		dispatcher:         dispatcher,
	}
}

// registerTransactionRoutes registers transaction routes nested under a company.
func registerTransactionRoutes(rg *gin.RouterGroup, ts portssvc.TransactionSvcFacade, dispatcher portssvc.EventDispatcher) {
	h := newTransactionHandler(ts, dispatcher)

	transactions := rg.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transaction_id", h.getTransaction)
		transactions.POST("/:transaction_id/submit", h.submitTransaction)
		transactions.POST("/:transaction_id/decision", h.decideApproval)
		transactions.PATCH("/:transaction_id/document", h.updateDocumentFlags)
		transactions.DELETE("/:transaction_id", h.deleteTransaction)
	}
}

// createTransaction godoc
// @Summary Create a transaction record
// @Description Creates a new expense or income record in DRAFT with computed tax amounts.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction body dto.CreateTransactionRequest true "Transaction details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Missing capability"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind create transaction request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, events, err := h.transactionService.CreateTransaction(c.Request.Context(), companyID, req, creatorUserID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary List transactions
// @Description Lists a company's transactions with optional kind/status/date filters.
// @Tags transactions
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   kind query string false "EXPENSE or INCOME"
// @Param   approvalStatus query string false "Approval status filter"
// @Param   documentStatus query string false "Document status filter"
// @Param   from query string false "Created on/after (YYYY-MM-DD)"
// @Param   to query string false "Created on/before (YYYY-MM-DD)"
// @Success 200 {array} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid filters"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind transaction list params", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txns, err := h.transactionService.ListTransactions(c.Request.Context(), companyID, userID, params)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponses(txns))
}

// getTransaction godoc
// @Summary Get a transaction
// @Description Retrieves a single transaction record by ID.
// @Tags transactions
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.transactionService.GetTransactionByID(c.Request.Context(), companyID, transactionID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// submitTransaction godoc
// @Summary Submit a transaction for approval
// @Description Moves a DRAFT record into the workflow; enters the approval gate unless the actor may create directly.
// @Tags transactions
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 409 {object} map[string]string "Invalid transition"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id}/submit [post]
func (h *transactionHandler) submitTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, events, err := h.transactionService.SubmitTransaction(c.Request.Context(), companyID, transactionID, actorUserID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	logger.Info("Transaction submitted", slog.String("transaction_id", transactionID))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// decideApproval godoc
// @Summary Approve or reject a transaction
// @Description Records an approval decision on a pending record. Submitters cannot decide their own submissions.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Param   decision body dto.DecideApprovalRequest true "Decision"
// @Success 200 {object} dto.TransactionResponse
// @Failure 403 {object} map[string]string "Self approval or missing capability"
// @Failure 409 {object} map[string]string "Invalid transition"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id}/decision [post]
func (h *transactionHandler) decideApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	var req dto.DecideApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind decision request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, events, err := h.transactionService.DecideApproval(c.Request.Context(), companyID, transactionID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	logger.Info("Approval decided", slog.String("transaction_id", transactionID), slog.String("decision", string(req.Decision)))
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// updateDocumentFlags godoc
// @Summary Update document flags
// @Description Updates document-collection flags or rates and re-derives the document status; an explicit status is applied verbatim as a manual correction.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Param   flags body dto.UpdateDocumentFlagsRequest true "Flag changes"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id}/document [patch]
func (h *transactionHandler) updateDocumentFlags(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	var req dto.UpdateDocumentFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind document flags request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, events, err := h.transactionService.UpdateDocumentFlags(c.Request.Context(), companyID, transactionID, actorUserID, req)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// deleteTransaction godoc
// @Summary Delete a transaction
// @Description Soft-deletes a record. Records with settled payment history cannot be deleted.
// @Tags transactions
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   transaction_id path string true "Transaction ID"
// @Success 204 "Deleted"
// @Failure 409 {object} map[string]string "Settled payments exist"
// @Security BearerAuth
// @Router /companies/{company_id}/transactions/{transaction_id} [delete]
func (h *transactionHandler) deleteTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")
	transactionID := c.Param("transaction_id")

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	events, err := h.transactionService.DeleteTransaction(c.Request.Context(), companyID, transactionID, actorUserID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}
	h.dispatcher.Dispatch(c.Request.Context(), events)

	logger.Info("Transaction deleted", slog.String("transaction_id", transactionID))
	c.Status(http.StatusNoContent)
}
