package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// companyHandler handles HTTP requests related to companies and rosters.
type companyHandler struct {
	companyService portssvc.CompanySvcFacade
}

// newCompanyHandler creates a new companyHandler.
func newCompanyHandler(cs portssvc.CompanySvcFacade) *companyHandler {
	return &companyHandler{companyService: cs}
}

// registerCompanyRoutes registers company routes and nests the per-company
// transaction, payment and reporting routes under /companies/:company_id.
func registerCompanyRoutes(rg *gin.RouterGroup, services *portssvc.ServiceContainer) {
	h := newCompanyHandler(services.Company)

	companies := rg.Group("/companies")
	{
		companies.POST("", h.createCompany)
	}

	companySpecific := rg.Group("/companies/:company_id")
	{
		companySpecific.GET("", h.getCompany)

		members := companySpecific.Group("/members")
		{
			members.GET("", h.listMembers)
			members.POST("", h.addMember)
			members.PUT("", h.updateMember)
		}

		registerTransactionRoutes(companySpecific, services.Transaction, services.Dispatcher)
		registerPaymentRoutes(companySpecific, services.Settlement, services.Dispatcher)
		registerReportingRoutes(companySpecific, services.Reporting)
	}
}

// createCompany godoc
// @Summary Create a company
// @Description Creates a new company and assigns the creator as its owner.
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   company body dto.CreateCompanyRequest true "Company details"
// @Success 201 {object} dto.CompanyResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /companies [post]
func (h *companyHandler) createCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind create company request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	company, err := h.companyService.CreateCompany(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	logger.Info("Company created", slog.String("company_id", company.CompanyID))
	c.JSON(http.StatusCreated, dto.ToCompanyResponse(company))
}

// getCompany godoc
// @Summary Get a company
// @Description Retrieves a company the requesting user belongs to.
// @Tags companies
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Success 200 {object} dto.CompanyResponse
// @Failure 404 {object} map[string]string "Not found"
// @Security BearerAuth
// @Router /companies/{company_id} [get]
func (h *companyHandler) getCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	company, err := h.companyService.GetCompanyByID(c.Request.Context(), companyID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyResponse(company))
}

// listMembers godoc
// @Summary List company members
// @Description Retrieves the company's member roster with roles and permissions.
// @Tags companies
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Success 200 {array} dto.MemberResponse
// @Failure 404 {object} map[string]string "Not a member"
// @Security BearerAuth
// @Router /companies/{company_id}/members [get]
func (h *companyHandler) listMembers(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	members, err := h.companyService.ListMembers(c.Request.Context(), companyID, userID)
	if err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMemberResponses(members))
}

// addMember godoc
// @Summary Add a company member
// @Description Adds a user to the company with a role and permission strings.
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   member body dto.AddMemberRequest true "Member details"
// @Success 201 "Added"
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /companies/{company_id}/members [post]
func (h *companyHandler) addMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind add member request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.companyService.AddMember(c.Request.Context(), companyID, actorUserID, req); err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.Status(http.StatusCreated)
}

// updateMember godoc
// @Summary Update a company member
// @Description Changes a member's role or permission strings.
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   company_id path string true "Company ID"
// @Param   member body dto.UpdateMemberRequest true "Member changes"
// @Success 204 "Updated"
// @Failure 409 {object} map[string]string "Cannot demote last owner"
// @Security BearerAuth
// @Router /companies/{company_id}/members [put]
func (h *companyHandler) updateMember(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind update member request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	actorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.companyService.UpdateMember(c.Request.Context(), companyID, actorUserID, req); err != nil {
		respondWithError(c, logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}
