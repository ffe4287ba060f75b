package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// companyService owns tenants, rosters, and capability resolution.
type companyService struct {
	companyRepo portsrepo.CompanyRepositoryFacade
	userRepo    portsrepo.UserRepositoryFacade
}

// NewCompanyService creates a new company service.
func NewCompanyService(companyRepo portsrepo.CompanyRepositoryFacade, userRepo portsrepo.UserRepositoryFacade) portssvc.CompanySvcFacade {
	return &companyService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
	}
}

var _ portssvc.CompanySvcFacade = (*companyService)(nil)

// memberHolds resolves a capability string against a single membership.
// Owners hold everything; members hold exact grants and module wildcards.
func memberHolds(member *domain.CompanyMember, capability string) bool {
	if member.Role == domain.RoleRemoved {
		return false
	}
	if member.Role == domain.RoleOwner {
		return true
	}
	module, _, found := strings.Cut(capability, ":")
	wildcard := module + ":*"
	for _, grant := range member.Permissions {
		if grant == capability {
			return true
		}
		if found && grant == wildcard {
			return true
		}
	}
	return false
}

// HasCapability reports whether the actor holds the capability in the company.
func (s *companyService) HasCapability(ctx context.Context, actorUserID, companyID, capability string) (bool, error) {
	member, err := s.companyRepo.FindMembership(ctx, actorUserID, companyID)
	if err != nil {
		return false, err
	}
	return memberHolds(member, capability), nil
}

// RequireCapability fails with ErrForbidden when the actor is a member but
// lacks the capability; non-members (and removed members) get ErrNotFound so
// the company's existence is not leaked.
func (s *companyService) RequireCapability(ctx context.Context, actorUserID, companyID, capability string) error {
	member, err := s.companyRepo.FindMembership(ctx, actorUserID, companyID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleRemoved {
		return apperrors.ErrNotFound
	}
	if !memberHolds(member, capability) {
		return fmt.Errorf("%w: missing capability %s", apperrors.ErrForbidden, capability)
	}
	return nil
}

// ListCapabilityHolders returns the user ids of every active member holding
// the capability, owners included.
func (s *companyService) ListCapabilityHolders(ctx context.Context, companyID, capability string) ([]string, error) {
	members, err := s.companyRepo.ListMembers(ctx, companyID)
	if err != nil {
		return nil, err
	}
	holders := make([]string, 0, len(members))
	for i := range members {
		if memberHolds(&members[i], capability) {
			holders = append(holders, members[i].UserID)
		}
	}
	return holders, nil
}

// RequireMember fails with ErrNotFound unless the user is an active member.
func (s *companyService) RequireMember(ctx context.Context, userID, companyID string) error {
	member, err := s.companyRepo.FindMembership(ctx, userID, companyID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleRemoved {
		return apperrors.ErrNotFound
	}
	return nil
}

// GetCompanyByID retrieves a company the requesting user belongs to.
func (s *companyService) GetCompanyByID(ctx context.Context, companyID, requestingUserID string) (*domain.Company, error) {
	if err := s.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	return s.companyRepo.FindCompanyByID(ctx, companyID)
}

// ListMembers retrieves the company's member roster.
func (s *companyService) ListMembers(ctx context.Context, companyID, requestingUserID string) ([]domain.CompanyMember, error) {
	if err := s.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	return s.companyRepo.ListMembers(ctx, companyID)
}

// CreateCompany creates a company with the creator as its owner.
func (s *companyService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	creator, err := s.userRepo.FindUserByID(ctx, creatorUserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	company := domain.Company{
		CompanyID: uuid.NewString(),
		Name:      req.Name,
		TaxID:     req.TaxID,
		IsActive:  true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := s.companyRepo.SaveCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to save company: %w", err)
	}

	owner := domain.CompanyMember{
		UserID:    creatorUserID,
		UserName:  creator.Name,
		CompanyID: company.CompanyID,
		Role:      domain.RoleOwner,
		JoinedAt:  now,
	}
	if err := s.companyRepo.AddMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("failed to add company owner: %w", err)
	}

	logger.Info("Company created", slog.String("company_id", company.CompanyID), slog.String("owner_id", creatorUserID))
	return &company, nil
}

// AddMember adds a user to the company. Only holders of company:manage_members
// (in practice, owners) may change the roster.
func (s *companyService) AddMember(ctx context.Context, companyID, actorUserID string, req dto.AddMemberRequest) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.RequireCapability(ctx, actorUserID, companyID, "company:manage_members"); err != nil {
		return err
	}

	user, err := s.userRepo.FindUserByID(ctx, req.UserID)
	if err != nil {
		return err
	}
	if _, err := s.companyRepo.FindMembership(ctx, req.UserID, companyID); err == nil {
		return fmt.Errorf("%w: user %s is already a member", apperrors.ErrDuplicate, req.UserID)
	}

	member := domain.CompanyMember{
		UserID:      req.UserID,
		UserName:    user.Name,
		CompanyID:   companyID,
		Role:        req.Role,
		Permissions: req.Permissions,
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.companyRepo.AddMember(ctx, member); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	logger.Info("Member added", slog.String("company_id", companyID), slog.String("user_id", req.UserID))
	return nil
}

// UpdateMember changes a member's role or permission strings. Demoting the
// last owner is rejected so a company can never become unmanageable.
func (s *companyService) UpdateMember(ctx context.Context, companyID, actorUserID string, req dto.UpdateMemberRequest) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.RequireCapability(ctx, actorUserID, companyID, "company:manage_members"); err != nil {
		return err
	}

	member, err := s.companyRepo.FindMembership(ctx, req.UserID, companyID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner && req.Role != domain.RoleOwner {
		members, err := s.companyRepo.ListMembers(ctx, companyID)
		if err != nil {
			return err
		}
		owners := 0
		for _, m := range members {
			if m.Role == domain.RoleOwner {
				owners++
			}
		}
		if owners <= 1 {
			return fmt.Errorf("%w: cannot demote the last owner", apperrors.ErrConflict)
		}
	}

	member.Role = req.Role
	member.Permissions = req.Permissions
	if err := s.companyRepo.UpdateMember(ctx, *member); err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}

	logger.Info("Member updated", slog.String("company_id", companyID), slog.String("user_id", req.UserID), slog.String("role", string(req.Role)))
	return nil
}
