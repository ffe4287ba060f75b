package services

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/dto"
)

// CapabilityResolverSvc is the single place capability strings are resolved.
// A capability is a "module:action" pair; members may hold exact grants or
// module wildcards ("module:*"), and company owners bypass every check.
type CapabilityResolverSvc interface {
	// HasCapability reports whether the actor holds the capability in the company.
	HasCapability(ctx context.Context, actorUserID, companyID, capability string) (bool, error)

	// RequireCapability returns apperrors.ErrForbidden (or ErrNotFound for
	// non-members) when the actor lacks the capability.
	RequireCapability(ctx context.Context, actorUserID, companyID, capability string) error

	// ListCapabilityHolders returns the user ids of every member holding the
	// capability, owners included.
	ListCapabilityHolders(ctx context.Context, companyID, capability string) ([]string, error)

	// RequireMember returns apperrors.ErrNotFound when the user is not an
	// active member of the company. Plain membership is enough to read.
	RequireMember(ctx context.Context, userID, companyID string) error
}

// CompanyReaderSvc defines read operations for companies and rosters.
type CompanyReaderSvc interface {
	// GetCompanyByID retrieves a company the requesting user belongs to.
	GetCompanyByID(ctx context.Context, companyID, requestingUserID string) (*domain.Company, error)

	// ListMembers retrieves the company's member roster.
	ListMembers(ctx context.Context, companyID, requestingUserID string) ([]domain.CompanyMember, error)
}

// CompanyWriterSvc defines write operations for companies and memberships.
type CompanyWriterSvc interface {
	// CreateCompany creates a company with the creator as its owner.
	CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error)

	// AddMember adds a user to the company with a role and permissions.
	AddMember(ctx context.Context, companyID, actorUserID string, req dto.AddMemberRequest) error

	// UpdateMember changes a member's role or permission strings.
	UpdateMember(ctx context.Context, companyID, actorUserID string, req dto.UpdateMemberRequest) error
}

// CompanySvcFacade combines all company-related service interfaces.
type CompanySvcFacade interface {
	CapabilityResolverSvc
	CompanyReaderSvc
	CompanyWriterSvc
}
