package repositories

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
)

// CompanyReader defines read operations for companies and memberships.
type CompanyReader interface {
	// FindCompanyByID retrieves a company by its identifier.
	FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error)

	// FindMembership retrieves a user's membership in a company, or
	// apperrors.ErrNotFound when the user is not a member.
	FindMembership(ctx context.Context, userID, companyID string) (*domain.CompanyMember, error)

	// ListMembers retrieves the full member roster of a company.
	ListMembers(ctx context.Context, companyID string) ([]domain.CompanyMember, error)
}

// CompanyWriter defines write operations for companies and memberships.
type CompanyWriter interface {
	// SaveCompany persists a new company.
	SaveCompany(ctx context.Context, company domain.Company) error

	// AddMember persists a new membership row.
	AddMember(ctx context.Context, member domain.CompanyMember) error

	// UpdateMember updates a membership's role and permission strings.
	UpdateMember(ctx context.Context, member domain.CompanyMember) error
}

// CompanyRepositoryFacade combines all company repository interfaces.
type CompanyRepositoryFacade interface {
	CompanyReader
	CompanyWriter
}
