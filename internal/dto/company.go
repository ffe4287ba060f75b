package dto

import (
	"time"

	"github.com/NattKh/findoc_app/internal/core/domain"
)

// CreateCompanyRequest creates a new tenant.
type CreateCompanyRequest struct {
	Name  string  `json:"name" binding:"required"`
	TaxID *string `json:"taxID"`
}

// AddMemberRequest adds a user to a company.
type AddMemberRequest struct {
	UserID      string             `json:"userID" binding:"required"`
	Role        domain.CompanyRole `json:"role" binding:"required,oneof=OWNER MEMBER"`
	Permissions []string           `json:"permissions"`
}

// UpdateMemberRequest changes a member's role or permission strings.
type UpdateMemberRequest struct {
	UserID      string             `json:"userID" binding:"required"`
	Role        domain.CompanyRole `json:"role" binding:"required,oneof=OWNER MEMBER REMOVED"`
	Permissions []string           `json:"permissions"`
}

// CompanyResponse is the wire shape of a company.
type CompanyResponse struct {
	CompanyID string    `json:"companyID"`
	Name      string    `json:"name"`
	TaxID     *string   `json:"taxID,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberResponse is the wire shape of a company membership.
type MemberResponse struct {
	UserID      string             `json:"userID"`
	UserName    string             `json:"userName"`
	Role        domain.CompanyRole `json:"role"`
	Permissions []string           `json:"permissions"`
	JoinedAt    time.Time          `json:"joinedAt"`
}

// ToCompanyResponse converts a domain.Company to its wire shape.
func ToCompanyResponse(c *domain.Company) CompanyResponse {
	return CompanyResponse{
		CompanyID: c.CompanyID,
		Name:      c.Name,
		TaxID:     c.TaxID,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
	}
}

// ToMemberResponses converts a member roster to its wire shape.
func ToMemberResponses(members []domain.CompanyMember) []MemberResponse {
	responses := make([]MemberResponse, len(members))
	for i, m := range members {
		responses[i] = MemberResponse{
			UserID:      m.UserID,
			UserName:    m.UserName,
			Role:        m.Role,
			Permissions: m.Permissions,
			JoinedAt:    m.JoinedAt,
		}
	}
	return responses
}
