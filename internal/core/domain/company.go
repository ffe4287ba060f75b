package domain

import "time"

// Company represents an isolated tenant owning transactions and payments.
type Company struct {
	CompanyID   string  `json:"companyID"` // Primary Key (e.g., UUID)
	Name        string  `json:"name"`
	TaxID       *string `json:"taxID,omitempty"` // Registered tax identifier
	IsActive    bool    `json:"isActive"`
	AuditFields         // Embed common audit fields
}

// CompanyRole defines the possible roles a user can have within a company.
type CompanyRole string

const (
	RoleOwner   CompanyRole = "OWNER" // Owners bypass all capability checks
	RoleMember  CompanyRole = "MEMBER"
	RoleRemoved CompanyRole = "REMOVED" // For users who have been removed from the company
)

// CompanyMember represents the membership of a User in a Company, including
// the permission strings that feed capability resolution. A permission is a
// "module:action" pair; "module:*" grants every action in that module.
type CompanyMember struct {
	UserID      string      `json:"userID"` // FK -> users.user_id
	UserName    string      `json:"userName"`
	CompanyID   string      `json:"companyID"` // FK -> companies.company_id
	Role        CompanyRole `json:"role"`
	Permissions []string    `json:"permissions"`
	JoinedAt    time.Time   `json:"joinedAt"`
}
