package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
)

type PgxCompanyRepository struct {
	BaseRepository
}

// newPgxCompanyRepository creates a new repository for companies and memberships.
func newPgxCompanyRepository(pool *pgxpool.Pool) portsrepo.CompanyRepositoryFacade {
	return &PgxCompanyRepository{BaseRepository: newBaseRepository(pool)}
}

var _ portsrepo.CompanyRepositoryFacade = (*PgxCompanyRepository)(nil)

// FindCompanyByID retrieves a company by its identifier.
func (r *PgxCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	query := `
		SELECT company_id, name, tax_id, is_active, created_at, created_by, last_updated_at, last_updated_by
		FROM companies
		WHERE company_id = $1;
	`
	var c domain.Company
	err := r.db.QueryRow(ctx, query, companyID).Scan(
		&c.CompanyID,
		&c.Name,
		&c.TaxID,
		&c.IsActive,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find company %s: %w", companyID, err)
	}
	return &c, nil
}

// FindMembership retrieves a user's membership in a company.
func (r *PgxCompanyRepository) FindMembership(ctx context.Context, userID, companyID string) (*domain.CompanyMember, error) {
	query := `
		SELECT m.user_id, u.name, m.company_id, m.role, m.permissions, m.joined_at
		FROM company_members m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.user_id = $1 AND m.company_id = $2;
	`
	var member domain.CompanyMember
	err := r.db.QueryRow(ctx, query, userID, companyID).Scan(
		&member.UserID,
		&member.UserName,
		&member.CompanyID,
		&member.Role,
		&member.Permissions,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find membership of user %s in company %s: %w", userID, companyID, err)
	}
	return &member, nil
}

// ListMembers retrieves the full member roster of a company.
func (r *PgxCompanyRepository) ListMembers(ctx context.Context, companyID string) ([]domain.CompanyMember, error) {
	query := `
		SELECT m.user_id, u.name, m.company_id, m.role, m.permissions, m.joined_at
		FROM company_members m
		JOIN users u ON u.user_id = m.user_id
		WHERE m.company_id = $1
		ORDER BY m.joined_at, m.user_id;
	`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of company %s: %w", companyID, err)
	}
	defer rows.Close()

	var members []domain.CompanyMember
	for rows.Next() {
		var m domain.CompanyMember
		if err := rows.Scan(&m.UserID, &m.UserName, &m.CompanyID, &m.Role, &m.Permissions, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}
	return members, nil
}

// SaveCompany persists a new company.
func (r *PgxCompanyRepository) SaveCompany(ctx context.Context, company domain.Company) error {
	query := `
		INSERT INTO companies (company_id, name, tax_id, is_active, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.db.Exec(ctx, query,
		company.CompanyID,
		company.Name,
		company.TaxID,
		company.IsActive,
		company.CreatedAt,
		company.CreatedBy,
		company.LastUpdatedAt,
		company.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert company %s: %w", company.CompanyID, err)
	}
	return nil
}

// AddMember persists a new membership row.
func (r *PgxCompanyRepository) AddMember(ctx context.Context, member domain.CompanyMember) error {
	query := `
		INSERT INTO company_members (user_id, company_id, role, permissions, joined_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.db.Exec(ctx, query,
		member.UserID,
		member.CompanyID,
		member.Role,
		member.Permissions,
		member.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert membership of user %s in company %s: %w", member.UserID, member.CompanyID, err)
	}
	return nil
}

// UpdateMember updates a membership's role and permission strings.
func (r *PgxCompanyRepository) UpdateMember(ctx context.Context, member domain.CompanyMember) error {
	query := `
		UPDATE company_members
		SET role = $3, permissions = $4
		WHERE user_id = $1 AND company_id = $2;
	`
	tag, err := r.db.Exec(ctx, query, member.UserID, member.CompanyID, member.Role, member.Permissions)
	if err != nil {
		return fmt.Errorf("failed to update membership of user %s in company %s: %w", member.UserID, member.CompanyID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
