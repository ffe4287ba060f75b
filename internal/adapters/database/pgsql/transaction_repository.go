package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
)

const transactionColumns = `
	transaction_id, company_id, kind, counterparty_ref, description,
	base_amount, vat_rate_percent, vat_amount,
	withholding_applicable, withholding_rate_percent, withholding_amount, net_amount,
	document_type, has_tax_document, has_withholding_certificate,
	approval_status, document_status,
	submitted_at, submitted_by, approved_at, approved_by,
	rejected_at, rejected_by, rejection_reason,
	created_at, created_by, last_updated_at, last_updated_by, deleted_at`

type PgxTransactionRepository struct {
	BaseRepository
}

// newPgxTransactionRepository creates a new repository for transaction records.
func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryWithTx {
	return &PgxTransactionRepository{BaseRepository: newBaseRepository(pool)}
}

var _ portsrepo.TransactionRepositoryWithTx = (*PgxTransactionRepository)(nil)

// WithTx runs fn against a transaction-scoped copy of this repository. The
// copy's statements all execute on one database transaction, which commits
// only when fn returns nil.
func (r *PgxTransactionRepository) WithTx(ctx context.Context, fn func(repo portsrepo.TransactionRepositoryFacade) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	txRepo := &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: r.Pool, db: tx}}
	if err := fn(txRepo); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.CompanyID,
		&txn.Kind,
		&txn.CounterpartyRef,
		&txn.Description,
		&txn.BaseAmount,
		&txn.VatRatePercent,
		&txn.VatAmount,
		&txn.WithholdingApplicable,
		&txn.WithholdingRatePercent,
		&txn.WithholdingAmount,
		&txn.NetAmount,
		&txn.DocumentType,
		&txn.HasTaxDocument,
		&txn.HasWithholdingCertificate,
		&txn.ApprovalStatus,
		&txn.DocumentStatus,
		&txn.SubmittedAt,
		&txn.SubmittedBy,
		&txn.ApprovedAt,
		&txn.ApprovedBy,
		&txn.RejectedAt,
		&txn.RejectedBy,
		&txn.RejectionReason,
		&txn.CreatedAt,
		&txn.CreatedBy,
		&txn.LastUpdatedAt,
		&txn.LastUpdatedBy,
		&txn.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}
	return &txn, nil
}

// FindTransactionByID retrieves a transaction by its ID. Soft-deleted rows
// are returned with DeletedAt set.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`
	return scanTransaction(r.db.QueryRow(ctx, query, transactionID))
}

// FindTransactionByIDForUpdate retrieves a transaction holding a row lock
// until the surrounding database transaction ends.
func (r *PgxTransactionRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 FOR UPDATE;`
	return scanTransaction(r.db.QueryRow(ctx, query, transactionID))
}

// ListTransactionsByCompany retrieves non-deleted transactions for a company,
// newest first, narrowed by the filter's non-nil fields.
func (r *PgxTransactionRepository) ListTransactionsByCompany(ctx context.Context, companyID string, filter portsrepo.TransactionListFilter) ([]domain.Transaction, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + transactionColumns + ` FROM transactions WHERE company_id = $1 AND deleted_at IS NULL`)
	args := []any{companyID}

	appendCond := func(column, op string, value any) {
		args = append(args, value)
		sb.WriteString(" AND " + column + " " + op + " $" + strconv.Itoa(len(args)))
	}
	if filter.Kind != nil {
		appendCond("kind", "=", *filter.Kind)
	}
	if filter.ApprovalStatus != nil {
		appendCond("approval_status", "=", *filter.ApprovalStatus)
	}
	if filter.DocumentStatus != nil {
		appendCond("document_status", "=", *filter.DocumentStatus)
	}
	if filter.From != nil {
		appendCond("created_at", ">=", *filter.From)
	}
	if filter.To != nil {
		appendCond("created_at", "<=", *filter.To)
	}
	sb.WriteString(" ORDER BY created_at DESC, transaction_id DESC")
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sb.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sb.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(";")

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txns, nil
}

// SaveTransaction persists a new transaction record.
func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29);
	`
	_, err := r.db.Exec(ctx, query,
		txn.TransactionID, txn.CompanyID, txn.Kind, txn.CounterpartyRef, txn.Description,
		txn.BaseAmount, txn.VatRatePercent, txn.VatAmount,
		txn.WithholdingApplicable, txn.WithholdingRatePercent, txn.WithholdingAmount, txn.NetAmount,
		txn.DocumentType, txn.HasTaxDocument, txn.HasWithholdingCertificate,
		txn.ApprovalStatus, txn.DocumentStatus,
		txn.SubmittedAt, txn.SubmittedBy, txn.ApprovedAt, txn.ApprovedBy,
		txn.RejectedAt, txn.RejectedBy, txn.RejectionReason,
		txn.CreatedAt, txn.CreatedBy, txn.LastUpdatedAt, txn.LastUpdatedBy, txn.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, err)
	}
	return nil
}

// UpdateTransaction persists the full current state of an existing record.
func (r *PgxTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	query := `
		UPDATE transactions SET
			counterparty_ref = $2, description = $3,
			base_amount = $4, vat_rate_percent = $5, vat_amount = $6,
			withholding_applicable = $7, withholding_rate_percent = $8, withholding_amount = $9, net_amount = $10,
			document_type = $11, has_tax_document = $12, has_withholding_certificate = $13,
			approval_status = $14, document_status = $15,
			submitted_at = $16, submitted_by = $17, approved_at = $18, approved_by = $19,
			rejected_at = $20, rejected_by = $21, rejection_reason = $22,
			last_updated_at = $23, last_updated_by = $24
		WHERE transaction_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		txn.TransactionID,
		txn.CounterpartyRef, txn.Description,
		txn.BaseAmount, txn.VatRatePercent, txn.VatAmount,
		txn.WithholdingApplicable, txn.WithholdingRatePercent, txn.WithholdingAmount, txn.NetAmount,
		txn.DocumentType, txn.HasTaxDocument, txn.HasWithholdingCertificate,
		txn.ApprovalStatus, txn.DocumentStatus,
		txn.SubmittedAt, txn.SubmittedBy, txn.ApprovedAt, txn.ApprovedBy,
		txn.RejectedAt, txn.RejectedBy, txn.RejectionReason,
		txn.LastUpdatedAt, txn.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", txn.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SoftDeleteTransaction marks a transaction as deleted.
func (r *PgxTransactionRepository) SoftDeleteTransaction(ctx context.Context, transactionID string, deletedBy string, deletedAt time.Time) error {
	query := `
		UPDATE transactions
		SET deleted_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE transaction_id = $1 AND deleted_at IS NULL;
	`
	tag, err := r.db.Exec(ctx, query, transactionID, deletedAt, deletedBy)
	if err != nil {
		return fmt.Errorf("failed to soft delete transaction %s: %w", transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
