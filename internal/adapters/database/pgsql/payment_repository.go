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

const paymentColumns = `
	payment_id, transaction_id, payer_type, payer_ref, amount,
	settlement_status, settled_at, settled_by, settlement_reference, attachment_refs,
	reversed_at, reversed_by, reversal_reason, history,
	created_at, created_by, last_updated_at, last_updated_by`

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment attribution rows.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{BaseRepository: newBaseRepository(pool)}
}

var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

// WithTx runs fn against a transaction-scoped copy of this repository.
func (r *PgxPaymentRepository) WithTx(ctx context.Context, fn func(repo portsrepo.PaymentRepositoryFacade) error) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	txRepo := &PgxPaymentRepository{BaseRepository: BaseRepository{Pool: r.Pool, db: tx}}
	if err := fn(txRepo); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

func scanPayment(row pgx.Row) (*domain.PaymentAttribution, error) {
	var p domain.PaymentAttribution
	err := row.Scan(
		&p.PaymentID,
		&p.TransactionID,
		&p.PayerType,
		&p.PayerRef,
		&p.Amount,
		&p.SettlementStatus,
		&p.SettledAt,
		&p.SettledBy,
		&p.SettlementReference,
		&p.AttachmentRefs,
		&p.ReversedAt,
		&p.ReversedBy,
		&p.ReversalReason,
		&p.History,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return &p, nil
}

// FindPaymentByID retrieves a payment attribution by its identifier.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

// FindPaymentByIDForUpdate retrieves a payment holding a row lock until the
// surrounding database transaction ends.
func (r *PgxPaymentRepository) FindPaymentByIDForUpdate(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1 FOR UPDATE;`
	return scanPayment(r.db.QueryRow(ctx, query, paymentID))
}

// ListPaymentsByTransaction retrieves all attribution rows of a transaction.
func (r *PgxPaymentRepository) ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.PaymentAttribution, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1 ORDER BY created_at, payment_id;`
	rows, err := r.db.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for transaction %s: %w", transactionID, err)
	}
	defer rows.Close()

	var payments []domain.PaymentAttribution
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}

// FindOwningTransaction retrieves the transaction a payment row belongs to.
func (r *PgxPaymentRepository) FindOwningTransaction(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	query := `
		SELECT ` + qualifyColumns("t", transactionColumns) + `
		FROM transactions t
		JOIN payments p ON p.transaction_id = t.transaction_id
		WHERE p.payment_id = $1;
	`
	return scanTransaction(r.db.QueryRow(ctx, query, paymentID))
}

// SavePayments persists new attribution rows in one batch.
func (r *PgxPaymentRepository) SavePayments(ctx context.Context, payments []domain.PaymentAttribution) error {
	if len(payments) == 0 {
		return nil
	}
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	batch := &pgx.Batch{}
	for _, p := range payments {
		batch.Queue(query,
			p.PaymentID, p.TransactionID, p.PayerType, p.PayerRef, p.Amount,
			p.SettlementStatus, p.SettledAt, p.SettledBy, p.SettlementReference, p.AttachmentRefs,
			p.ReversedAt, p.ReversedBy, p.ReversalReason, p.History,
			p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy,
		)
	}
	br := r.db.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert payment batch: %w", err)
	}
	return nil
}

// DeleteUnsettledPayments removes the non-SETTLED attribution rows of a
// transaction. Settled rows are never deleted.
func (r *PgxPaymentRepository) DeleteUnsettledPayments(ctx context.Context, transactionID string) error {
	query := `DELETE FROM payments WHERE transaction_id = $1 AND settlement_status <> $2;`
	if _, err := r.db.Exec(ctx, query, transactionID, domain.SettlementSettled); err != nil {
		return fmt.Errorf("failed to delete unsettled payments for transaction %s: %w", transactionID, err)
	}
	return nil
}

// UpdatePayment persists the full current state of an attribution row.
func (r *PgxPaymentRepository) UpdatePayment(ctx context.Context, payment domain.PaymentAttribution) error {
	query := `
		UPDATE payments SET
			payer_type = $2, payer_ref = $3, amount = $4,
			settlement_status = $5, settled_at = $6, settled_by = $7, settlement_reference = $8, attachment_refs = $9,
			reversed_at = $10, reversed_by = $11, reversal_reason = $12, history = $13,
			last_updated_at = $14, last_updated_by = $15
		WHERE payment_id = $1;
	`
	tag, err := r.db.Exec(ctx, query,
		payment.PaymentID,
		payment.PayerType, payment.PayerRef, payment.Amount,
		payment.SettlementStatus, payment.SettledAt, payment.SettledBy, payment.SettlementReference, payment.AttachmentRefs,
		payment.ReversedAt, payment.ReversedBy, payment.ReversalReason, payment.History,
		payment.LastUpdatedAt, payment.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment %s: %w", payment.PaymentID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListIndividualPaymentsByCompany retrieves every INDIVIDUAL-payer
// attribution row of the company's non-deleted transactions. The reporting
// service aggregates these rows in memory.
func (r *PgxPaymentRepository) ListIndividualPaymentsByCompany(ctx context.Context, companyID string) ([]domain.PaymentAttribution, error) {
	query := `
		SELECT ` + qualifyColumns("p", paymentColumns) + `
		FROM payments p
		JOIN transactions t ON t.transaction_id = p.transaction_id
		WHERE t.company_id = $1 AND t.deleted_at IS NULL
			AND p.payer_type = 'INDIVIDUAL'
		ORDER BY p.created_at, p.payment_id;
	`
	rows, err := r.db.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for company %s: %w", companyID, err)
	}
	defer rows.Close()

	var payments []domain.PaymentAttribution
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payment rows: %w", err)
	}
	return payments, nil
}
