package repositories

import (
	"context"
	"time"

	"github.com/NattKh/findoc_app/internal/core/domain"
)

// TransactionListFilter narrows company-scoped transaction listings.
// Nil fields are ignored.
type TransactionListFilter struct {
	Kind           *domain.TransactionKind
	ApprovalStatus *domain.ApprovalStatus
	DocumentStatus *domain.DocumentStatus
	From           *time.Time
	To             *time.Time
	Limit          int
	Offset         int
}

// TransactionReader defines read operations for transaction records.
type TransactionReader interface {
	// FindTransactionByID retrieves a transaction by its unique identifier.
	// Soft-deleted records are returned with DeletedAt set; callers decide
	// whether deletion matters for their operation.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByCompany retrieves non-deleted transactions for a company.
	ListTransactionsByCompany(ctx context.Context, companyID string, filter TransactionListFilter) ([]domain.Transaction, error)
}

// TransactionWriter defines write operations for transaction records.
type TransactionWriter interface {
	// SaveTransaction persists a new transaction record.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// UpdateTransaction persists the full current state of an existing record.
	UpdateTransaction(ctx context.Context, txn domain.Transaction) error

	// SoftDeleteTransaction marks a transaction as deleted.
	SoftDeleteTransaction(ctx context.Context, transactionID string, deletedBy string, deletedAt time.Time) error
}

// TransactionLocker defines the row-locked read used inside a database
// transaction so concurrent workflow mutations observe each other.
type TransactionLocker interface {
	// FindTransactionByIDForUpdate retrieves a transaction with a row lock
	// held until the surrounding database transaction ends. Must only be
	// called inside WithTx.
	FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error)
}

// TransactionRepositoryFacade combines all transaction repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	TransactionLocker
}

// TransactionRepositoryWithTx extends the facade with an atomic
// read-validate-write unit: fn runs against a tx-scoped facade and its
// writes commit only if fn returns nil.
type TransactionRepositoryWithTx interface {
	TransactionRepositoryFacade
	WithTx(ctx context.Context, fn func(repo TransactionRepositoryFacade) error) error
}
