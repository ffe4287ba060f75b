package repositories

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
)

// PaymentReader defines read operations for payment attribution rows.
type PaymentReader interface {
	// FindPaymentByID retrieves a payment attribution by its identifier.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error)

	// ListPaymentsByTransaction retrieves all attribution rows of a transaction.
	ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.PaymentAttribution, error)

	// FindOwningTransaction retrieves the transaction a payment row belongs to.
	FindOwningTransaction(ctx context.Context, paymentID string) (*domain.Transaction, error)
}

// PaymentWriter defines write operations for payment attribution rows.
type PaymentWriter interface {
	// SavePayments persists new attribution rows in one batch.
	SavePayments(ctx context.Context, payments []domain.PaymentAttribution) error

	// DeleteUnsettledPayments removes the non-SETTLED attribution rows of a
	// transaction so the list can be rebuilt. Settled rows are history and
	// are never deleted.
	DeleteUnsettledPayments(ctx context.Context, transactionID string) error

	// UpdatePayment persists the full current state of an attribution row.
	UpdatePayment(ctx context.Context, payment domain.PaymentAttribution) error
}

// PaymentLocker defines the row-locked read used for settle/reverse so two
// concurrent settlements of the same row cannot both succeed.
type PaymentLocker interface {
	// FindPaymentByIDForUpdate retrieves a payment with a row lock held
	// until the surrounding database transaction ends. Must only be called
	// inside WithTx.
	FindPaymentByIDForUpdate(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error)
}

// PaymentAggregator defines the company-wide read the reporting views are
// computed from.
type PaymentAggregator interface {
	// ListIndividualPaymentsByCompany retrieves every INDIVIDUAL-payer
	// attribution row of the company's non-deleted transactions.
	ListIndividualPaymentsByCompany(ctx context.Context, companyID string) ([]domain.PaymentAttribution, error)
}

// PaymentRepositoryFacade combines all payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
	PaymentLocker
	PaymentAggregator
}

// PaymentRepositoryWithTx extends the facade with an atomic
// read-validate-write unit scoped to one database transaction.
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	WithTx(ctx context.Context, fn func(repo PaymentRepositoryFacade) error) error
}
