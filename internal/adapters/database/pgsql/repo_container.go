package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
)

// NewRepositoryProvider wires every pgx-backed repository to the shared pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo: newPgxTransactionRepository(dbPool),
		PaymentRepo:     newPgxPaymentRepository(dbPool),
		CompanyRepo:     newPgxCompanyRepository(dbPool),
		UserRepo:        newPgxUserRepository(dbPool),
	}
}
