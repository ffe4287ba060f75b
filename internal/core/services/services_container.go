package services

import (
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// Company service comes first: every other service resolves capabilities
	// through it.
	container.Company = NewCompanyService(repos.CompanyRepo, repos.UserRepo)

	container.Transaction = NewTransactionService(repos.TransactionRepo, repos.PaymentRepo, container.Company)
	container.Settlement = NewSettlementService(repos.PaymentRepo, repos.TransactionRepo, container.Company)
	container.Reporting = NewReportingService(repos.TransactionRepo, container.Company)
	container.User = NewUserService(repos.UserRepo, cfg.JWTSecret, cfg.JWTExpiryDuration, cfg.JWTIssuer)
	container.Dispatcher = NewEventDispatcher(NewLogNotifier(), NewLogAuditRecorder())

	return container
}
