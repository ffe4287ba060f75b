package services

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/dto"
)

// TransactionReaderSvc defines read operations for transaction records.
type TransactionReaderSvc interface {
	// GetTransactionByID retrieves a transaction in a company scope.
	GetTransactionByID(ctx context.Context, companyID, transactionID, requestingUserID string) (*domain.Transaction, error)

	// ListTransactions retrieves filtered transactions for a company.
	ListTransactions(ctx context.Context, companyID, requestingUserID string, params dto.ListTransactionsParams) ([]domain.Transaction, error)
}

// TransactionWorkflowSvc defines the workflow mutations. Every mutation
// recomputes both state machines consistently and returns the side-effect
// events the caller must dispatch after the change has committed.
type TransactionWorkflowSvc interface {
	// CreateTransaction creates a new record in DRAFT.
	CreateTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, []domain.WorkflowEvent, error)

	// SubmitTransaction moves a DRAFT record into the workflow, entering the
	// approval gate unless the actor can create directly.
	SubmitTransaction(ctx context.Context, companyID, transactionID, actorUserID string) (*domain.Transaction, []domain.WorkflowEvent, error)

	// DecideApproval approves or rejects a PENDING record.
	DecideApproval(ctx context.Context, companyID, transactionID, actorUserID string, req dto.DecideApprovalRequest) (*domain.Transaction, []domain.WorkflowEvent, error)

	// UpdateDocumentFlags updates the document-collection flags and/or rates
	// and re-derives the document status (or applies an explicit one).
	UpdateDocumentFlags(ctx context.Context, companyID, transactionID, actorUserID string, req dto.UpdateDocumentFlagsRequest) (*domain.Transaction, []domain.WorkflowEvent, error)

	// DeleteTransaction soft-deletes a record. Records with settled payment
	// history cannot be deleted.
	DeleteTransaction(ctx context.Context, companyID, transactionID, actorUserID string) ([]domain.WorkflowEvent, error)
}

// TransactionSvcFacade combines all transaction service interfaces.
type TransactionSvcFacade interface {
	TransactionReaderSvc
	TransactionWorkflowSvc
}
