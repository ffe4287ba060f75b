package services

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/dto"
)

// SettlementLedgerSvc defines the payment attribution and reimbursement
// settlement operations.
type SettlementLedgerSvc interface {
	// AttachPayments rebuilds the attribution list of a transaction.
	// Settled rows survive the rebuild untouched.
	AttachPayments(ctx context.Context, companyID, transactionID, actorUserID string, req dto.AttachPaymentsRequest) ([]domain.PaymentAttribution, error)

	// ListPayments retrieves the attribution rows of a transaction.
	ListPayments(ctx context.Context, companyID, transactionID, requestingUserID string) ([]domain.PaymentAttribution, error)

	// GetPayment retrieves a single attribution row scoped to the company.
	GetPayment(ctx context.Context, companyID, paymentID, requestingUserID string) (*domain.PaymentAttribution, error)

	// SettlePayment marks a PENDING row as reimbursed.
	SettlePayment(ctx context.Context, companyID, paymentID, actorUserID string, req dto.SettlePaymentRequest) (*domain.PaymentAttribution, []domain.WorkflowEvent, error)

	// ReversePayment returns a SETTLED row to PENDING, keeping the original
	// settlement metadata as history.
	ReversePayment(ctx context.Context, companyID, paymentID, actorUserID string, req dto.ReversePaymentRequest) (*domain.PaymentAttribution, []domain.WorkflowEvent, error)

	// BatchSettle settles every PENDING row among the given ids, reporting a
	// per-id outcome, and optionally synthesizes one reimbursement expense
	// per distinct payer.
	BatchSettle(ctx context.Context, companyID, actorUserID string, req dto.BatchSettleRequest) (*dto.BatchSettleResponse, error)
}

// SettlementReportingSvc defines the settlement aggregate views.
type SettlementReportingSvc interface {
	// SummarizeByPerson reports per-member reimbursement totals over the
	// full company roster.
	SummarizeByPerson(ctx context.Context, companyID, requestingUserID string) ([]domain.PersonSettlementSummary, error)

	// SummarizeByMonth reports monthly reimbursement totals for a year.
	SummarizeByMonth(ctx context.Context, companyID, requestingUserID string, year int) ([]domain.MonthlySettlementSummary, error)
}

// SettlementSvcFacade combines all settlement service interfaces.
type SettlementSvcFacade interface {
	SettlementLedgerSvc
	SettlementReportingSvc
}
