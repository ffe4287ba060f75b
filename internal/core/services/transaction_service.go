package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/core/workflow"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
	"github.com/NattKh/findoc_app/internal/utils/tax"
)

// Capability actions resolved against the per-kind module ("expense" or
// "income"): create, create_direct, approve, update, delete.
func capabilityFor(kind domain.TransactionKind, action string) string {
	return strings.ToLower(string(kind)) + ":" + action
}

// transactionService is the workflow orchestrator: every mutation recomputes
// the approval and document state machines plus the derived tax amounts in
// one atomic unit and returns the side effects to dispatch.
type transactionService struct {
	txnRepo     portsrepo.TransactionRepositoryWithTx
	paymentRepo portsrepo.PaymentRepositoryFacade
	companySvc  portssvc.CompanySvcFacade
}

// NewTransactionService creates a new transaction workflow service.
func NewTransactionService(txnRepo portsrepo.TransactionRepositoryWithTx, paymentRepo portsrepo.PaymentRepositoryFacade, companySvc portssvc.CompanySvcFacade) portssvc.TransactionSvcFacade {
	return &transactionService{
		txnRepo:     txnRepo,
		paymentRepo: paymentRepo,
		companySvc:  companySvc,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// deriveAmounts recomputes every derived monetary field from the base amount
// and rates, enforcing the nullability invariants: VatAmount is nil when the
// rate is zero, WithholdingAmount and the rate are nil unless withholding
// applies.
func deriveAmounts(txn *domain.Transaction) error {
	if !txn.BaseAmount.IsPositive() {
		return fmt.Errorf("%w: base amount must be positive, got %s", apperrors.ErrInvalidAmount, txn.BaseAmount.String())
	}
	whtRate := decimal.Zero
	if txn.WithholdingApplicable {
		if txn.WithholdingRatePercent == nil {
			return fmt.Errorf("%w: withholding rate is required when withholding applies", apperrors.ErrValidation)
		}
		whtRate = *txn.WithholdingRatePercent
	} else if txn.WithholdingRatePercent != nil {
		return fmt.Errorf("%w: withholding rate must be null when withholding does not apply", apperrors.ErrValidation)
	}

	totals, err := tax.ComputeTransactionTotals(txn.BaseAmount, txn.VatRatePercent, whtRate)
	if err != nil {
		return err
	}

	if txn.VatRatePercent.IsZero() {
		txn.VatAmount = nil
	} else {
		vat := totals.VatAmount
		txn.VatAmount = &vat
	}
	if txn.WithholdingApplicable {
		wht := totals.WithholdingAmount
		txn.WithholdingAmount = &wht
	} else {
		txn.WithholdingAmount = nil
	}
	txn.NetAmount = totals.NetAmount
	return nil
}

// flagsOf extracts the document derivation inputs from a record.
func flagsOf(txn *domain.Transaction) workflow.DocumentFlags {
	return workflow.DocumentFlags{
		DocumentType:          txn.DocumentType,
		HasTaxDocument:        txn.HasTaxDocument,
		WithholdingApplicable: txn.WithholdingApplicable,
	}
}

// CreateTransaction creates a new record in DRAFT with derived amounts.
func (s *transactionService) CreateTransaction(ctx context.Context, companyID string, req dto.CreateTransactionRequest, creatorUserID string) (*domain.Transaction, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireCapability(ctx, creatorUserID, companyID, capabilityFor(req.Kind, "create")); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	txn := domain.Transaction{
		TransactionID:          uuid.NewString(),
		CompanyID:              companyID,
		Kind:                   req.Kind,
		Description:            req.Description,
		CounterpartyRef:        req.CounterpartyRef,
		BaseAmount:             req.BaseAmount,
		VatRatePercent:         req.VatRatePercent,
		WithholdingApplicable:  req.WithholdingApplicable,
		WithholdingRatePercent: req.WithholdingRatePercent,
		DocumentType:           req.DocumentType,
		HasTaxDocument:         req.HasTaxDocument,
		ApprovalStatus:         domain.ApprovalPending,
		DocumentStatus:         domain.DocStatusDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}
	if err := deriveAmounts(&txn); err != nil {
		return nil, nil, err
	}

	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		logger.Error("Failed to save transaction", slog.String("error", err.Error()), slog.String("company_id", companyID))
		return nil, nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	events := []domain.WorkflowEvent{auditEvent(domain.ActionCreated, txn.TransactionID, map[string]any{
		"kind": txn.Kind, "netAmount": txn.NetAmount,
	})}
	logger.Info("Transaction created", slog.String("transaction_id", txn.TransactionID), slog.String("kind", string(txn.Kind)))
	return &txn, events, nil
}

// GetTransactionByID retrieves a transaction in a company scope.
func (s *transactionService) GetTransactionByID(ctx context.Context, companyID, transactionID, requestingUserID string) (*domain.Transaction, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction %s: %w", transactionID, err)
	}
	if txn.CompanyID != companyID || txn.IsDeleted() {
		return nil, apperrors.ErrNotFound
	}
	return txn, nil
}

// ListTransactions retrieves filtered transactions for a company.
func (s *transactionService) ListTransactions(ctx context.Context, companyID, requestingUserID string, params dto.ListTransactionsParams) ([]domain.Transaction, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	filter := portsrepo.TransactionListFilter{
		Kind:           params.Kind,
		ApprovalStatus: params.ApprovalStatus,
		DocumentStatus: params.DocumentStatus,
		From:           params.From,
		To:             params.To,
		Limit:          params.Limit,
		Offset:         params.Offset,
	}
	txns, err := s.txnRepo.ListTransactionsByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, nil
}

// SubmitTransaction moves a DRAFT record into the workflow. Actors holding
// the create_direct capability skip the approval gate; everyone else lands
// in PENDING and the approvers are notified.
func (s *transactionService) SubmitTransaction(ctx context.Context, companyID, transactionID, actorUserID string) (*domain.Transaction, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireMember(ctx, actorUserID, companyID); err != nil {
		return nil, nil, err
	}

	var updated *domain.Transaction
	var events []domain.WorkflowEvent
	err := s.txnRepo.WithTx(ctx, func(repo portsrepo.TransactionRepositoryFacade) error {
		txn, err := repo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.CompanyID != companyID || txn.IsDeleted() {
			return apperrors.ErrNotFound
		}
		if txn.ApprovalStatus == domain.ApprovalPending && txn.SubmittedAt != nil {
			return fmt.Errorf("%w: transaction is already awaiting approval", apperrors.ErrInvalidTransition)
		}

		direct, err := s.companySvc.HasCapability(ctx, actorUserID, companyID, capabilityFor(txn.Kind, "create_direct"))
		if err != nil {
			return err
		}
		newApproval, err := workflow.SubmitApproval(txn.ApprovalStatus, direct)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.ApprovalStatus = newApproval
		txn.SubmittedAt = &now
		txn.SubmittedBy = &actorUserID
		// A resubmission after rejection starts clean.
		txn.RejectedAt = nil
		txn.RejectedBy = nil
		txn.RejectionReason = nil

		if newApproval == domain.ApprovalNotRequired {
			docStatus, err := workflow.SubmitDocument(txn.Kind, txn.DocumentStatus, flagsOf(txn))
			if err != nil {
				return err
			}
			txn.DocumentStatus = docStatus
		} else if txn.DocumentStatus != domain.DocStatusDraft {
			return fmt.Errorf("%w: only DRAFT records can be submitted, current status is %s", apperrors.ErrInvalidTransition, txn.DocumentStatus)
		}
		txn.LastUpdatedAt = now
		txn.LastUpdatedBy = actorUserID

		if err := repo.UpdateTransaction(ctx, *txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events = append(events, auditEvent(domain.ActionSubmitted, updated.TransactionID, map[string]any{
		"approvalStatus": updated.ApprovalStatus,
	}))
	if updated.ApprovalStatus == domain.ApprovalPending {
		approvers, err := s.companySvc.ListCapabilityHolders(ctx, companyID, capabilityFor(updated.Kind, "approve"))
		if err != nil {
			logger.Warn("Failed to resolve approvers for notification", slog.String("error", err.Error()))
		} else if len(approvers) > 0 {
			events = append(events, domain.WorkflowEvent{
				Kind:          domain.EventNotify,
				Action:        domain.ActionSubmitted,
				TransactionID: updated.TransactionID,
				TargetUserIDs: approvers,
				Payload:       map[string]any{"submittedBy": actorUserID},
			})
		}
	}
	logger.Info("Transaction submitted", slog.String("transaction_id", transactionID), slog.String("approval_status", string(updated.ApprovalStatus)))
	return updated, events, nil
}

// DecideApproval approves or rejects a PENDING record. Self-approval is
// forbidden; on approval the document workflow advances from DRAFT using the
// current flag values.
func (s *transactionService) DecideApproval(ctx context.Context, companyID, transactionID, actorUserID string, req dto.DecideApprovalRequest) (*domain.Transaction, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var updated *domain.Transaction
	err := s.txnRepo.WithTx(ctx, func(repo portsrepo.TransactionRepositoryFacade) error {
		txn, err := repo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.CompanyID != companyID || txn.IsDeleted() {
			return apperrors.ErrNotFound
		}
		if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, capabilityFor(txn.Kind, "approve")); err != nil {
			return err
		}
		if txn.SubmittedAt == nil {
			return fmt.Errorf("%w: transaction has not been submitted", apperrors.ErrInvalidTransition)
		}

		submitter := ""
		if txn.SubmittedBy != nil {
			submitter = *txn.SubmittedBy
		}
		newApproval, err := workflow.DecideApproval(txn.ApprovalStatus, req.Decision, submitter, actorUserID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		txn.ApprovalStatus = newApproval
		switch newApproval {
		case domain.ApprovalApproved:
			txn.ApprovedAt = &now
			txn.ApprovedBy = &actorUserID
			txn.RejectedAt = nil
			txn.RejectedBy = nil
			txn.RejectionReason = nil
			docStatus, err := workflow.SubmitDocument(txn.Kind, txn.DocumentStatus, flagsOf(txn))
			if err != nil {
				return err
			}
			txn.DocumentStatus = docStatus
		case domain.ApprovalRejected:
			txn.RejectedAt = &now
			txn.RejectedBy = &actorUserID
			txn.RejectionReason = req.Reason
		}
		txn.LastUpdatedAt = now
		txn.LastUpdatedBy = actorUserID

		if err := repo.UpdateTransaction(ctx, *txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	action := domain.ActionApproved
	if updated.ApprovalStatus == domain.ApprovalRejected {
		action = domain.ActionRejected
	}
	events := []domain.WorkflowEvent{auditEvent(action, updated.TransactionID, map[string]any{
		"decidedBy": actorUserID,
	})}
	targets := []string{updated.CreatedBy}
	if updated.SubmittedBy != nil && *updated.SubmittedBy != updated.CreatedBy {
		targets = append(targets, *updated.SubmittedBy)
	}
	events = append(events, domain.WorkflowEvent{
		Kind:          domain.EventNotify,
		Action:        action,
		TransactionID: updated.TransactionID,
		TargetUserIDs: targets,
		Payload:       map[string]any{"decidedBy": actorUserID, "reason": req.Reason},
	})
	logger.Info("Approval decided", slog.String("transaction_id", transactionID), slog.String("decision", string(req.Decision)))
	return updated, events, nil
}

// UpdateDocumentFlags mutates the document flags and re-derives the document
// status, unless the caller supplied an explicit status. Mutations that do
// not touch a derivation input only run the consistency self-heal.
func (s *transactionService) UpdateDocumentFlags(ctx context.Context, companyID, transactionID, actorUserID string, req dto.UpdateDocumentFlagsRequest) (*domain.Transaction, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var updated *domain.Transaction
	var corrected bool
	err := s.txnRepo.WithTx(ctx, func(repo portsrepo.TransactionRepositoryFacade) error {
		txn, err := repo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.CompanyID != companyID || txn.IsDeleted() {
			return apperrors.ErrNotFound
		}
		if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, capabilityFor(txn.Kind, "update")); err != nil {
			return err
		}

		rederive := req.ExplicitStatus != nil
		if req.HasTaxDocument != nil && *req.HasTaxDocument != txn.HasTaxDocument {
			txn.HasTaxDocument = *req.HasTaxDocument
			rederive = true
		}
		if req.DocumentType != nil && *req.DocumentType != txn.DocumentType {
			txn.DocumentType = *req.DocumentType
			rederive = true
		}
		if req.WithholdingApplicable != nil && *req.WithholdingApplicable != txn.WithholdingApplicable {
			txn.WithholdingApplicable = *req.WithholdingApplicable
			if !txn.WithholdingApplicable {
				txn.WithholdingRatePercent = nil
			}
			rederive = true
		}
		if req.WithholdingRatePercent != nil {
			txn.WithholdingRatePercent = req.WithholdingRatePercent
		}
		if req.HasWithholdingCertificate != nil {
			txn.HasWithholdingCertificate = *req.HasWithholdingCertificate
		}

		if err := deriveAmounts(txn); err != nil {
			return err
		}

		previous := txn.DocumentStatus
		if rederive && (txn.DocumentStatus != domain.DocStatusDraft || req.ExplicitStatus != nil) {
			status, err := workflow.DeriveDocumentStatus(txn.Kind, flagsOf(txn), req.ExplicitStatus)
			if err != nil {
				return err
			}
			txn.DocumentStatus = status
		} else {
			txn.DocumentStatus = workflow.RepairDocumentStatus(txn.Kind, txn.DocumentStatus, flagsOf(txn))
		}
		corrected = !rederive && txn.DocumentStatus != previous

		now := time.Now().UTC()
		txn.LastUpdatedAt = now
		txn.LastUpdatedBy = actorUserID
		if err := repo.UpdateTransaction(ctx, *txn); err != nil {
			return fmt.Errorf("failed to update transaction: %w", err)
		}
		updated = txn
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := []domain.WorkflowEvent{auditEvent(domain.ActionFlagsUpdated, updated.TransactionID, map[string]any{
		"documentStatus": updated.DocumentStatus,
	})}
	if corrected {
		events = append(events, auditEvent(domain.ActionStatusCorrected, updated.TransactionID, map[string]any{
			"documentStatus": updated.DocumentStatus,
		}))
	}
	logger.Info("Document flags updated", slog.String("transaction_id", transactionID), slog.String("document_status", string(updated.DocumentStatus)))
	return updated, events, nil
}

// DeleteTransaction soft-deletes a record. Records carrying settled payment
// rows are audit history and cannot be deleted; hard deletion never happens
// through this engine.
func (s *transactionService) DeleteTransaction(ctx context.Context, companyID, transactionID, actorUserID string) ([]domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var events []domain.WorkflowEvent
	err := s.txnRepo.WithTx(ctx, func(repo portsrepo.TransactionRepositoryFacade) error {
		txn, err := repo.FindTransactionByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.CompanyID != companyID || txn.IsDeleted() {
			return apperrors.ErrNotFound
		}
		if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, capabilityFor(txn.Kind, "delete")); err != nil {
			return err
		}
		payments, err := s.paymentRepo.ListPaymentsByTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		for _, p := range payments {
			if p.SettlementStatus == domain.SettlementSettled {
				return fmt.Errorf("%w: transaction has settled payments", apperrors.ErrConflict)
			}
		}
		now := time.Now().UTC()
		if err := repo.SoftDeleteTransaction(ctx, transactionID, actorUserID, now); err != nil {
			return fmt.Errorf("failed to delete transaction: %w", err)
		}
		events = append(events, auditEvent(domain.ActionDeleted, transactionID, map[string]any{"deletedBy": actorUserID}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Transaction deleted", slog.String("transaction_id", transactionID))
	return events, nil
}

func auditEvent(action, transactionID string, payload map[string]any) domain.WorkflowEvent {
	return domain.WorkflowEvent{
		Kind:          domain.EventAudit,
		Action:        action,
		TransactionID: transactionID,
		Payload:       payload,
	}
}
