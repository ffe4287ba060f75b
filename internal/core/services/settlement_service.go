package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/middleware"
)

var (
	ErrPaymentsOnIncome  = errors.New("payment attributions only apply to expense records")
	ErrAttributionExcess = errors.New("attributed amounts exceed the transaction net amount")
	ErrPayerRefRequired  = errors.New("payerRef is required for individual payers")
)

// settlementService is the payment attribution and reimbursement ledger.
type settlementService struct {
	paymentRepo portsrepo.PaymentRepositoryWithTx
	txnRepo     portsrepo.TransactionRepositoryWithTx
	companySvc  portssvc.CompanySvcFacade
}

// NewSettlementService creates a new settlement ledger service.
func NewSettlementService(paymentRepo portsrepo.PaymentRepositoryWithTx, txnRepo portsrepo.TransactionRepositoryWithTx, companySvc portssvc.CompanySvcFacade) portssvc.SettlementSvcFacade {
	return &settlementService{
		paymentRepo: paymentRepo,
		txnRepo:     txnRepo,
		companySvc:  companySvc,
	}
}

var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// AttachPayments rebuilds the attribution list of an expense. Settled rows
// are immutable history and survive the rebuild; the combined total of
// surviving and new rows must not exceed the record's net amount.
func (s *settlementService) AttachPayments(ctx context.Context, companyID, transactionID, actorUserID string, req dto.AttachPaymentsRequest) ([]domain.PaymentAttribution, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireMember(ctx, actorUserID, companyID); err != nil {
		return nil, err
	}

	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.CompanyID != companyID || txn.IsDeleted() {
		return nil, apperrors.ErrNotFound
	}
	if txn.Kind != domain.KindExpense {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrPaymentsOnIncome)
	}

	now := time.Now().UTC()
	newRows := make([]domain.PaymentAttribution, len(req.Attributions))
	newTotal := decimal.Zero
	for i, in := range req.Attributions {
		if !domain.ValidPayerType(in.PayerType) {
			return nil, fmt.Errorf("%w: unknown payer type %q", apperrors.ErrValidation, in.PayerType)
		}
		if !in.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: attribution amount must be positive", apperrors.ErrInvalidAmount)
		}
		if in.PayerType == domain.PayerIndividual && (in.PayerRef == nil || *in.PayerRef == "") {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, ErrPayerRefRequired)
		}
		newRows[i] = domain.PaymentAttribution{
			PaymentID:        uuid.NewString(),
			TransactionID:    transactionID,
			PayerType:        in.PayerType,
			PayerRef:         in.PayerRef,
			Amount:           in.Amount,
			SettlementStatus: domain.SettlementStatusFor(in.PayerType),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     actorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: actorUserID,
			},
		}
		newTotal = newTotal.Add(in.Amount)
	}

	var result []domain.PaymentAttribution
	err = s.paymentRepo.WithTx(ctx, func(repo portsrepo.PaymentRepositoryFacade) error {
		existing, err := repo.ListPaymentsByTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		settledTotal := decimal.Zero
		settled := make([]domain.PaymentAttribution, 0, len(existing))
		for _, row := range existing {
			if row.SettlementStatus == domain.SettlementSettled {
				settled = append(settled, row)
				settledTotal = settledTotal.Add(row.Amount)
			}
		}
		if settledTotal.Add(newTotal).GreaterThan(txn.NetAmount) {
			return fmt.Errorf("%w: %w (attributed %s, net %s)", apperrors.ErrValidation, ErrAttributionExcess,
				settledTotal.Add(newTotal).String(), txn.NetAmount.String())
		}
		if err := repo.DeleteUnsettledPayments(ctx, transactionID); err != nil {
			return err
		}
		if err := repo.SavePayments(ctx, newRows); err != nil {
			return err
		}
		result = append(settled, newRows...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Payments attached", slog.String("transaction_id", transactionID), slog.Int("rows", len(newRows)))
	return result, nil
}

// ListPayments retrieves the attribution rows of a transaction.
func (s *settlementService) ListPayments(ctx context.Context, companyID, transactionID, requestingUserID string) ([]domain.PaymentAttribution, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if txn.CompanyID != companyID {
		return nil, apperrors.ErrNotFound
	}
	return s.paymentRepo.ListPaymentsByTransaction(ctx, transactionID)
}

// settleLocked applies the settle transition to a row already held under a
// row lock. The owning transaction must be approved or approval-exempt.
func settleLocked(payment *domain.PaymentAttribution, owner *domain.Transaction, companyID, actorUserID, reference string, attachments []string, now time.Time) error {
	if owner.CompanyID != companyID || owner.IsDeleted() {
		return apperrors.ErrNotFound
	}
	switch payment.SettlementStatus {
	case domain.SettlementSettled:
		return fmt.Errorf("%w: payment %s", apperrors.ErrAlreadySettled, payment.PaymentID)
	case domain.SettlementNotRequired:
		return fmt.Errorf("%w: payment %s does not require settlement", apperrors.ErrInvalidTransition, payment.PaymentID)
	}
	if !owner.SettlementAllowed() {
		return fmt.Errorf("%w: transaction approval status is %s", apperrors.ErrApprovalRequired, owner.ApprovalStatus)
	}

	// A re-settle after a reversal pushes the prior cycle into history so
	// the original reference survives.
	if payment.ReversedAt != nil && payment.SettledAt != nil {
		record := domain.SettlementRecord{
			SettledAt:  *payment.SettledAt,
			ReversedAt: *payment.ReversedAt,
		}
		if payment.SettlementReference != nil {
			record.Reference = *payment.SettlementReference
		}
		if payment.SettledBy != nil {
			record.SettledBy = *payment.SettledBy
		}
		if payment.ReversedBy != nil {
			record.ReversedBy = *payment.ReversedBy
		}
		if payment.ReversalReason != nil {
			record.ReversalReason = *payment.ReversalReason
		}
		payment.History = append(payment.History, record)
	}

	payment.SettlementStatus = domain.SettlementSettled
	payment.SettledAt = &now
	payment.SettledBy = &actorUserID
	payment.SettlementReference = &reference
	payment.AttachmentRefs = attachments
	payment.ReversedAt = nil
	payment.ReversedBy = nil
	payment.ReversalReason = nil
	payment.LastUpdatedAt = now
	payment.LastUpdatedBy = actorUserID
	return nil
}

// SettlePayment marks a PENDING row as reimbursed.
func (s *settlementService) SettlePayment(ctx context.Context, companyID, paymentID, actorUserID string, req dto.SettlePaymentRequest) (*domain.PaymentAttribution, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, "settlement:settle"); err != nil {
		return nil, nil, err
	}

	var settled *domain.PaymentAttribution
	err := s.paymentRepo.WithTx(ctx, func(repo portsrepo.PaymentRepositoryFacade) error {
		payment, err := repo.FindPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		owner, err := repo.FindOwningTransaction(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := settleLocked(payment, owner, companyID, actorUserID, req.Reference, req.AttachmentRefs, time.Now().UTC()); err != nil {
			return err
		}
		if err := repo.UpdatePayment(ctx, *payment); err != nil {
			return err
		}
		settled = payment
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := settlementEvents(domain.ActionPaymentSettled, settled, actorUserID, map[string]any{"reference": req.Reference})
	logger.Info("Payment settled", slog.String("payment_id", paymentID), slog.String("reference", req.Reference))
	return settled, events, nil
}

// ReversePayment returns a SETTLED row to PENDING. The original settlement
// metadata stays on the row for audit history until a later re-settle moves
// it into History.
func (s *settlementService) ReversePayment(ctx context.Context, companyID, paymentID, actorUserID string, req dto.ReversePaymentRequest) (*domain.PaymentAttribution, []domain.WorkflowEvent, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, "settlement:reverse"); err != nil {
		return nil, nil, err
	}
	if req.Reason == "" {
		return nil, nil, fmt.Errorf("%w: a reversal reason is required", apperrors.ErrValidation)
	}

	var reversed *domain.PaymentAttribution
	err := s.paymentRepo.WithTx(ctx, func(repo portsrepo.PaymentRepositoryFacade) error {
		payment, err := repo.FindPaymentByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		owner, err := repo.FindOwningTransaction(ctx, paymentID)
		if err != nil {
			return err
		}
		if owner.CompanyID != companyID || owner.IsDeleted() {
			return apperrors.ErrNotFound
		}
		if payment.SettlementStatus != domain.SettlementSettled {
			return fmt.Errorf("%w: cannot reverse a payment whose status is %s", apperrors.ErrInvalidTransition, payment.SettlementStatus)
		}

		now := time.Now().UTC()
		payment.SettlementStatus = domain.SettlementPending
		payment.ReversedAt = &now
		payment.ReversedBy = &actorUserID
		payment.ReversalReason = &req.Reason
		payment.LastUpdatedAt = now
		payment.LastUpdatedBy = actorUserID

		if err := repo.UpdatePayment(ctx, *payment); err != nil {
			return err
		}
		reversed = payment
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	events := settlementEvents(domain.ActionPaymentReversed, reversed, actorUserID, map[string]any{"reason": req.Reason})
	logger.Info("Payment reversed", slog.String("payment_id", paymentID))
	return reversed, events, nil
}

// BatchSettle settles every PENDING row among the given ids. Rows already
// settled or not yet approved are skipped, not failed; callers inspect the
// per-id outcomes. Each row transitions atomically but the batch as a whole
// is not all-or-nothing.
func (s *settlementService) BatchSettle(ctx context.Context, companyID, actorUserID string, req dto.BatchSettleRequest) (*dto.BatchSettleResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.companySvc.RequireCapability(ctx, actorUserID, companyID, "settlement:settle"); err != nil {
		return nil, err
	}

	resp := &dto.BatchSettleResponse{Outcomes: make([]dto.BatchSettleOutcome, 0, len(req.PaymentIDs))}
	type payerKey struct {
		payerType domain.PayerType
		payerRef  string
	}
	payouts := make(map[payerKey]decimal.Decimal)
	payerOrder := make([]payerKey, 0)

	for _, paymentID := range req.PaymentIDs {
		var settled *domain.PaymentAttribution
		err := s.paymentRepo.WithTx(ctx, func(repo portsrepo.PaymentRepositoryFacade) error {
			payment, err := repo.FindPaymentByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			owner, err := repo.FindOwningTransaction(ctx, paymentID)
			if err != nil {
				return err
			}
			if err := settleLocked(payment, owner, companyID, actorUserID, req.Reference, nil, time.Now().UTC()); err != nil {
				return err
			}
			if err := repo.UpdatePayment(ctx, *payment); err != nil {
				return err
			}
			settled = payment
			return nil
		})
		switch {
		case err == nil:
			resp.Outcomes = append(resp.Outcomes, dto.BatchSettleOutcome{PaymentID: paymentID, Settled: true})
			key := payerKey{payerType: settled.PayerType}
			if settled.PayerRef != nil {
				key.payerRef = *settled.PayerRef
			}
			if _, seen := payouts[key]; !seen {
				payerOrder = append(payerOrder, key)
			}
			payouts[key] = payouts[key].Add(settled.Amount)
		case errors.Is(err, apperrors.ErrAlreadySettled),
			errors.Is(err, apperrors.ErrApprovalRequired),
			errors.Is(err, apperrors.ErrInvalidTransition),
			errors.Is(err, apperrors.ErrNotFound):
			resp.Outcomes = append(resp.Outcomes, dto.BatchSettleOutcome{PaymentID: paymentID, Skipped: true, Reason: err.Error()})
		default:
			return nil, fmt.Errorf("batch settle failed on payment %s: %w", paymentID, err)
		}
	}

	if req.CreateReimbursementExpense {
		now := time.Now().UTC()
		for _, key := range payerOrder {
			amount := payouts[key]
			txnID, err := s.createReimbursementExpense(ctx, companyID, actorUserID, key.payerRef, amount, req.Reference, now)
			if err != nil {
				logger.Error("Failed to create reimbursement expense", slog.String("error", err.Error()), slog.String("payer_ref", key.payerRef))
				return nil, err
			}
			resp.CreatedTransactionIDs = append(resp.CreatedTransactionIDs, txnID)
		}
	}

	logger.Info("Batch settlement completed", slog.Int("requested", len(req.PaymentIDs)), slog.Int("created_expenses", len(resp.CreatedTransactionIDs)))
	return resp, nil
}

// createReimbursementExpense synthesizes the company-funded expense that
// represents a reimbursement payout. Its own attribution is company money
// and never requires settlement, which keeps the ledger loop-free.
func (s *settlementService) createReimbursementExpense(ctx context.Context, companyID, actorUserID, payerRef string, amount decimal.Decimal, reference string, now time.Time) (string, error) {
	description := "Reimbursement payout"
	if payerRef != "" {
		description = fmt.Sprintf("Reimbursement payout to %s", payerRef)
	}
	txn := domain.Transaction{
		TransactionID:  uuid.NewString(),
		CompanyID:      companyID,
		Kind:           domain.KindExpense,
		Description:    description,
		BaseAmount:     amount,
		VatRatePercent: decimal.Zero,
		DocumentType:   domain.DocTypeCashReceipt,
		ApprovalStatus: domain.ApprovalNotRequired,
		DocumentStatus: domain.DocStatusReadyForAccounting,
		NetAmount:      amount,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}
	if err := s.txnRepo.SaveTransaction(ctx, txn); err != nil {
		return "", fmt.Errorf("failed to save reimbursement expense: %w", err)
	}

	attribution := domain.PaymentAttribution{
		PaymentID:           uuid.NewString(),
		TransactionID:       txn.TransactionID,
		PayerType:           domain.PayerEntity,
		Amount:              amount,
		SettlementStatus:    domain.SettlementNotRequired,
		SettlementReference: &reference,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorUserID,
		},
	}
	if err := s.paymentRepo.SavePayments(ctx, []domain.PaymentAttribution{attribution}); err != nil {
		return "", fmt.Errorf("failed to save reimbursement attribution: %w", err)
	}
	return txn.TransactionID, nil
}

// GetPayment retrieves a single attribution row. Rows belonging to another
// company or to a deleted record read as not found.
func (s *settlementService) GetPayment(ctx context.Context, companyID, paymentID, requestingUserID string) (*domain.PaymentAttribution, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	owner, err := s.paymentRepo.FindOwningTransaction(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if owner.CompanyID != companyID || owner.IsDeleted() {
		return nil, apperrors.ErrNotFound
	}
	return payment, nil
}

// SummarizeByPerson reports per-member reimbursement totals over the full
// company roster. Every current member appears exactly once, zero totals
// included; removed members are excluded even if they still have rows.
func (s *settlementService) SummarizeByPerson(ctx context.Context, companyID, requestingUserID string) ([]domain.PersonSettlementSummary, error) {
	members, err := s.companySvc.ListMembers(ctx, companyID, requestingUserID)
	if err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListIndividualPaymentsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*domain.PersonSettlementSummary, len(members))
	summaries := make([]domain.PersonSettlementSummary, 0, len(members))
	for _, m := range members {
		if m.Role == domain.RoleRemoved {
			continue
		}
		summaries = append(summaries, domain.PersonSettlementSummary{
			UserID:       m.UserID,
			UserName:     m.UserName,
			PendingTotal: decimal.Zero,
			SettledTotal: decimal.Zero,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].UserName != summaries[j].UserName {
			return summaries[i].UserName < summaries[j].UserName
		}
		return summaries[i].UserID < summaries[j].UserID
	})
	for i := range summaries {
		byUser[summaries[i].UserID] = &summaries[i]
	}

	for _, p := range payments {
		if p.PayerRef == nil {
			continue
		}
		row, ok := byUser[*p.PayerRef]
		if !ok {
			continue
		}
		switch p.SettlementStatus {
		case domain.SettlementPending:
			row.PendingCount++
			row.PendingTotal = row.PendingTotal.Add(p.Amount)
		case domain.SettlementSettled:
			row.SettledCount++
			row.SettledTotal = row.SettledTotal.Add(p.Amount)
		}
	}
	return summaries, nil
}

// settlementBucketTime is the time a row reports under: settlement time for
// settled rows, creation time otherwise. A reversed row is pending again and
// therefore falls back to its creation time.
func settlementBucketTime(p domain.PaymentAttribution) time.Time {
	if p.SettlementStatus == domain.SettlementSettled && p.SettledAt != nil {
		return *p.SettledAt
	}
	return p.CreatedAt
}

// SummarizeByMonth reports monthly reimbursement totals for a year.
func (s *settlementService) SummarizeByMonth(ctx context.Context, companyID, requestingUserID string, year int) ([]domain.MonthlySettlementSummary, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.ListIndividualPaymentsByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*domain.MonthlySettlementSummary)
	for _, p := range payments {
		bucketAt := settlementBucketTime(p).UTC()
		if bucketAt.Year() != year {
			continue
		}
		month := bucketAt.Format("2006-01")
		row, ok := byMonth[month]
		if !ok {
			row = &domain.MonthlySettlementSummary{
				Month:        month,
				PendingTotal: decimal.Zero,
				SettledTotal: decimal.Zero,
			}
			byMonth[month] = row
		}
		switch p.SettlementStatus {
		case domain.SettlementPending:
			row.PendingCount++
			row.PendingTotal = row.PendingTotal.Add(p.Amount)
		case domain.SettlementSettled:
			row.SettledCount++
			row.SettledTotal = row.SettledTotal.Add(p.Amount)
		}
	}

	summaries := make([]domain.MonthlySettlementSummary, 0, len(byMonth))
	for _, row := range byMonth {
		summaries = append(summaries, *row)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Month < summaries[j].Month })
	return summaries, nil
}

func settlementEvents(action string, payment *domain.PaymentAttribution, actorUserID string, payload map[string]any) []domain.WorkflowEvent {
	events := []domain.WorkflowEvent{{
		Kind:          domain.EventAudit,
		Action:        action,
		TransactionID: payment.TransactionID,
		Payload:       payload,
	}}
	if payment.PayerRef != nil {
		events = append(events, domain.WorkflowEvent{
			Kind:          domain.EventNotify,
			Action:        action,
			TransactionID: payment.TransactionID,
			TargetUserIDs: []string{*payment.PayerRef},
			Payload:       map[string]any{"paymentID": payment.PaymentID, "actor": actorUserID},
		})
	}
	return events
}
