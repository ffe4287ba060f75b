package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/core/services"
	"github.com/NattKh/findoc_app/internal/dto"
)

type TransactionServiceTestSuite struct {
	suite.Suite
	mockTxnRepo     *MockTransactionRepository
	mockPaymentRepo *MockPaymentRepository
	mockCompanySvc  *MockCompanyService
	service         portssvc.TransactionSvcFacade
	companyID       string
	actorID         string
}

func (suite *TransactionServiceTestSuite) SetupTest() {
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockCompanySvc = new(MockCompanyService)
	suite.service = services.NewTransactionService(suite.mockTxnRepo, suite.mockPaymentRepo, suite.mockCompanySvc)
	suite.companyID = uuid.NewString()
	suite.actorID = uuid.NewString()
}

func (suite *TransactionServiceTestSuite) draftExpense() *domain.Transaction {
	return &domain.Transaction{
		TransactionID:  uuid.NewString(),
		CompanyID:      suite.companyID,
		Kind:           domain.KindExpense,
		Description:    "Office supplies",
		BaseAmount:     decimal.RequireFromString("1000"),
		VatRatePercent: decimal.RequireFromString("7"),
		DocumentType:   domain.DocTypeTaxInvoice,
		ApprovalStatus: domain.ApprovalPending,
		DocumentStatus: domain.DocStatusDraft,
		AuditFields:    domain.AuditFields{CreatedBy: suite.actorID},
	}
}

// --- CreateTransaction ---

func (suite *TransactionServiceTestSuite) TestCreateTransaction_DerivesAmounts() {
	ctx := context.Background()
	whtRate := decimal.RequireFromString("3")
	req := dto.CreateTransactionRequest{
		Kind:                   domain.KindExpense,
		Description:            "Consulting fee",
		BaseAmount:             decimal.RequireFromString("1000"),
		VatRatePercent:         decimal.RequireFromString("7"),
		WithholdingApplicable:  true,
		WithholdingRatePercent: &whtRate,
		DocumentType:           domain.DocTypeTaxInvoice,
	}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:create").Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.VatAmount != nil && t.VatAmount.Equal(decimal.RequireFromString("70")) &&
			t.WithholdingAmount != nil && t.WithholdingAmount.Equal(decimal.RequireFromString("30")) &&
			t.NetAmount.Equal(decimal.RequireFromString("1040")) &&
			t.ApprovalStatus == domain.ApprovalPending &&
			t.DocumentStatus == domain.DocStatusDraft
	})).Return(nil).Once()

	txn, events, err := suite.service.CreateTransaction(ctx, suite.companyID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().NotNil(txn)
	suite.Equal(decimal.RequireFromString("1040").String(), txn.NetAmount.String())
	suite.Require().Len(events, 1)
	suite.Equal(domain.EventAudit, events[0].Kind)
	suite.Equal(domain.ActionCreated, events[0].Action)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_ZeroVatStaysNil() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Kind:         domain.KindExpense,
		Description:  "Taxi",
		BaseAmount:   decimal.RequireFromString("120"),
		DocumentType: domain.DocTypeNoDocument,
	}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:create").Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.VatAmount == nil && t.WithholdingAmount == nil &&
			t.NetAmount.Equal(decimal.RequireFromString("120"))
	})).Return(nil).Once()

	_, _, err := suite.service.CreateTransaction(ctx, suite.companyID, req, suite.actorID)

	suite.Require().NoError(err)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_NonPositiveAmount() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Kind:         domain.KindExpense,
		Description:  "Broken",
		BaseAmount:   decimal.Zero,
		DocumentType: domain.DocTypeNoDocument,
	}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:create").Return(nil).Once()

	_, _, err := suite.service.CreateTransaction(ctx, suite.companyID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidAmount)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SaveTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_WithholdingRateWithoutFlag() {
	ctx := context.Background()
	whtRate := decimal.RequireFromString("3")
	req := dto.CreateTransactionRequest{
		Kind:                   domain.KindExpense,
		Description:            "Inconsistent",
		BaseAmount:             decimal.RequireFromString("100"),
		WithholdingRatePercent: &whtRate,
		DocumentType:           domain.DocTypeNoDocument,
	}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:create").Return(nil).Once()

	_, _, err := suite.service.CreateTransaction(ctx, suite.companyID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *TransactionServiceTestSuite) TestCreateTransaction_CapabilityPerKind() {
	ctx := context.Background()
	req := dto.CreateTransactionRequest{
		Kind:         domain.KindIncome,
		Description:  "Sale",
		BaseAmount:   decimal.RequireFromString("100"),
		DocumentType: domain.DocTypeNoDocument,
	}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "income:create").
		Return(apperrors.ErrForbidden).Once()

	_, _, err := suite.service.CreateTransaction(ctx, suite.companyID, req, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockCompanySvc.AssertExpectations(suite.T())
}

// --- SubmitTransaction ---

func (suite *TransactionServiceTestSuite) TestSubmitTransaction_EntersApprovalGate() {
	ctx := context.Background()
	txn := suite.draftExpense()

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("HasCapability", ctx, suite.actorID, suite.companyID, "expense:create_direct").
		Return(false, nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.ApprovalStatus == domain.ApprovalPending && t.SubmittedAt != nil &&
			t.SubmittedBy != nil && *t.SubmittedBy == suite.actorID &&
			t.DocumentStatus == domain.DocStatusDraft
	})).Return(nil).Once()
	suite.mockCompanySvc.On("ListCapabilityHolders", ctx, suite.companyID, "expense:approve").
		Return([]string{"approver-1"}, nil).Once()

	updated, events, err := suite.service.SubmitTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalPending, updated.ApprovalStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.EventNotify, events[1].Kind)
	suite.Equal([]string{"approver-1"}, events[1].TargetUserIDs)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestSubmitTransaction_DirectSkipsGate() {
	ctx := context.Background()
	txn := suite.draftExpense()

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("HasCapability", ctx, suite.actorID, suite.companyID, "expense:create_direct").
		Return(true, nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.ApprovalStatus == domain.ApprovalNotRequired &&
			t.DocumentStatus == domain.DocStatusWaitingTaxDocument
	})).Return(nil).Once()

	updated, events, err := suite.service.SubmitTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalNotRequired, updated.ApprovalStatus)
	suite.Require().Len(events, 1)
	suite.mockCompanySvc.AssertNotCalled(suite.T(), "ListCapabilityHolders", mock.Anything, mock.Anything, mock.Anything)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestSubmitTransaction_AlreadyPending() {
	ctx := context.Background()
	txn := suite.draftExpense()
	submittedAt := time.Now().UTC()
	txn.SubmittedAt = &submittedAt

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, _, err := suite.service.SubmitTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestSubmitTransaction_WrongCompany() {
	ctx := context.Background()
	txn := suite.draftExpense()
	txn.CompanyID = uuid.NewString()

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, _, err := suite.service.SubmitTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- DecideApproval ---

func (suite *TransactionServiceTestSuite) submittedExpense(submitterID string) *domain.Transaction {
	txn := suite.draftExpense()
	submittedAt := time.Now().UTC().Add(-time.Hour)
	txn.SubmittedAt = &submittedAt
	txn.SubmittedBy = &submitterID
	return txn
}

func (suite *TransactionServiceTestSuite) TestDecideApproval_Approve() {
	ctx := context.Background()
	submitterID := uuid.NewString()
	txn := suite.submittedExpense(submitterID)
	txn.CreatedBy = submitterID

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:approve").Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.ApprovalStatus == domain.ApprovalApproved &&
			t.ApprovedAt != nil && t.ApprovedBy != nil && *t.ApprovedBy == suite.actorID &&
			t.DocumentStatus == domain.DocStatusWaitingTaxDocument
	})).Return(nil).Once()

	updated, events, err := suite.service.DecideApproval(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.DecideApprovalRequest{Decision: domain.DecisionApprove})

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalApproved, updated.ApprovalStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.ActionApproved, events[0].Action)
	suite.Equal([]string{submitterID}, events[1].TargetUserIDs)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestDecideApproval_Reject() {
	ctx := context.Background()
	txn := suite.submittedExpense(uuid.NewString())
	reason := "missing receipt"

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:approve").Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.ApprovalStatus == domain.ApprovalRejected &&
			t.RejectedAt != nil && t.RejectionReason != nil && *t.RejectionReason == reason &&
			t.DocumentStatus == domain.DocStatusDraft
	})).Return(nil).Once()

	updated, events, err := suite.service.DecideApproval(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.DecideApprovalRequest{Decision: domain.DecisionReject, Reason: &reason})

	suite.Require().NoError(err)
	suite.Equal(domain.ApprovalRejected, updated.ApprovalStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.ActionRejected, events[0].Action)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestDecideApproval_SelfApprovalForbidden() {
	ctx := context.Background()
	txn := suite.submittedExpense(suite.actorID)

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:approve").Return(nil).Once()

	_, _, err := suite.service.DecideApproval(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.DecideApprovalRequest{Decision: domain.DecisionApprove})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrSelfApproval)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "UpdateTransaction", mock.Anything, mock.Anything)
}

func (suite *TransactionServiceTestSuite) TestDecideApproval_NotSubmitted() {
	ctx := context.Background()
	txn := suite.draftExpense()

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:approve").Return(nil).Once()

	_, _, err := suite.service.DecideApproval(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.DecideApprovalRequest{Decision: domain.DecisionApprove})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

// --- UpdateDocumentFlags ---

func (suite *TransactionServiceTestSuite) TestUpdateDocumentFlags_CollectingDocumentAdvances() {
	ctx := context.Background()
	txn := suite.draftExpense()
	txn.ApprovalStatus = domain.ApprovalApproved
	txn.DocumentStatus = domain.DocStatusWaitingTaxDocument
	hasDoc := true

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:update").Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.HasTaxDocument && t.DocumentStatus == domain.DocStatusReadyForAccounting
	})).Return(nil).Once()

	updated, _, err := suite.service.UpdateDocumentFlags(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.UpdateDocumentFlagsRequest{HasTaxDocument: &hasDoc})

	suite.Require().NoError(err)
	suite.Equal(domain.DocStatusReadyForAccounting, updated.DocumentStatus)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestUpdateDocumentFlags_SelfHealEmitsCorrection() {
	ctx := context.Background()
	txn := suite.draftExpense()
	txn.ApprovalStatus = domain.ApprovalApproved
	// Stored status contradicts the flags: withholding branch without withholding.
	txn.DocumentStatus = domain.DocStatusWhtIssued
	txn.HasTaxDocument = true

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:update").Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.DocumentStatus == domain.DocStatusReadyForAccounting
	})).Return(nil).Once()

	// A request touching no derivation input only runs the self-heal.
	hasCert := false
	updated, events, err := suite.service.UpdateDocumentFlags(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.UpdateDocumentFlagsRequest{HasWithholdingCertificate: &hasCert})

	suite.Require().NoError(err)
	suite.Equal(domain.DocStatusReadyForAccounting, updated.DocumentStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.ActionStatusCorrected, events[1].Action)
}

func (suite *TransactionServiceTestSuite) TestUpdateDocumentFlags_ExplicitStatusWins() {
	ctx := context.Background()
	txn := suite.draftExpense()
	txn.ApprovalStatus = domain.ApprovalApproved
	txn.DocumentStatus = domain.DocStatusReadyForAccounting
	txn.HasTaxDocument = true
	explicit := domain.DocStatusSentToAccountant

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:update").Return(nil).Once()
	suite.mockTxnRepo.On("UpdateTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.DocumentStatus == domain.DocStatusSentToAccountant
	})).Return(nil).Once()

	updated, _, err := suite.service.UpdateDocumentFlags(ctx, suite.companyID, txn.TransactionID, suite.actorID, dto.UpdateDocumentFlagsRequest{ExplicitStatus: &explicit})

	suite.Require().NoError(err)
	suite.Equal(domain.DocStatusSentToAccountant, updated.DocumentStatus)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

// --- DeleteTransaction ---

func (suite *TransactionServiceTestSuite) TestDeleteTransaction_Success() {
	ctx := context.Background()
	txn := suite.draftExpense()

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:delete").Return(nil).Once()
	suite.mockPaymentRepo.On("ListPaymentsByTransaction", ctx, txn.TransactionID).
		Return([]domain.PaymentAttribution{}, nil).Once()
	suite.mockTxnRepo.On("SoftDeleteTransaction", ctx, txn.TransactionID, suite.actorID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	events, err := suite.service.DeleteTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().NoError(err)
	suite.Require().Len(events, 1)
	suite.Equal(domain.ActionDeleted, events[0].Action)
	suite.mockTxnRepo.AssertExpectations(suite.T())
}

func (suite *TransactionServiceTestSuite) TestDeleteTransaction_BlockedBySettledPayments() {
	ctx := context.Background()
	txn := suite.draftExpense()
	settled := domain.PaymentAttribution{
		PaymentID:        uuid.NewString(),
		TransactionID:    txn.TransactionID,
		SettlementStatus: domain.SettlementSettled,
	}

	suite.mockTxnRepo.On("FindTransactionByIDForUpdate", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "expense:delete").Return(nil).Once()
	suite.mockPaymentRepo.On("ListPaymentsByTransaction", ctx, txn.TransactionID).
		Return([]domain.PaymentAttribution{settled}, nil).Once()

	_, err := suite.service.DeleteTransaction(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrConflict)
	suite.mockTxnRepo.AssertNotCalled(suite.T(), "SoftDeleteTransaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// --- Reads ---

func (suite *TransactionServiceTestSuite) TestGetTransactionByID_DeletedHidden() {
	ctx := context.Background()
	txn := suite.draftExpense()
	deletedAt := time.Now().UTC()
	txn.DeletedAt = &deletedAt

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.GetTransactionByID(ctx, suite.companyID, txn.TransactionID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestTransactionService(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}
