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
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/core/services"
	"github.com/NattKh/findoc_app/internal/dto"
)

// --- Mock PaymentRepository ---
type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryWithTx = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttribution), args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentByIDForUpdate(ctx context.Context, paymentID string) (*domain.PaymentAttribution, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentAttribution), args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsByTransaction(ctx context.Context, transactionID string) ([]domain.PaymentAttribution, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAttribution), args.Error(1)
}

func (m *MockPaymentRepository) FindOwningTransaction(ctx context.Context, paymentID string) (*domain.Transaction, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockPaymentRepository) SavePayments(ctx context.Context, payments []domain.PaymentAttribution) error {
	args := m.Called(ctx, payments)
	return args.Error(0)
}

func (m *MockPaymentRepository) DeleteUnsettledPayments(ctx context.Context, transactionID string) error {
	args := m.Called(ctx, transactionID)
	return args.Error(0)
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, payment domain.PaymentAttribution) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) ListIndividualPaymentsByCompany(ctx context.Context, companyID string) ([]domain.PaymentAttribution, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PaymentAttribution), args.Error(1)
}

// WithTx runs fn against the mock itself so expectations set on the mock
// cover the tx-scoped calls too.
func (m *MockPaymentRepository) WithTx(ctx context.Context, fn func(repo portsrepo.PaymentRepositoryFacade) error) error {
	return fn(m)
}

// --- Mock TransactionRepository ---
type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryWithTx = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) FindTransactionByIDForUpdate(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByCompany(ctx context.Context, companyID string, filter portsrepo.TransactionListFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, companyID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) SoftDeleteTransaction(ctx context.Context, transactionID string, deletedBy string, deletedAt time.Time) error {
	args := m.Called(ctx, transactionID, deletedBy, deletedAt)
	return args.Error(0)
}

func (m *MockTransactionRepository) WithTx(ctx context.Context, fn func(repo portsrepo.TransactionRepositoryFacade) error) error {
	return fn(m)
}

// --- Mock CompanyService ---
type MockCompanyService struct {
	mock.Mock
}

var _ portssvc.CompanySvcFacade = (*MockCompanyService)(nil)

func (m *MockCompanyService) HasCapability(ctx context.Context, actorUserID, companyID, capability string) (bool, error) {
	args := m.Called(ctx, actorUserID, companyID, capability)
	return args.Bool(0), args.Error(1)
}

func (m *MockCompanyService) RequireCapability(ctx context.Context, actorUserID, companyID, capability string) error {
	args := m.Called(ctx, actorUserID, companyID, capability)
	return args.Error(0)
}

func (m *MockCompanyService) ListCapabilityHolders(ctx context.Context, companyID, capability string) ([]string, error) {
	args := m.Called(ctx, companyID, capability)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCompanyService) RequireMember(ctx context.Context, userID, companyID string) error {
	args := m.Called(ctx, userID, companyID)
	return args.Error(0)
}

func (m *MockCompanyService) GetCompanyByID(ctx context.Context, companyID, requestingUserID string) (*domain.Company, error) {
	args := m.Called(ctx, companyID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyService) ListMembers(ctx context.Context, companyID, requestingUserID string) ([]domain.CompanyMember, error) {
	args := m.Called(ctx, companyID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompanyMember), args.Error(1)
}

func (m *MockCompanyService) CreateCompany(ctx context.Context, req dto.CreateCompanyRequest, creatorUserID string) (*domain.Company, error) {
	args := m.Called(ctx, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Company), args.Error(1)
}

func (m *MockCompanyService) AddMember(ctx context.Context, companyID, actorUserID string, req dto.AddMemberRequest) error {
	args := m.Called(ctx, companyID, actorUserID, req)
	return args.Error(0)
}

func (m *MockCompanyService) UpdateMember(ctx context.Context, companyID, actorUserID string, req dto.UpdateMemberRequest) error {
	args := m.Called(ctx, companyID, actorUserID, req)
	return args.Error(0)
}

// --- Test Suite ---
type SettlementServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo *MockPaymentRepository
	mockTxnRepo     *MockTransactionRepository
	mockCompanySvc  *MockCompanyService
	service         portssvc.SettlementSvcFacade
	companyID       string
	actorID         string
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockTxnRepo = new(MockTransactionRepository)
	suite.mockCompanySvc = new(MockCompanyService)
	suite.service = services.NewSettlementService(suite.mockPaymentRepo, suite.mockTxnRepo, suite.mockCompanySvc)
	suite.companyID = uuid.NewString()
	suite.actorID = uuid.NewString()
}

func (suite *SettlementServiceTestSuite) approvedExpense(net string) *domain.Transaction {
	return &domain.Transaction{
		TransactionID:  uuid.NewString(),
		CompanyID:      suite.companyID,
		Kind:           domain.KindExpense,
		BaseAmount:     decimal.RequireFromString(net),
		NetAmount:      decimal.RequireFromString(net),
		ApprovalStatus: domain.ApprovalApproved,
		DocumentStatus: domain.DocStatusReadyForAccounting,
	}
}

func (suite *SettlementServiceTestSuite) pendingPayment(transactionID, payerRef, amount string) *domain.PaymentAttribution {
	return &domain.PaymentAttribution{
		PaymentID:        uuid.NewString(),
		TransactionID:    transactionID,
		PayerType:        domain.PayerIndividual,
		PayerRef:         &payerRef,
		Amount:           decimal.RequireFromString(amount),
		SettlementStatus: domain.SettlementPending,
	}
}

// --- AttachPayments ---

func (suite *SettlementServiceTestSuite) TestAttachPayments_Success() {
	ctx := context.Background()
	txn := suite.approvedExpense("1070")
	payerRef := uuid.NewString()
	req := dto.AttachPaymentsRequest{Attributions: []dto.PaymentAttributionInput{
		{PayerType: domain.PayerEntity, Amount: decimal.RequireFromString("800")},
		{PayerType: domain.PayerIndividual, PayerRef: &payerRef, Amount: decimal.RequireFromString("270")},
	}}

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("ListPaymentsByTransaction", ctx, txn.TransactionID).
		Return([]domain.PaymentAttribution{}, nil).Once()
	suite.mockPaymentRepo.On("DeleteUnsettledPayments", ctx, txn.TransactionID).Return(nil).Once()
	suite.mockPaymentRepo.On("SavePayments", ctx, mock.MatchedBy(func(rows []domain.PaymentAttribution) bool {
		return len(rows) == 2 &&
			rows[0].SettlementStatus == domain.SettlementNotRequired &&
			rows[1].SettlementStatus == domain.SettlementPending
	})).Return(nil).Once()

	rows, err := suite.service.AttachPayments(ctx, suite.companyID, txn.TransactionID, suite.actorID, req)

	suite.Require().NoError(err)
	suite.Len(rows, 2)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestAttachPayments_ExcessRejected() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	settledRef := uuid.NewString()
	settledRow := *suite.pendingPayment(txn.TransactionID, settledRef, "400")
	settledRow.SettlementStatus = domain.SettlementSettled
	req := dto.AttachPaymentsRequest{Attributions: []dto.PaymentAttributionInput{
		{PayerType: domain.PayerEntity, Amount: decimal.RequireFromString("700")},
	}}

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("ListPaymentsByTransaction", ctx, txn.TransactionID).
		Return([]domain.PaymentAttribution{settledRow}, nil).Once()

	// 400 settled + 700 new exceeds the 1000 net.
	_, err := suite.service.AttachPayments(ctx, suite.companyID, txn.TransactionID, suite.actorID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.ErrorIs(err, services.ErrAttributionExcess)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "DeleteUnsettledPayments", mock.Anything, mock.Anything)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "SavePayments", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestAttachPayments_IncomeRejected() {
	ctx := context.Background()
	txn := suite.approvedExpense("500")
	txn.Kind = domain.KindIncome
	req := dto.AttachPaymentsRequest{Attributions: []dto.PaymentAttributionInput{
		{PayerType: domain.PayerEntity, Amount: decimal.RequireFromString("500")},
	}}

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.AttachPayments(ctx, suite.companyID, txn.TransactionID, suite.actorID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPaymentsOnIncome)
}

func (suite *SettlementServiceTestSuite) TestAttachPayments_IndividualNeedsPayerRef() {
	ctx := context.Background()
	txn := suite.approvedExpense("500")
	req := dto.AttachPaymentsRequest{Attributions: []dto.PaymentAttributionInput{
		{PayerType: domain.PayerIndividual, Amount: decimal.RequireFromString("500")},
	}}

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockTxnRepo.On("FindTransactionByID", ctx, txn.TransactionID).Return(txn, nil).Once()

	_, err := suite.service.AttachPayments(ctx, suite.companyID, txn.TransactionID, suite.actorID, req)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrPayerRefRequired)
}

// --- SettlePayment ---

func (suite *SettlementServiceTestSuite) TestSettlePayment_Success() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")
	req := dto.SettlePaymentRequest{Reference: "BANK-2026-001"}

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.MatchedBy(func(p domain.PaymentAttribution) bool {
		return p.SettlementStatus == domain.SettlementSettled &&
			p.SettledAt != nil && p.SettledBy != nil && *p.SettledBy == suite.actorID &&
			p.SettlementReference != nil && *p.SettlementReference == req.Reference
	})).Return(nil).Once()

	settled, events, err := suite.service.SettlePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, req)

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementSettled, settled.SettlementStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.EventAudit, events[0].Kind)
	suite.Equal(domain.ActionPaymentSettled, events[0].Action)
	suite.Equal(domain.EventNotify, events[1].Kind)
	suite.Equal([]string{"payer-1"}, events[1].TargetUserIDs)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSettlePayment_AlreadySettled() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")
	payment.SettlementStatus = domain.SettlementSettled

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, _, err := suite.service.SettlePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.SettlePaymentRequest{Reference: "X"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrAlreadySettled)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "UpdatePayment", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettlePayment_UnapprovedTransaction() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	txn.ApprovalStatus = domain.ApprovalPending
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, _, err := suite.service.SettlePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.SettlePaymentRequest{Reference: "X"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrApprovalRequired)
}

func (suite *SettlementServiceTestSuite) TestSettlePayment_NotRequiredRow() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")
	payment.SettlementStatus = domain.SettlementNotRequired

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, _, err := suite.service.SettlePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.SettlePaymentRequest{Reference: "X"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

// --- ReversePayment and re-settle ---

func (suite *SettlementServiceTestSuite) TestReversePayment_Success() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")
	settledAt := time.Now().UTC().Add(-time.Hour)
	settledBy := uuid.NewString()
	reference := "BANK-2026-001"
	payment.SettlementStatus = domain.SettlementSettled
	payment.SettledAt = &settledAt
	payment.SettledBy = &settledBy
	payment.SettlementReference = &reference

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:reverse").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.MatchedBy(func(p domain.PaymentAttribution) bool {
		// Back to PENDING but the settlement metadata stays for audit.
		return p.SettlementStatus == domain.SettlementPending &&
			p.SettledAt != nil && p.SettlementReference != nil &&
			p.ReversedAt != nil && p.ReversalReason != nil && *p.ReversalReason == "wrong account"
	})).Return(nil).Once()

	reversed, events, err := suite.service.ReversePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.ReversePaymentRequest{Reason: "wrong account"})

	suite.Require().NoError(err)
	suite.Equal(domain.SettlementPending, reversed.SettlementStatus)
	suite.Require().Len(events, 2)
	suite.Equal(domain.ActionPaymentReversed, events[0].Action)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestReversePayment_PendingRowRejected() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:reverse").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, _, err := suite.service.ReversePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.ReversePaymentRequest{Reason: "nope"})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
}

func (suite *SettlementServiceTestSuite) TestReversePayment_ReasonRequired() {
	ctx := context.Background()
	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:reverse").Return(nil).Once()

	_, _, err := suite.service.ReversePayment(ctx, suite.companyID, uuid.NewString(), suite.actorID, dto.ReversePaymentRequest{})

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *SettlementServiceTestSuite) TestResettle_PushesPriorCycleIntoHistory() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")
	settledAt := time.Now().UTC().Add(-2 * time.Hour)
	reversedAt := time.Now().UTC().Add(-time.Hour)
	firstRef := "FIRST-REF"
	reason := "wrong account"
	payment.SettledAt = &settledAt
	payment.ReversedAt = &reversedAt
	payment.SettlementReference = &firstRef
	payment.ReversalReason = &reason

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.MatchedBy(func(p domain.PaymentAttribution) bool {
		return p.SettlementStatus == domain.SettlementSettled &&
			len(p.History) == 1 && p.History[0].Reference == firstRef && p.History[0].ReversalReason == reason &&
			p.ReversedAt == nil && p.ReversalReason == nil &&
			p.SettlementReference != nil && *p.SettlementReference == "SECOND-REF"
	})).Return(nil).Once()

	settled, _, err := suite.service.SettlePayment(ctx, suite.companyID, payment.PaymentID, suite.actorID, dto.SettlePaymentRequest{Reference: "SECOND-REF"})

	suite.Require().NoError(err)
	suite.Len(settled.History, 1)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

// --- BatchSettle ---

func (suite *SettlementServiceTestSuite) TestBatchSettle_SkipsWithoutFailing() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	pending := suite.pendingPayment(txn.TransactionID, "payer-1", "100")
	alreadySettled := suite.pendingPayment(txn.TransactionID, "payer-2", "200")
	alreadySettled.SettlementStatus = domain.SettlementSettled
	missingID := uuid.NewString()

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, pending.PaymentID).Return(pending, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, pending.PaymentID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.AnythingOfType("domain.PaymentAttribution")).Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, alreadySettled.PaymentID).Return(alreadySettled, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, alreadySettled.PaymentID).Return(txn, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, missingID).Return(nil, apperrors.ErrNotFound).Once()

	resp, err := suite.service.BatchSettle(ctx, suite.companyID, suite.actorID, dto.BatchSettleRequest{
		PaymentIDs: []string{pending.PaymentID, alreadySettled.PaymentID, missingID},
		Reference:  "BATCH-1",
	})

	suite.Require().NoError(err)
	suite.Require().Len(resp.Outcomes, 3)
	suite.True(resp.Outcomes[0].Settled)
	suite.True(resp.Outcomes[1].Skipped)
	suite.True(resp.Outcomes[2].Skipped)
	suite.Empty(resp.CreatedTransactionIDs)
}

func (suite *SettlementServiceTestSuite) TestBatchSettle_CreatesReimbursementExpensePerPayer() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	first := suite.pendingPayment(txn.TransactionID, "payer-1", "100")
	second := suite.pendingPayment(txn.TransactionID, "payer-1", "150")
	third := suite.pendingPayment(txn.TransactionID, "payer-2", "300")

	suite.mockCompanySvc.On("RequireCapability", ctx, suite.actorID, suite.companyID, "settlement:settle").Return(nil).Once()
	for _, p := range []*domain.PaymentAttribution{first, second, third} {
		suite.mockPaymentRepo.On("FindPaymentByIDForUpdate", ctx, p.PaymentID).Return(p, nil).Once()
		suite.mockPaymentRepo.On("FindOwningTransaction", ctx, p.PaymentID).Return(txn, nil).Once()
	}
	suite.mockPaymentRepo.On("UpdatePayment", ctx, mock.AnythingOfType("domain.PaymentAttribution")).Return(nil).Times(3)

	// One synthesized expense per distinct payer, amounts aggregated.
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.Kind == domain.KindExpense && t.NetAmount.Equal(decimal.RequireFromString("250")) &&
			t.ApprovalStatus == domain.ApprovalNotRequired && t.DocumentStatus == domain.DocStatusReadyForAccounting
	})).Return(nil).Once()
	suite.mockTxnRepo.On("SaveTransaction", ctx, mock.MatchedBy(func(t domain.Transaction) bool {
		return t.NetAmount.Equal(decimal.RequireFromString("300"))
	})).Return(nil).Once()
	suite.mockPaymentRepo.On("SavePayments", ctx, mock.MatchedBy(func(rows []domain.PaymentAttribution) bool {
		return len(rows) == 1 && rows[0].PayerType == domain.PayerEntity &&
			rows[0].SettlementStatus == domain.SettlementNotRequired
	})).Return(nil).Times(2)

	resp, err := suite.service.BatchSettle(ctx, suite.companyID, suite.actorID, dto.BatchSettleRequest{
		PaymentIDs:                 []string{first.PaymentID, second.PaymentID, third.PaymentID},
		Reference:                  "BATCH-2",
		CreateReimbursementExpense: true,
	})

	suite.Require().NoError(err)
	suite.Len(resp.CreatedTransactionIDs, 2)
	suite.mockTxnRepo.AssertExpectations(suite.T())
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

// --- GetPayment ---

func (suite *SettlementServiceTestSuite) TestGetPayment_Success() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	got, err := suite.service.GetPayment(ctx, suite.companyID, payment.PaymentID, suite.actorID)

	suite.Require().NoError(err)
	suite.Equal(payment.PaymentID, got.PaymentID)
	suite.mockPaymentRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestGetPayment_WrongCompanyHidden() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	txn.CompanyID = uuid.NewString()
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, err := suite.service.GetPayment(ctx, suite.companyID, payment.PaymentID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SettlementServiceTestSuite) TestGetPayment_DeletedTransactionHidden() {
	ctx := context.Background()
	txn := suite.approvedExpense("1000")
	deletedAt := time.Now().UTC()
	txn.DeletedAt = &deletedAt
	payment := suite.pendingPayment(txn.TransactionID, "payer-1", "250")

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockPaymentRepo.On("FindPaymentByID", ctx, payment.PaymentID).Return(payment, nil).Once()
	suite.mockPaymentRepo.On("FindOwningTransaction", ctx, payment.PaymentID).Return(txn, nil).Once()

	_, err := suite.service.GetPayment(ctx, suite.companyID, payment.PaymentID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Summaries ---

func (suite *SettlementServiceTestSuite) TestSummarizeByPerson_RequiresMembership() {
	ctx := context.Background()
	suite.mockCompanySvc.On("ListMembers", ctx, suite.companyID, suite.actorID).
		Return(nil, apperrors.ErrNotFound).Once()

	_, err := suite.service.SummarizeByPerson(ctx, suite.companyID, suite.actorID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ListIndividualPaymentsByCompany", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSummarizeByPerson_RosterCompleteWithZeroTotals() {
	ctx := context.Background()
	txnID := uuid.NewString()
	members := []domain.CompanyMember{
		{UserID: "user-bob", UserName: "Bob", CompanyID: suite.companyID, Role: domain.RoleMember},
		{UserID: "user-alice", UserName: "Alice", CompanyID: suite.companyID, Role: domain.RoleOwner},
		{UserID: "user-carol", UserName: "Carol", CompanyID: suite.companyID, Role: domain.RoleRemoved},
	}
	bobPending := *suite.pendingPayment(txnID, "user-bob", "100")
	bobSettled := *suite.pendingPayment(txnID, "user-bob", "250")
	bobSettled.SettlementStatus = domain.SettlementSettled
	carolPending := *suite.pendingPayment(txnID, "user-carol", "400")

	suite.mockCompanySvc.On("ListMembers", ctx, suite.companyID, suite.actorID).Return(members, nil).Once()
	suite.mockPaymentRepo.On("ListIndividualPaymentsByCompany", ctx, suite.companyID).
		Return([]domain.PaymentAttribution{bobPending, bobSettled, carolPending}, nil).Once()

	summaries, err := suite.service.SummarizeByPerson(ctx, suite.companyID, suite.actorID)

	suite.Require().NoError(err)
	// Every current member appears exactly once, name-sorted. Alice has no
	// rows and still shows up with zero totals; removed Carol is absent even
	// though she has a pending row.
	suite.Require().Len(summaries, 2)
	suite.Equal("user-alice", summaries[0].UserID)
	suite.Equal(0, summaries[0].PendingCount)
	suite.True(summaries[0].PendingTotal.IsZero())
	suite.True(summaries[0].SettledTotal.IsZero())
	suite.Equal("user-bob", summaries[1].UserID)
	suite.Equal(1, summaries[1].PendingCount)
	suite.True(summaries[1].PendingTotal.Equal(decimal.RequireFromString("100")))
	suite.Equal(1, summaries[1].SettledCount)
	suite.True(summaries[1].SettledTotal.Equal(decimal.RequireFromString("250")))
}

func (suite *SettlementServiceTestSuite) TestSummarizeByMonth_BucketsSettledBySettlementTime() {
	ctx := context.Background()
	txnID := uuid.NewString()
	jan := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)
	mar := time.Date(2026, time.March, 20, 9, 0, 0, 0, time.UTC)

	// Created in January, settled in March: reports under March.
	settled := *suite.pendingPayment(txnID, "payer-1", "500")
	settled.SettlementStatus = domain.SettlementSettled
	settled.CreatedAt = jan
	settled.SettledAt = &mar

	// Still pending: reports under its January creation month.
	pending := *suite.pendingPayment(txnID, "payer-1", "100")
	pending.CreatedAt = jan

	// Reversed after a March settlement: pending again, so it reports under
	// its February creation month even though settled_at is still recorded.
	reversed := *suite.pendingPayment(txnID, "payer-2", "200")
	reversed.CreatedAt = feb
	reversed.SettledAt = &mar
	reversed.ReversedAt = &mar

	// Outside the requested year: excluded.
	lastYear := *suite.pendingPayment(txnID, "payer-2", "999")
	lastYear.CreatedAt = time.Date(2025, time.December, 1, 9, 0, 0, 0, time.UTC)

	suite.mockCompanySvc.On("RequireMember", ctx, suite.actorID, suite.companyID).Return(nil).Once()
	suite.mockPaymentRepo.On("ListIndividualPaymentsByCompany", ctx, suite.companyID).
		Return([]domain.PaymentAttribution{settled, pending, reversed, lastYear}, nil).Once()

	summaries, err := suite.service.SummarizeByMonth(ctx, suite.companyID, suite.actorID, 2026)

	suite.Require().NoError(err)
	suite.Require().Len(summaries, 3)
	suite.Equal("2026-01", summaries[0].Month)
	suite.Equal(1, summaries[0].PendingCount)
	suite.True(summaries[0].PendingTotal.Equal(decimal.RequireFromString("100")))
	suite.Equal(0, summaries[0].SettledCount)
	suite.Equal("2026-02", summaries[1].Month)
	suite.Equal(1, summaries[1].PendingCount)
	suite.True(summaries[1].PendingTotal.Equal(decimal.RequireFromString("200")))
	suite.Equal("2026-03", summaries[2].Month)
	suite.Equal(0, summaries[2].PendingCount)
	suite.Equal(1, summaries[2].SettledCount)
	suite.True(summaries[2].SettledTotal.Equal(decimal.RequireFromString("500")))
}

func TestSettlementService(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}
