package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/core/workflow"
)

func TestDeriveDocumentStatus_Expense(t *testing.T) {
	tests := []struct {
		name     string
		flags    workflow.DocumentFlags
		expected domain.DocumentStatus
	}{
		{
			"tax invoice missing",
			workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice},
			domain.DocStatusWaitingTaxDocument,
		},
		{
			"tax invoice collected, withholding applies",
			workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true, WithholdingApplicable: true},
			domain.DocStatusWhtPendingIssue,
		},
		{
			"tax invoice collected, no withholding",
			workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true},
			domain.DocStatusReadyForAccounting,
		},
		{
			"cash receipt skips the waiting state",
			workflow.DocumentFlags{DocumentType: domain.DocTypeCashReceipt},
			domain.DocStatusReadyForAccounting,
		},
		{
			"no document with withholding",
			workflow.DocumentFlags{DocumentType: domain.DocTypeNoDocument, WithholdingApplicable: true},
			domain.DocStatusWhtPendingIssue,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := workflow.DeriveDocumentStatus(domain.KindExpense, tt.flags, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestDeriveDocumentStatus_Income(t *testing.T) {
	got, err := workflow.DeriveDocumentStatus(domain.KindIncome, workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusWaitingInvoiceIssue, got)

	got, err = workflow.DeriveDocumentStatus(domain.KindIncome, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true, WithholdingApplicable: true,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusWhtPendingCertificate, got)
}

func TestDeriveDocumentStatus_Explicit(t *testing.T) {
	explicit := domain.DocStatusSentToAccountant
	got, err := workflow.DeriveDocumentStatus(domain.KindExpense, workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice}, &explicit)
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusSentToAccountant, got)

	// An income-only status is rejected on an expense record.
	invalid := domain.DocStatusWhtCertificateReceived
	_, err = workflow.DeriveDocumentStatus(domain.KindExpense, workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice}, &invalid)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRepairDocumentStatus(t *testing.T) {
	// Withholding branch without withholding heals to the derived status.
	got := workflow.RepairDocumentStatus(domain.KindExpense, domain.DocStatusWhtIssued, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true,
	})
	assert.Equal(t, domain.DocStatusReadyForAccounting, got)

	// Stale waiting state heals once the document arrives.
	got = workflow.RepairDocumentStatus(domain.KindExpense, domain.DocStatusWaitingTaxDocument, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true, WithholdingApplicable: true,
	})
	assert.Equal(t, domain.DocStatusWhtPendingIssue, got)

	// Consistent statuses, including manually advanced ones, pass through.
	got = workflow.RepairDocumentStatus(domain.KindExpense, domain.DocStatusSentToAccountant, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true,
	})
	assert.Equal(t, domain.DocStatusSentToAccountant, got)

	// DRAFT and COMPLETED are terminal for the repair pass.
	got = workflow.RepairDocumentStatus(domain.KindExpense, domain.DocStatusDraft, workflow.DocumentFlags{DocumentType: domain.DocTypeTaxInvoice})
	assert.Equal(t, domain.DocStatusDraft, got)
	got = workflow.RepairDocumentStatus(domain.KindExpense, domain.DocStatusCompleted, workflow.DocumentFlags{DocumentType: domain.DocTypeNoDocument})
	assert.Equal(t, domain.DocStatusCompleted, got)
}

func TestRepairDocumentStatus_Idempotent(t *testing.T) {
	flagSets := []workflow.DocumentFlags{
		{DocumentType: domain.DocTypeTaxInvoice},
		{DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true},
		{DocumentType: domain.DocTypeTaxInvoice, HasTaxDocument: true, WithholdingApplicable: true},
		{DocumentType: domain.DocTypeCashReceipt, WithholdingApplicable: true},
		{DocumentType: domain.DocTypeNoDocument},
	}
	statusesByKind := map[domain.TransactionKind][]domain.DocumentStatus{
		domain.KindExpense: {
			domain.DocStatusDraft, domain.DocStatusWaitingTaxDocument,
			domain.DocStatusWhtPendingIssue, domain.DocStatusWhtIssued,
			domain.DocStatusWhtSentToVendor, domain.DocStatusReadyForAccounting,
			domain.DocStatusSentToAccountant, domain.DocStatusCompleted,
		},
		domain.KindIncome: {
			domain.DocStatusDraft, domain.DocStatusWaitingInvoiceIssue,
			domain.DocStatusWhtPendingCertificate, domain.DocStatusWhtCertificateReceived,
			domain.DocStatusReadyForAccounting, domain.DocStatusSentToAccountant,
			domain.DocStatusCompleted,
		},
	}
	for kind, statuses := range statusesByKind {
		for _, status := range statuses {
			for _, flags := range flagSets {
				once := workflow.RepairDocumentStatus(kind, status, flags)
				twice := workflow.RepairDocumentStatus(kind, once, flags)
				assert.Equal(t, once, twice, "kind=%s status=%s flags=%+v", kind, status, flags)
			}
		}
	}
}

func TestSubmitDocument(t *testing.T) {
	got, err := workflow.SubmitDocument(domain.KindExpense, domain.DocStatusDraft, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DocStatusWaitingTaxDocument, got)

	_, err = workflow.SubmitDocument(domain.KindExpense, domain.DocStatusReadyForAccounting, workflow.DocumentFlags{
		DocumentType: domain.DocTypeTaxInvoice,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}
