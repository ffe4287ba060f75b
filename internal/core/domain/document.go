package domain

// DocumentStatus tracks a transaction's progress through document collection
// and hand-off to the accountant. Expense and income records share the same
// shape but carry different labels for the waiting and withholding branches.
type DocumentStatus string

const (
	DocStatusDraft DocumentStatus = "DRAFT"

	// Expense branch.
	DocStatusWaitingTaxDocument DocumentStatus = "WAITING_TAX_DOCUMENT"
	DocStatusWhtPendingIssue    DocumentStatus = "WITHHOLDING_PENDING_ISSUE"
	DocStatusWhtIssued          DocumentStatus = "WITHHOLDING_ISSUED"
	DocStatusWhtSentToVendor    DocumentStatus = "WITHHOLDING_SENT_TO_COUNTERPARTY"

	// Income branch.
	DocStatusWaitingInvoiceIssue    DocumentStatus = "WAITING_INVOICE_ISSUE"
	DocStatusWhtPendingCertificate  DocumentStatus = "WITHHOLDING_PENDING_CERTIFICATE"
	DocStatusWhtCertificateReceived DocumentStatus = "WITHHOLDING_CERTIFICATE_RECEIVED"

	// Shared tail.
	DocStatusReadyForAccounting DocumentStatus = "READY_FOR_ACCOUNTING"
	DocStatusSentToAccountant   DocumentStatus = "SENT_TO_ACCOUNTANT"
	DocStatusCompleted          DocumentStatus = "COMPLETED"
)

// expenseDocStatuses and incomeDocStatuses are the closed per-kind status sets.
var expenseDocStatuses = map[DocumentStatus]struct{}{
	DocStatusDraft:              {},
	DocStatusWaitingTaxDocument: {},
	DocStatusWhtPendingIssue:    {},
	DocStatusWhtIssued:          {},
	DocStatusWhtSentToVendor:    {},
	DocStatusReadyForAccounting: {},
	DocStatusSentToAccountant:   {},
	DocStatusCompleted:          {},
}

var incomeDocStatuses = map[DocumentStatus]struct{}{
	DocStatusDraft:                  {},
	DocStatusWaitingInvoiceIssue:    {},
	DocStatusWhtPendingCertificate:  {},
	DocStatusWhtCertificateReceived: {},
	DocStatusReadyForAccounting:     {},
	DocStatusSentToAccountant:       {},
	DocStatusCompleted:              {},
}

// ValidDocumentStatus reports whether status belongs to the closed set for
// the given transaction kind.
func ValidDocumentStatus(kind TransactionKind, status DocumentStatus) bool {
	switch kind {
	case KindExpense:
		_, ok := expenseDocStatuses[status]
		return ok
	case KindIncome:
		_, ok := incomeDocStatuses[status]
		return ok
	default:
		return false
	}
}
