package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind distinguishes money leaving the company from money coming in.
type TransactionKind string

const (
	KindExpense TransactionKind = "EXPENSE"
	KindIncome  TransactionKind = "INCOME"
)

// DocumentType classifies the supporting document a transaction is expected
// to carry. Only full tax invoices participate in the tax-document wait state;
// cash receipts and undocumented spends skip it.
type DocumentType string

const (
	DocTypeTaxInvoice  DocumentType = "TAX_INVOICE"
	DocTypeCashReceipt DocumentType = "CASH_RECEIPT"
	DocTypeNoDocument  DocumentType = "NO_DOCUMENT"
)

// RequiresTaxDocument reports whether this document type must collect a tax
// invoice before the record can move past the waiting state.
func (d DocumentType) RequiresTaxDocument() bool {
	return d == DocTypeTaxInvoice
}

// Transaction represents a single expense or income record moving through the
// approval and document workflows. Monetary fields use decimals exclusively;
// VatAmount and WithholdingAmount stay nil (not zero) when the corresponding
// rate is absent, to distinguish "not computed" from "computed, zero".
type Transaction struct {
	TransactionID   string          `json:"transactionID"` // Primary Key (UUID)
	CompanyID       string          `json:"companyID"`     // Owning tenant (Not Null)
	Kind            TransactionKind `json:"kind"`          // EXPENSE or INCOME
	CounterpartyRef *string         `json:"counterpartyRef,omitempty"`
	Description     string          `json:"description"`

	BaseAmount             decimal.Decimal  `json:"baseAmount"` // Pre-tax, > 0
	VatRatePercent         decimal.Decimal  `json:"vatRatePercent"`
	VatAmount              *decimal.Decimal `json:"vatAmount,omitempty"`
	WithholdingApplicable  bool             `json:"withholdingApplicable"`
	WithholdingRatePercent *decimal.Decimal `json:"withholdingRatePercent,omitempty"`
	WithholdingAmount      *decimal.Decimal `json:"withholdingAmount,omitempty"`
	NetAmount              decimal.Decimal  `json:"netAmount"` // base + VAT - WHT

	DocumentType              DocumentType `json:"documentType"`
	HasTaxDocument            bool         `json:"hasTaxDocument"`
	HasWithholdingCertificate bool         `json:"hasWithholdingCertificate"`

	ApprovalStatus  ApprovalStatus `json:"approvalStatus"`
	DocumentStatus  DocumentStatus `json:"documentStatus"`
	SubmittedAt     *time.Time     `json:"submittedAt,omitempty"`
	SubmittedBy     *string        `json:"submittedBy,omitempty"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty"`
	ApprovedBy      *string        `json:"approvedBy,omitempty"`
	RejectedAt      *time.Time     `json:"rejectedAt,omitempty"`
	RejectedBy      *string        `json:"rejectedBy,omitempty"`
	RejectionReason *string        `json:"rejectionReason,omitempty"`

	AuditFields
	DeletedAt *time.Time `json:"deletedAt,omitempty"` // Soft delete
}

// IsDeleted reports whether the transaction has been soft-deleted.
func (t *Transaction) IsDeleted() bool {
	return t.DeletedAt != nil
}

// SettlementAllowed reports whether payments on this transaction may be
// settled: reimbursement for a record that is still pending sign-off or was
// rejected is forbidden.
func (t *Transaction) SettlementAllowed() bool {
	return t.ApprovalStatus == ApprovalApproved || t.ApprovalStatus == ApprovalNotRequired
}
