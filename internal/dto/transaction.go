package dto

import (
	"time"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateTransactionRequest creates a new expense or income record in DRAFT.
type CreateTransactionRequest struct {
	Kind                   domain.TransactionKind `json:"kind" binding:"required,oneof=EXPENSE INCOME"`
	Description            string                 `json:"description" binding:"required"`
	CounterpartyRef        *string                `json:"counterpartyRef"`
	BaseAmount             decimal.Decimal        `json:"baseAmount" binding:"required"`
	VatRatePercent         decimal.Decimal        `json:"vatRatePercent"`
	WithholdingApplicable  bool                   `json:"withholdingApplicable"`
	WithholdingRatePercent *decimal.Decimal       `json:"withholdingRatePercent"`
	DocumentType           domain.DocumentType    `json:"documentType" binding:"required,oneof=TAX_INVOICE CASH_RECEIPT NO_DOCUMENT"`
	HasTaxDocument         bool                   `json:"hasTaxDocument"`
}

// DecideApprovalRequest carries an approve/reject verdict.
type DecideApprovalRequest struct {
	Decision domain.ApprovalDecision `json:"decision" binding:"required,oneof=APPROVE REJECT"`
	Reason   *string                 `json:"reason"`
}

// UpdateDocumentFlagsRequest mutates the document-collection flags of a
// record. Nil fields are left unchanged. ExplicitStatus, when set, is
// applied verbatim as a manual correction instead of the derivation rule.
type UpdateDocumentFlagsRequest struct {
	HasTaxDocument            *bool                  `json:"hasTaxDocument"`
	HasWithholdingCertificate *bool                  `json:"hasWithholdingCertificate"`
	WithholdingApplicable     *bool                  `json:"withholdingApplicable"`
	WithholdingRatePercent    *decimal.Decimal       `json:"withholdingRatePercent"`
	DocumentType              *domain.DocumentType   `json:"documentType" binding:"omitempty,oneof=TAX_INVOICE CASH_RECEIPT NO_DOCUMENT"`
	ExplicitStatus            *domain.DocumentStatus `json:"explicitStatus"`
}

// ListTransactionsParams filters company transaction listings.
type ListTransactionsParams struct {
	Kind           *domain.TransactionKind `form:"kind" binding:"omitempty,oneof=EXPENSE INCOME"`
	ApprovalStatus *domain.ApprovalStatus  `form:"approvalStatus"`
	DocumentStatus *domain.DocumentStatus  `form:"documentStatus"`
	From           *time.Time              `form:"from" time_format:"2006-01-02"`
	To             *time.Time              `form:"to" time_format:"2006-01-02"`
	Limit          int                     `form:"limit,default=50" binding:"omitempty,min=1,max=200"`
	Offset         int                     `form:"offset" binding:"omitempty,min=0"`
}

// TransactionResponse is the wire shape of a transaction record.
type TransactionResponse struct {
	TransactionID             string                 `json:"transactionID"`
	CompanyID                 string                 `json:"companyID"`
	Kind                      domain.TransactionKind `json:"kind"`
	Description               string                 `json:"description"`
	CounterpartyRef           *string                `json:"counterpartyRef,omitempty"`
	BaseAmount                decimal.Decimal        `json:"baseAmount"`
	VatRatePercent            decimal.Decimal        `json:"vatRatePercent"`
	VatAmount                 *decimal.Decimal       `json:"vatAmount,omitempty"`
	WithholdingApplicable     bool                   `json:"withholdingApplicable"`
	WithholdingRatePercent    *decimal.Decimal       `json:"withholdingRatePercent,omitempty"`
	WithholdingAmount         *decimal.Decimal       `json:"withholdingAmount,omitempty"`
	NetAmount                 decimal.Decimal        `json:"netAmount"`
	DocumentType              domain.DocumentType    `json:"documentType"`
	HasTaxDocument            bool                   `json:"hasTaxDocument"`
	HasWithholdingCertificate bool                   `json:"hasWithholdingCertificate"`
	ApprovalStatus            domain.ApprovalStatus  `json:"approvalStatus"`
	DocumentStatus            domain.DocumentStatus  `json:"documentStatus"`
	SubmittedAt               *time.Time             `json:"submittedAt,omitempty"`
	SubmittedBy               *string                `json:"submittedBy,omitempty"`
	RejectionReason           *string                `json:"rejectionReason,omitempty"`
	CreatedAt                 time.Time              `json:"createdAt"`
	CreatedBy                 string                 `json:"createdBy"`
}

// ToTransactionResponse converts a domain.Transaction to its wire shape.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID:             t.TransactionID,
		CompanyID:                 t.CompanyID,
		Kind:                      t.Kind,
		Description:               t.Description,
		CounterpartyRef:           t.CounterpartyRef,
		BaseAmount:                t.BaseAmount,
		VatRatePercent:            t.VatRatePercent,
		VatAmount:                 t.VatAmount,
		WithholdingApplicable:     t.WithholdingApplicable,
		WithholdingRatePercent:    t.WithholdingRatePercent,
		WithholdingAmount:         t.WithholdingAmount,
		NetAmount:                 t.NetAmount,
		DocumentType:              t.DocumentType,
		HasTaxDocument:            t.HasTaxDocument,
		HasWithholdingCertificate: t.HasWithholdingCertificate,
		ApprovalStatus:            t.ApprovalStatus,
		DocumentStatus:            t.DocumentStatus,
		SubmittedAt:               t.SubmittedAt,
		SubmittedBy:               t.SubmittedBy,
		RejectionReason:           t.RejectionReason,
		CreatedAt:                 t.CreatedAt,
		CreatedBy:                 t.CreatedBy,
	}
}

// ToTransactionResponses converts a slice of domain transactions.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, len(txns))
	for i := range txns {
		responses[i] = ToTransactionResponse(&txns[i])
	}
	return responses
}
