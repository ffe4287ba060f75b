package dto

import (
	"time"

	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PaymentAttributionInput is one who-paid row in an attach request.
type PaymentAttributionInput struct {
	PayerType domain.PayerType `json:"payerType" binding:"required,payertype"`
	PayerRef  *string          `json:"payerRef"`
	Amount    decimal.Decimal  `json:"amount" binding:"required"`
}

// AttachPaymentsRequest rebuilds the payment attribution list of a transaction.
type AttachPaymentsRequest struct {
	Attributions []PaymentAttributionInput `json:"attributions" binding:"required,min=1,dive"`
}

// SettlePaymentRequest marks a pending reimbursement as paid out.
type SettlePaymentRequest struct {
	Reference      string   `json:"reference" binding:"required"`
	AttachmentRefs []string `json:"attachmentRefs"`
}

// ReversePaymentRequest undoes a settlement. The reason is mandatory.
type ReversePaymentRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// BatchSettleRequest settles many pending rows at once.
type BatchSettleRequest struct {
	PaymentIDs []string `json:"paymentIDs" binding:"required,min=1"`
	Reference  string   `json:"reference" binding:"required"`
	// CreateReimbursementExpense synthesizes one company-funded expense per
	// distinct payer covering the payout itself.
	CreateReimbursementExpense bool `json:"createReimbursementExpense"`
}

// BatchSettleOutcome is the per-id result of a batch settlement. Skipped is
// true for ids that were already settled or whose owning transaction is not
// approved; callers must inspect outcomes rather than assume success.
type BatchSettleOutcome struct {
	PaymentID string `json:"paymentID"`
	Settled   bool   `json:"settled"`
	Skipped   bool   `json:"skipped"`
	Reason    string `json:"reason,omitempty"`
}

// BatchSettleResponse reports the per-id outcomes and any synthesized
// reimbursement expense ids.
type BatchSettleResponse struct {
	Outcomes              []BatchSettleOutcome `json:"outcomes"`
	CreatedTransactionIDs []string             `json:"createdTransactionIDs,omitempty"`
}

// PaymentResponse is the wire shape of a payment attribution row.
type PaymentResponse struct {
	PaymentID           string                  `json:"paymentID"`
	TransactionID       string                  `json:"transactionID"`
	PayerType           domain.PayerType        `json:"payerType"`
	PayerRef            *string                 `json:"payerRef,omitempty"`
	Amount              decimal.Decimal         `json:"amount"`
	SettlementStatus    domain.SettlementStatus `json:"settlementStatus"`
	SettledAt           *time.Time              `json:"settledAt,omitempty"`
	SettledBy           *string                 `json:"settledBy,omitempty"`
	SettlementReference *string                 `json:"settlementReference,omitempty"`
	ReversedAt          *time.Time              `json:"reversedAt,omitempty"`
	ReversalReason      *string                 `json:"reversalReason,omitempty"`
	CreatedAt           time.Time               `json:"createdAt"`
}

// ToPaymentResponse converts a domain.PaymentAttribution to its wire shape.
func ToPaymentResponse(p *domain.PaymentAttribution) PaymentResponse {
	return PaymentResponse{
		PaymentID:           p.PaymentID,
		TransactionID:       p.TransactionID,
		PayerType:           p.PayerType,
		PayerRef:            p.PayerRef,
		Amount:              p.Amount,
		SettlementStatus:    p.SettlementStatus,
		SettledAt:           p.SettledAt,
		SettledBy:           p.SettledBy,
		SettlementReference: p.SettlementReference,
		ReversedAt:          p.ReversedAt,
		ReversalReason:      p.ReversalReason,
		CreatedAt:           p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of attribution rows.
func ToPaymentResponses(payments []domain.PaymentAttribution) []PaymentResponse {
	responses := make([]PaymentResponse, len(payments))
	for i := range payments {
		responses[i] = ToPaymentResponse(&payments[i])
	}
	return responses
}
