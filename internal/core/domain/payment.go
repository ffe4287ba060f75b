package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayerType identifies which pocket the money for an expense came from.
type PayerType string

const (
	PayerEntity     PayerType = "ENTITY"          // Company funds
	PayerPettyCash  PayerType = "PETTY_CASH_FUND" // Petty cash box
	PayerIndividual PayerType = "INDIVIDUAL"      // An employee fronted the money
)

// SettlementStatus is the reimbursement state of a payment attribution row.
type SettlementStatus string

const (
	// SettlementNotRequired is terminal: company-funded rows never need reimbursement.
	SettlementNotRequired SettlementStatus = "NOT_REQUIRED"
	SettlementPending     SettlementStatus = "PENDING"
	SettlementSettled     SettlementStatus = "SETTLED"
)

// SettlementStatusFor derives the settlement status implied by a payer type.
// Only money fronted by an individual creates a reimbursement obligation.
func SettlementStatusFor(payerType PayerType) SettlementStatus {
	if payerType == PayerIndividual {
		return SettlementPending
	}
	return SettlementNotRequired
}

// ValidPayerType reports whether p is a known payer type.
func ValidPayerType(p PayerType) bool {
	switch p {
	case PayerEntity, PayerPettyCash, PayerIndividual:
		return true
	}
	return false
}

// PaymentAttribution records who funded (part of) an expense and whether that
// funding must be reimbursed. Settled rows are immutable history: they may
// only be reversed back to PENDING, never edited or deleted.
type PaymentAttribution struct {
	PaymentID     string          `json:"paymentID"` // Primary Key (UUID)
	TransactionID string          `json:"transactionID"`
	PayerType     PayerType       `json:"payerType"`
	PayerRef      *string         `json:"payerRef,omitempty"` // Required when PayerType is INDIVIDUAL
	Amount        decimal.Decimal `json:"amount"`             // > 0

	SettlementStatus    SettlementStatus `json:"settlementStatus"`
	SettledAt           *time.Time       `json:"settledAt,omitempty"`
	SettledBy           *string          `json:"settledBy,omitempty"`
	SettlementReference *string          `json:"settlementReference,omitempty"`
	AttachmentRefs      []string         `json:"attachmentRefs,omitempty"`

	ReversedAt     *time.Time `json:"reversedAt,omitempty"`
	ReversedBy     *string    `json:"reversedBy,omitempty"`
	ReversalReason *string    `json:"reversalReason,omitempty"`

	// History holds completed settle/reverse cycles; see SettlementRecord.
	History []SettlementRecord `json:"history,omitempty"`

	AuditFields
}
