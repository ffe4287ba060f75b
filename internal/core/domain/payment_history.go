package domain

import "time"

// SettlementRecord is one completed settle/reverse cycle kept as immutable
// history on a payment attribution. Re-settling after a reversal pushes the
// prior settlement metadata here so the original reference survives.
type SettlementRecord struct {
	Reference      string    `json:"reference"`
	SettledAt      time.Time `json:"settledAt"`
	SettledBy      string    `json:"settledBy"`
	ReversedAt     time.Time `json:"reversedAt"`
	ReversedBy     string    `json:"reversedBy"`
	ReversalReason string    `json:"reversalReason"`
}
