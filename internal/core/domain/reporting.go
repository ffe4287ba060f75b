package domain

import (
	"github.com/shopspring/decimal"
)

// PersonSettlementSummary is one row of the per-person reimbursement report.
// Every company member appears exactly once, including members with no
// payment activity (zero totals).
type PersonSettlementSummary struct {
	UserID       string          `json:"userID"`
	UserName     string          `json:"userName"`
	PendingCount int             `json:"pendingCount"`
	PendingTotal decimal.Decimal `json:"pendingTotal"`
	SettledCount int             `json:"settledCount"`
	SettledTotal decimal.Decimal `json:"settledTotal"`
}

// MonthlySettlementSummary buckets payment activity by month: settled rows
// by their settlement time, pending rows by creation time.
type MonthlySettlementSummary struct {
	Month        string          `json:"month"` // YYYY-MM
	PendingCount int             `json:"pendingCount"`
	PendingTotal decimal.Decimal `json:"pendingTotal"`
	SettledCount int             `json:"settledCount"`
	SettledTotal decimal.Decimal `json:"settledTotal"`
}
