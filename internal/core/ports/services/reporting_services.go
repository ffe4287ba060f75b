package services

import (
	"context"
	"time"

	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/utils/tax"
	"github.com/shopspring/decimal"
)

// ReportingSvc exposes the tax computation surface and period summaries.
type ReportingSvc interface {
	// ComputeTotals derives the full amount breakdown for one transaction.
	ComputeTotals(base, vatRatePercent, withholdingRatePercent decimal.Decimal) (tax.TransactionTotals, error)

	// SummarizeTaxes aggregates VAT and withholding over a company's
	// transactions within a period.
	SummarizeTaxes(ctx context.Context, companyID, requestingUserID string, from, to time.Time) (*dto.TaxSummaryResponse, error)
}
