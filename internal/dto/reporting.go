package dto

import (
	"github.com/NattKh/findoc_app/internal/utils/tax"
	"github.com/shopspring/decimal"
)

// ComputeTotalsRequest asks for the full amount breakdown of one transaction.
type ComputeTotalsRequest struct {
	BaseAmount             decimal.Decimal `json:"baseAmount" binding:"required"`
	VatRatePercent         decimal.Decimal `json:"vatRatePercent"`
	WithholdingRatePercent decimal.Decimal `json:"withholdingRatePercent"`
}

// TaxSummaryParams bounds a period tax summary.
type TaxSummaryParams struct {
	From string `form:"from" binding:"required"` // YYYY-MM-DD
	To   string `form:"to" binding:"required"`   // YYYY-MM-DD
}

// TaxSummaryResponse aggregates a company's VAT and withholding positions
// over a period.
type TaxSummaryResponse struct {
	Vat         tax.VatSummary         `json:"vat"`
	Withholding tax.WithholdingSummary `json:"withholding"`
}
