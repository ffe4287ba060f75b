package tax

import (
	"fmt"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/shopspring/decimal"
)

// Allowed rate sets. VAT follows the current standard/zero rates; the
// withholding set mirrors the common service-category rates. Rates are kept
// as a closed allow-list so a typo'd rate fails loudly instead of producing
// a plausible-looking amount.
var (
	vatRates = map[string]struct{}{
		"0": {},
		"7": {},
	}
	withholdingRates = map[string]struct{}{
		"0":  {},
		"1":  {},
		"2":  {},
		"3":  {},
		"5":  {},
		"10": {},
		"15": {},
	}
)

// IsValidVatRate reports whether ratePercent is in the VAT allow-list.
func IsValidVatRate(ratePercent decimal.Decimal) bool {
	_, ok := vatRates[ratePercent.String()]
	return ok
}

// IsValidWithholdingRate reports whether ratePercent is in the withholding allow-list.
func IsValidWithholdingRate(ratePercent decimal.Decimal) bool {
	_, ok := withholdingRates[ratePercent.String()]
	return ok
}

// Round2 is the single rounding point for monetary amounts: two decimal
// places, halves rounded up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

var oneHundred = decimal.NewFromInt(100)

// ComputeVat computes the VAT amount for a pre-tax base at the given rate.
// A zero rate short-circuits to zero without touching the allow-list math.
func ComputeVat(base, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: base amount %s is negative", apperrors.ErrInvalidAmount, base.String())
	}
	if !IsValidVatRate(ratePercent) {
		return decimal.Zero, fmt.Errorf("%w: VAT rate %s%% is not allowed", apperrors.ErrInvalidAmount, ratePercent.String())
	}
	if ratePercent.IsZero() {
		return decimal.Zero, nil
	}
	return Round2(base.Mul(ratePercent).Div(oneHundred)), nil
}

// ComputeWithholding computes the withholding amount for a pre-tax base at
// the given rate, independent of VAT.
func ComputeWithholding(base, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if base.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: base amount %s is negative", apperrors.ErrInvalidAmount, base.String())
	}
	if !IsValidWithholdingRate(ratePercent) {
		return decimal.Zero, fmt.Errorf("%w: withholding rate %s%% is not allowed", apperrors.ErrInvalidAmount, ratePercent.String())
	}
	if ratePercent.IsZero() {
		return decimal.Zero, nil
	}
	return Round2(base.Mul(ratePercent).Div(oneHundred)), nil
}

// TransactionTotals is the full amount breakdown for a single transaction.
// The same breakdown serves both expenses (money paid out) and incomes
// (money received after the counterparty withholds); only the semantic label
// differs at the call site.
type TransactionTotals struct {
	Base              decimal.Decimal `json:"base"`
	VatAmount         decimal.Decimal `json:"vatAmount"`
	WithholdingAmount decimal.Decimal `json:"withholdingAmount"`
	TotalWithVat      decimal.Decimal `json:"totalWithVat"`
	NetAmount         decimal.Decimal `json:"netAmount"`
}

// ComputeTransactionTotals derives every monetary field of a transaction
// from its base amount and rates: totalWithVat = base + VAT and
// netAmount = totalWithVat - withholding.
func ComputeTransactionTotals(base, vatRatePercent, withholdingRatePercent decimal.Decimal) (TransactionTotals, error) {
	vatAmount, err := ComputeVat(base, vatRatePercent)
	if err != nil {
		return TransactionTotals{}, err
	}
	whtAmount, err := ComputeWithholding(base, withholdingRatePercent)
	if err != nil {
		return TransactionTotals{}, err
	}
	totalWithVat := base.Add(vatAmount)
	return TransactionTotals{
		Base:              base,
		VatAmount:         vatAmount,
		WithholdingAmount: whtAmount,
		TotalWithVat:      totalWithVat,
		NetAmount:         totalWithVat.Sub(whtAmount),
	}, nil
}

// ReverseVat recovers the pre-tax base from a VAT-inclusive total. The
// round trip ComputeVat(ReverseVat(T, r), r) lands within one cent of
// T - ReverseVat(T, r).
func ReverseVat(totalWithVat, ratePercent decimal.Decimal) (decimal.Decimal, error) {
	if totalWithVat.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: total %s is negative", apperrors.ErrInvalidAmount, totalWithVat.String())
	}
	if !IsValidVatRate(ratePercent) {
		return decimal.Zero, fmt.Errorf("%w: VAT rate %s%% is not allowed", apperrors.ErrInvalidAmount, ratePercent.String())
	}
	if ratePercent.IsZero() {
		return totalWithVat, nil
	}
	divisor := decimal.NewFromInt(1).Add(ratePercent.Div(oneHundred))
	return Round2(totalWithVat.DivRound(divisor, 6)), nil
}

// VatSummary aggregates reclaimable input VAT against owed output VAT.
// A positive NetVat means the entity must remit the difference; negative
// means a refund is due.
type VatSummary struct {
	InputVat  decimal.Decimal `json:"inputVat"`
	OutputVat decimal.Decimal `json:"outputVat"`
	NetVat    decimal.Decimal `json:"netVat"`
}

// SummarizeVat sums expense VAT (input, reclaimable) and income VAT (output,
// owed). Nil amounts count as zero.
func SummarizeVat(expenseVats, incomeVats []*decimal.Decimal) VatSummary {
	inputVat := sumAmounts(expenseVats)
	outputVat := sumAmounts(incomeVats)
	return VatSummary{
		InputVat:  inputVat,
		OutputVat: outputVat,
		NetVat:    outputVat.Sub(inputVat),
	}
}

// WithholdingSummary aggregates tax withheld from vendors (a remittance
// liability) against tax customers withheld from the entity (a credit).
type WithholdingSummary struct {
	WithheldFromOthers decimal.Decimal `json:"withheldFromOthers"`
	WithheldByOthers   decimal.Decimal `json:"withheldByOthers"`
	NetWithholding     decimal.Decimal `json:"netWithholding"`
}

// SummarizeWithholding sums expense-side withholding (deducted from vendors,
// must be remitted) and income-side withholding (deducted by customers,
// usable as a credit). Nil amounts count as zero.
func SummarizeWithholding(expenseWht, incomeWht []*decimal.Decimal) WithholdingSummary {
	fromOthers := sumAmounts(expenseWht)
	byOthers := sumAmounts(incomeWht)
	return WithholdingSummary{
		WithheldFromOthers: fromOthers,
		WithheldByOthers:   byOthers,
		NetWithholding:     fromOthers.Sub(byOthers),
	}
}

func sumAmounts(amounts []*decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, a := range amounts {
		if a != nil {
			sum = sum.Add(*a)
		}
	}
	return sum
}
