package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/NattKh/findoc_app/internal/core/domain"
	portsrepo "github.com/NattKh/findoc_app/internal/core/ports/repositories"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/dto"
	"github.com/NattKh/findoc_app/internal/utils/tax"
)

// reportingService exposes the tax computation surface and period summaries.
type reportingService struct {
	txnRepo    portsrepo.TransactionRepositoryWithTx
	companySvc portssvc.CompanySvcFacade
}

// NewReportingService creates a new reporting service.
func NewReportingService(txnRepo portsrepo.TransactionRepositoryWithTx, companySvc portssvc.CompanySvcFacade) portssvc.ReportingSvc {
	return &reportingService{
		txnRepo:    txnRepo,
		companySvc: companySvc,
	}
}

var _ portssvc.ReportingSvc = (*reportingService)(nil)

// ComputeTotals derives the full amount breakdown for one transaction. Pure
// arithmetic, no persistence.
func (s *reportingService) ComputeTotals(base, vatRatePercent, withholdingRatePercent decimal.Decimal) (tax.TransactionTotals, error) {
	return tax.ComputeTransactionTotals(base, vatRatePercent, withholdingRatePercent)
}

// SummarizeTaxes aggregates VAT and withholding over a company's non-deleted
// transactions within [from, to].
func (s *reportingService) SummarizeTaxes(ctx context.Context, companyID, requestingUserID string, from, to time.Time) (*dto.TaxSummaryResponse, error) {
	if err := s.companySvc.RequireMember(ctx, requestingUserID, companyID); err != nil {
		return nil, err
	}

	txns, err := s.txnRepo.ListTransactionsByCompany(ctx, companyID, portsrepo.TransactionListFilter{
		From: &from,
		To:   &to,
	})
	if err != nil {
		return nil, err
	}

	var expenseVats, incomeVats []*decimal.Decimal
	var expenseWht, incomeWht []*decimal.Decimal
	for i := range txns {
		switch txns[i].Kind {
		case domain.KindExpense:
			expenseVats = append(expenseVats, txns[i].VatAmount)
			expenseWht = append(expenseWht, txns[i].WithholdingAmount)
		case domain.KindIncome:
			incomeVats = append(incomeVats, txns[i].VatAmount)
			incomeWht = append(incomeWht, txns[i].WithholdingAmount)
		}
	}

	return &dto.TaxSummaryResponse{
		Vat:         tax.SummarizeVat(expenseVats, incomeVats),
		Withholding: tax.SummarizeWithholding(expenseWht, incomeWht),
	}, nil
}
