// Package workflow holds the two finite state machines governing every
// transaction: the document-collection workflow and the approval gate.
// Both are pure transition tables; the services layer owns persistence.
package workflow

import (
	"fmt"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
)

// DocumentFlags is the input tuple the document status derivation runs on.
type DocumentFlags struct {
	DocumentType          domain.DocumentType
	HasTaxDocument        bool
	WithholdingApplicable bool
}

// waiting / withholding-pending labels per transaction kind.
func waitingStatus(kind domain.TransactionKind) domain.DocumentStatus {
	if kind == domain.KindIncome {
		return domain.DocStatusWaitingInvoiceIssue
	}
	return domain.DocStatusWaitingTaxDocument
}

func withholdingPendingStatus(kind domain.TransactionKind) domain.DocumentStatus {
	if kind == domain.KindIncome {
		return domain.DocStatusWhtPendingCertificate
	}
	return domain.DocStatusWhtPendingIssue
}

// withholdingBranch is the set of statuses only reachable when withholding
// applies to the record.
var withholdingBranch = map[domain.DocumentStatus]struct{}{
	domain.DocStatusWhtPendingIssue:        {},
	domain.DocStatusWhtIssued:              {},
	domain.DocStatusWhtSentToVendor:        {},
	domain.DocStatusWhtPendingCertificate:  {},
	domain.DocStatusWhtCertificateReceived: {},
}

// DeriveDocumentStatus computes the document status a transaction should sit
// in given its flags. An explicit status wins verbatim (manual correction
// escape hatch); otherwise the rule ladder applies:
//
//	no tax document yet      -> waiting state for the kind
//	document + withholding   -> withholding-pending state for the kind
//	document, no withholding -> READY_FOR_ACCOUNTING
//
// Document types that never carry a tax invoice skip the waiting state.
func DeriveDocumentStatus(kind domain.TransactionKind, flags DocumentFlags, explicit *domain.DocumentStatus) (domain.DocumentStatus, error) {
	if explicit != nil {
		if !domain.ValidDocumentStatus(kind, *explicit) {
			return "", fmt.Errorf("%w: status %s is not valid for %s records", apperrors.ErrValidation, *explicit, kind)
		}
		return *explicit, nil
	}
	needsDocument := flags.DocumentType.RequiresTaxDocument()
	if needsDocument && !flags.HasTaxDocument {
		return waitingStatus(kind), nil
	}
	if flags.WithholdingApplicable {
		return withholdingPendingStatus(kind), nil
	}
	return domain.DocStatusReadyForAccounting, nil
}

// RepairDocumentStatus is the consistency self-heal: if the current status
// contradicts the flags (sitting in a withholding branch without withholding,
// or waiting for a document that exists or is not required), it returns the
// status the derivation ladder would produce. Statuses consistent with the
// flags, including manually advanced ones, pass through untouched. Running
// it twice yields the same result.
func RepairDocumentStatus(kind domain.TransactionKind, current domain.DocumentStatus, flags DocumentFlags) domain.DocumentStatus {
	if current == domain.DocStatusDraft || current == domain.DocStatusCompleted {
		return current
	}
	if _, inWhtBranch := withholdingBranch[current]; inWhtBranch && !flags.WithholdingApplicable {
		derived, _ := DeriveDocumentStatus(kind, flags, nil)
		return derived
	}
	if current == waitingStatus(kind) {
		if flags.HasTaxDocument || !flags.DocumentType.RequiresTaxDocument() {
			derived, _ := DeriveDocumentStatus(kind, flags, nil)
			return derived
		}
	}
	return current
}

// SubmitDocument validates that a transaction can enter the workflow: only
// DRAFT records may be submitted, and the resulting status comes from the
// derivation ladder.
func SubmitDocument(kind domain.TransactionKind, current domain.DocumentStatus, flags DocumentFlags) (domain.DocumentStatus, error) {
	if current != domain.DocStatusDraft {
		return "", fmt.Errorf("%w: only DRAFT records can be submitted, current status is %s", apperrors.ErrInvalidTransition, current)
	}
	return DeriveDocumentStatus(kind, flags, nil)
}
