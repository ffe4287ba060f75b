package workflow

import (
	"fmt"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
)

// SubmitApproval returns the approval status a record enters on submission.
// Actors holding the create-direct capability skip the gate entirely.
// Resubmission after a rejection is allowed; any other source state is an
// invalid transition.
func SubmitApproval(current domain.ApprovalStatus, direct bool) (domain.ApprovalStatus, error) {
	switch current {
	case domain.ApprovalPending, domain.ApprovalRejected:
		// Undecided records and rejected records are submittable.
	default:
		return "", fmt.Errorf("%w: cannot submit a record whose approval status is %s", apperrors.ErrInvalidTransition, current)
	}
	if direct {
		return domain.ApprovalNotRequired, nil
	}
	return domain.ApprovalPending, nil
}

// DecideApproval applies an approve/reject verdict to a pending record.
// Only PENDING records can be decided, and the approver must not be the
// submitter.
func DecideApproval(current domain.ApprovalStatus, decision domain.ApprovalDecision, submitterID, actorID string) (domain.ApprovalStatus, error) {
	if current != domain.ApprovalPending {
		return "", fmt.Errorf("%w: cannot decide a record whose approval status is %s", apperrors.ErrInvalidTransition, current)
	}
	if submitterID != "" && submitterID == actorID {
		return "", fmt.Errorf("%w: user %s submitted this record", apperrors.ErrSelfApproval, actorID)
	}
	switch decision {
	case domain.DecisionApprove:
		return domain.ApprovalApproved, nil
	case domain.DecisionReject:
		return domain.ApprovalRejected, nil
	default:
		return "", fmt.Errorf("%w: unknown decision %q", apperrors.ErrValidation, decision)
	}
}
