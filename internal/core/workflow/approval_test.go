package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NattKh/findoc_app/internal/apperrors"
	"github.com/NattKh/findoc_app/internal/core/domain"
	"github.com/NattKh/findoc_app/internal/core/workflow"
)

func TestSubmitApproval(t *testing.T) {
	got, err := workflow.SubmitApproval(domain.ApprovalPending, false)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, got)

	got, err = workflow.SubmitApproval(domain.ApprovalPending, true)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalNotRequired, got)

	// A rejected record can be reworked and resubmitted.
	got, err = workflow.SubmitApproval(domain.ApprovalRejected, false)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalPending, got)

	for _, current := range []domain.ApprovalStatus{domain.ApprovalApproved, domain.ApprovalNotRequired} {
		_, err = workflow.SubmitApproval(current, false)
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "current=%s", current)
	}
}

func TestDecideApproval(t *testing.T) {
	got, err := workflow.DecideApproval(domain.ApprovalPending, domain.DecisionApprove, "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, got)

	got, err = workflow.DecideApproval(domain.ApprovalPending, domain.DecisionReject, "user-a", "user-b")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalRejected, got)
}

func TestDecideApproval_SelfApproval(t *testing.T) {
	_, err := workflow.DecideApproval(domain.ApprovalPending, domain.DecisionApprove, "user-a", "user-a")
	assert.ErrorIs(t, err, apperrors.ErrSelfApproval)

	// Records with no recorded submitter cannot trip the self-approval guard.
	got, err := workflow.DecideApproval(domain.ApprovalPending, domain.DecisionApprove, "", "user-a")
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalApproved, got)
}

func TestDecideApproval_InvalidStates(t *testing.T) {
	for _, current := range []domain.ApprovalStatus{
		domain.ApprovalApproved, domain.ApprovalRejected, domain.ApprovalNotRequired,
	} {
		_, err := workflow.DecideApproval(current, domain.DecisionApprove, "user-a", "user-b")
		assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "current=%s", current)
	}

	_, err := workflow.DecideApproval(domain.ApprovalPending, domain.ApprovalDecision("MAYBE"), "user-a", "user-b")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
