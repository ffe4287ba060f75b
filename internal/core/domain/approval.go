package domain

// ApprovalStatus is the sign-off gate state of a transaction.
type ApprovalStatus string

const (
	// ApprovalNotRequired is assigned when the submitter holds a
	// create-direct capability; the document workflow advances immediately.
	ApprovalNotRequired ApprovalStatus = "NOT_REQUIRED"
	ApprovalPending     ApprovalStatus = "PENDING"
	ApprovalApproved    ApprovalStatus = "APPROVED"
	ApprovalRejected    ApprovalStatus = "REJECTED"
)

// ApprovalDecision is the verdict an approver hands down on a pending record.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "APPROVE"
	DecisionReject  ApprovalDecision = "REJECT"
)
