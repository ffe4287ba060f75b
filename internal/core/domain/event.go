package domain

// EventKind distinguishes side effects the caller must dispatch after a
// state transition commits. The engine never calls notification or audit
// services itself; it hands back a list of these.
type EventKind string

const (
	EventNotify EventKind = "NOTIFY"
	EventAudit  EventKind = "AUDIT"
)

// Workflow event actions.
const (
	ActionCreated         = "TRANSACTION_CREATED"
	ActionSubmitted       = "TRANSACTION_SUBMITTED"
	ActionApproved        = "TRANSACTION_APPROVED"
	ActionRejected        = "TRANSACTION_REJECTED"
	ActionFlagsUpdated    = "DOCUMENT_FLAGS_UPDATED"
	ActionStatusCorrected = "DOCUMENT_STATUS_CORRECTED"
	ActionDeleted         = "TRANSACTION_DELETED"
	ActionPaymentSettled  = "PAYMENT_SETTLED"
	ActionPaymentReversed = "PAYMENT_REVERSED"
)

// WorkflowEvent is an ephemeral side-effect intent produced by a workflow
// mutation. It is returned to the caller, not persisted by the engine.
type WorkflowEvent struct {
	Kind          EventKind      `json:"kind"`
	Action        string         `json:"action"`
	TransactionID string         `json:"transactionID"`
	TargetUserIDs []string       `json:"targetUserIDs,omitempty"`
	Payload       map[string]any `json:"payload,omitempty"`
}
