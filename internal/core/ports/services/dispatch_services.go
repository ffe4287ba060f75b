package services

import (
	"context"

	"github.com/NattKh/findoc_app/internal/core/domain"
)

// Notifier delivers NOTIFY events to their target users. Implementations
// live outside the engine (LINE, e-mail, in-app).
type Notifier interface {
	Notify(ctx context.Context, event domain.WorkflowEvent) error
}

// AuditRecorder persists AUDIT events. Implementations live outside the engine.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.WorkflowEvent) error
}

// EventDispatcher fans the events returned by a workflow mutation out to the
// external collaborators after the mutation has committed. Dispatch failures
// never roll back the underlying business transition.
type EventDispatcher interface {
	Dispatch(ctx context.Context, events []domain.WorkflowEvent)
}
