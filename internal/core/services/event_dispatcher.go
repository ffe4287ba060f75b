package services

import (
	"context"
	"log/slog"

	"github.com/NattKh/findoc_app/internal/core/domain"
	portssvc "github.com/NattKh/findoc_app/internal/core/ports/services"
	"github.com/NattKh/findoc_app/internal/middleware"
)

// eventDispatcher fans workflow events out to the notifier and the audit
// recorder. A failing sink is logged and skipped; the business mutation that
// produced the events has already committed.
type eventDispatcher struct {
	notifier portssvc.Notifier
	auditor  portssvc.AuditRecorder
}

// NewEventDispatcher creates a new event dispatcher.
func NewEventDispatcher(notifier portssvc.Notifier, auditor portssvc.AuditRecorder) portssvc.EventDispatcher {
	return &eventDispatcher{
		notifier: notifier,
		auditor:  auditor,
	}
}

var _ portssvc.EventDispatcher = (*eventDispatcher)(nil)

func (d *eventDispatcher) Dispatch(ctx context.Context, events []domain.WorkflowEvent) {
	logger := middleware.GetLoggerFromCtx(ctx)
	for _, event := range events {
		switch event.Kind {
		case domain.EventNotify:
			if d.notifier == nil {
				continue
			}
			if err := d.notifier.Notify(ctx, event); err != nil {
				logger.Error("Notification delivery failed",
					slog.String("action", event.Action),
					slog.String("transaction_id", event.TransactionID),
					slog.String("error", err.Error()))
			}
		case domain.EventAudit:
			if d.auditor == nil {
				continue
			}
			if err := d.auditor.Record(ctx, event); err != nil {
				logger.Error("Audit record failed",
					slog.String("action", event.Action),
					slog.String("transaction_id", event.TransactionID),
					slog.String("error", err.Error()))
			}
		default:
			logger.Warn("Dropping event of unknown kind", slog.String("kind", string(event.Kind)))
		}
	}
}

// logNotifier is the default Notifier: it writes the notification to the
// structured log. Real channels plug in through the EventDispatcher port.
type logNotifier struct{}

// NewLogNotifier creates a Notifier that only logs.
func NewLogNotifier() portssvc.Notifier {
	return &logNotifier{}
}

func (n *logNotifier) Notify(ctx context.Context, event domain.WorkflowEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Workflow notification",
		slog.String("action", event.Action),
		slog.String("transaction_id", event.TransactionID),
		slog.Any("targets", event.TargetUserIDs))
	return nil
}

// logAuditRecorder is the default AuditRecorder: it writes audit entries to
// the structured log stream, which ships them with the rest of the JSON logs.
type logAuditRecorder struct{}

// NewLogAuditRecorder creates an AuditRecorder that only logs.
func NewLogAuditRecorder() portssvc.AuditRecorder {
	return &logAuditRecorder{}
}

func (a *logAuditRecorder) Record(ctx context.Context, event domain.WorkflowEvent) error {
	middleware.GetLoggerFromCtx(ctx).Info("Workflow audit entry",
		slog.String("action", event.Action),
		slog.String("transaction_id", event.TransactionID),
		slog.Any("payload", event.Payload))
	return nil
}
