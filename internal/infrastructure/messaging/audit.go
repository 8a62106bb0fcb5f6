package messaging

import (
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
)

// AuditLogger is a catch-all subscriber that writes every domain event to the
// structured log. It is the audit trail of the reconciliation pipeline:
// enrollments, commits, reversals and configuration changes all pass here.
type AuditLogger struct {
	log *logger.Logger
}

// NewAuditLogger creates an audit subscriber.
func NewAuditLogger(log *logger.Logger) *AuditLogger {
	if log == nil {
		log = logger.Default()
	}
	return &AuditLogger{log: log.With(logger.Component("audit"))}
}

// Handle implements shared.EventHandler.
func (a *AuditLogger) Handle(event shared.Event) error {
	fields := []logger.Field{
		logger.F("event_type", string(event.EventType())),
		logger.F("aggregate_id", event.AggregateID()),
		logger.Time("occurred_at", event.OccurredAt()),
	}
	for key, value := range event.Payload() {
		fields = append(fields, logger.Any(key, value))
	}
	a.log.Info("domain event", fields...)
	return nil
}
