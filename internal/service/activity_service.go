package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

// ActivityRecorder turns ticket lifecycle events into structured log lines and
// event counters.
type ActivityRecorder struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewActivityRecorder creates the recorder. metrics may be nil.
func NewActivityRecorder(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *ActivityRecorder {
	return &ActivityRecorder{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityRecorder) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventTicketStatusChanged, a.handleTicketStatusChanged)
	a.dispatcher.Subscribe(events.EventTicketAssigned, a.handleTicketAssigned)
	a.dispatcher.Subscribe(events.EventTicketCommented, a.handleTicketCommented)
}

func (a *ActivityRecorder) handleTicketCreated(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TicketCreatedPayload); ok {
		fields = append(fields,
			zap.String("priority", string(p.Priority)),
			zap.String("category", string(p.Category)),
			zap.String("title", p.Title))
	}
	a.record(event, "ticket created", fields)
	return nil
}

func (a *ActivityRecorder) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
		fields = append(fields,
			zap.String("old_status", string(p.OldStatus)),
			zap.String("new_status", string(p.NewStatus)))
	}
	a.record(event, "ticket status changed", fields)
	return nil
}

func (a *ActivityRecorder) handleTicketAssigned(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TicketAssignedPayload); ok {
		if p.OldAssignee != nil {
			fields = append(fields, zap.String("old_assignee", *p.OldAssignee))
		}
		fields = append(fields, zap.String("new_assignee", p.NewAssignee))
	}
	a.record(event, "ticket assigned", fields)
	return nil
}

func (a *ActivityRecorder) handleTicketCommented(_ context.Context, event events.Event) error {
	fields := a.baseFields(event)
	if p, ok := event.Payload.(events.TicketCommentedPayload); ok {
		fields = append(fields,
			zap.String("comment_id", p.CommentID),
			zap.String("preview", p.BodyPreview))
	}
	a.record(event, "ticket commented", fields)
	return nil
}

func (a *ActivityRecorder) baseFields(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_role", string(event.Actor.Role)),
		zap.Time("at", event.Timestamp),
	}
}

func (a *ActivityRecorder) record(event events.Event, msg string, fields []zap.Field) {
	a.metrics.RecordEvent(string(event.Type))
	a.logger.Info(msg, fields...)
}
