package infrastructure

import (
	"fmt"

	"fittrack/drawing-engine/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its corresponding NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypeBalanceChanged:
		return "accounts.balance_changed"
	case events.EventTypeDrawingStateChanged:
		return "drawings.state_changed"
	case events.EventTypeWinnerSelected:
		return "drawings.winner_selected"
	case events.EventTypeDrawingCompleted:
		return "drawings.completed"
	case events.EventTypeDrawingCancelled:
		return "drawings.cancelled"
	case events.EventTypeFulfillmentForfeited:
		return "fulfillments.forfeited"
	default:
		return fmt.Sprintf("unknown.%s", event.Type())
	}
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	switch subject {
	case "accounts.balance_changed":
		return events.EventTypeBalanceChanged
	case "drawings.state_changed":
		return events.EventTypeDrawingStateChanged
	case "drawings.winner_selected":
		return events.EventTypeWinnerSelected
	case "drawings.completed":
		return events.EventTypeDrawingCompleted
	case "drawings.cancelled":
		return events.EventTypeDrawingCancelled
	case "fulfillments.forfeited":
		return events.EventTypeFulfillmentForfeited
	default:
		return events.EventType(subject)
	}
}

// GetAllSubjects returns every subject the engine publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"accounts.balance_changed",
		"drawings.state_changed",
		"drawings.winner_selected",
		"drawings.completed",
		"drawings.cancelled",
		"fulfillments.forfeited",
	}
}
