package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventAppointmentCreated       EventType = "appointment.created"
	EventAppointmentStatusChanged EventType = "appointment.status_changed"
	EventAppointmentReminder      EventType = "appointment.reminder"
	EventMessageAppended          EventType = "chat.message_appended"
)

type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       EventType   `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Recipients []uuid.UUID `json:"recipients"`
	Payload    any         `json:"payload"`
}

func NewEvent(eventType EventType, at time.Time, payload any, recipients ...uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: at,
		Recipients: recipients,
		Payload:    payload,
	}
}
