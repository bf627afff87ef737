package services

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	EventFormSaved         = "form.saved"
	EventFormDeleted       = "form.deleted"
	EventSubmissionCreated = "submission.created"
)

// Event is the message published after a state change.
type Event struct {
	Type         string    `json:"type"`
	FormID       string    `json:"formId"`
	SubmissionID string    `json:"submissionId,omitempty"`
	At           time.Time `json:"at"`
}

// EventPublisher delivers events to a broker.
type EventPublisher interface {
	PublishEvent(eventType string, payload any) error
}

// publishEvent sends ev when a publisher is configured. Failures are
// logged; they never fail the caller.
func publishEvent(pub EventPublisher, log *logrus.Logger, ev Event) {
	if pub == nil {
		return
	}
	if err := pub.PublishEvent(ev.Type, ev); err != nil {
		log.WithError(err).WithField("event", ev.Type).WithField("form_id", ev.FormID).
			Warn("failed to publish event")
	}
}
