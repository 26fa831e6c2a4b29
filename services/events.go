package services

import "github.com/Dosada05/swiss-tournaments/models"

// EventPublisher delivers domain events to interested consumers, typically
// the websocket hub. Publish must not block service operations; slow or
// absent consumers are the publisher's problem.
type EventPublisher interface {
	Publish(event models.Event)
}

// NopPublisher discards every event. Used in tests and when no realtime
// transport is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(models.Event) {}
