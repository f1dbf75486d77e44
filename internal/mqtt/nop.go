package mqtt

import "github.com/sweeney/alarm-clock/internal/logic"

// NopPublisher discards everything. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(id string, event logic.Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(event SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }
