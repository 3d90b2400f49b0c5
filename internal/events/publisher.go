// Package events carries booking domain events to the message bus and reads
// the identity events the service keeps a read-model of.
package events

import (
	"context"
)

// Publisher sends CloudEvents to a topic.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, ce CloudEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when EVENTS_DRIVER=none.
type NoopPublisher struct{}

// PublishEvent discards the event.
func (NoopPublisher) PublishEvent(context.Context, string, CloudEvent) error { return nil }

// Close does nothing.
func (NoopPublisher) Close() error { return nil }
