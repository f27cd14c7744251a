package events

import "context"

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, TransitionEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }
