package events

import "context"

// NoopPublisher drops every event. Used when SBC_NATS_URL is unset so the
// server runs without a broker; events still land in the events table
// through the store.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(_ context.Context, _ string, _ any) error { return nil }

func (*NoopPublisher) Close() error { return nil }
