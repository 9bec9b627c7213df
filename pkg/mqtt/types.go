package mqtt

import (
	"context"
)

// Publisher is the write side of the connection. The event-bus handler
// depends on this method only.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// Client is a managed MQTT v5 connection used to publish association events.
// Reconnects are handled internally; publishes fail while the link is down.
type Client interface {
	Publisher

	// Start dials the broker in the background and returns immediately.
	Start(ctx context.Context) error

	// AwaitConnection blocks until the first CONNACK or ctx is done.
	AwaitConnection(ctx context.Context) error

	// IsConnected reports the last known link state. Used by /readyz.
	IsConnected() bool

	// Disconnect sends DISCONNECT and stops reconnecting.
	Disconnect(ctx context.Context)
}
