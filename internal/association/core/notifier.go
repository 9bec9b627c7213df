package core

import (
	"context"

	"github.com/autopeer-io/association/internal/association/core/model"
)

// Dispatcher fans a committed transition out to the notification handlers.
// In this service it is implemented by the observer registry.
type Dispatcher interface {
	Dispatch(ctx context.Context, event *model.AssociationEvent) error
}

// Publisher sends a payload to an event-bus topic.
// In this service it is implemented by the MQTT client.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error
}

// StreamSink appends a keyed message to the secondary stream.
// In this service it is implemented by the Redis stream adapter.
type StreamSink interface {
	Append(ctx context.Context, key string, payload []byte) error
}
