package notifier

import (
	"context"
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/pkg/log"
)

var _ observer.Handler = (*StreamHandler)(nil)

// StreamHandler appends one message per association change to the secondary stream.
type StreamHandler struct {
	sink   core.StreamSink
	logger log.Logger
}

func NewStreamHandler(sink core.StreamSink) *StreamHandler {
	return &StreamHandler{sink: sink, logger: log.WithName("stream")}
}

func (h *StreamHandler) Name() string { return "stream" }

func (h *StreamHandler) FailurePolicy() observer.FailurePolicy { return observer.PolicyAdvisory }

func (h *StreamHandler) Applicable(ev *model.AssociationEvent) bool {
	return ev.NewState == model.StateAssociated || ev.NewState == model.StateDisassociated
}

// Handle keys associate messages by harman id and disassociate messages by user id.
func (h *StreamHandler) Handle(ctx context.Context, ev *model.AssociationEvent) error {
	key := ev.HarmanID
	if ev.NewState == model.StateDisassociated {
		key = ev.UserID
	}

	env := newEnvelope(ev, associationEventID(ev), key, associationPayload(ev))
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", env.EventID, err)
	}

	if err := h.sink.Append(ctx, key, payload); err != nil {
		return fmt.Errorf("failed to append %s for key %s: %w", env.EventID, key, err)
	}

	h.logger.Debug("Appended stream message", "key", key, "eventID", env.EventID, "messageID", env.MessageID)
	return nil
}
