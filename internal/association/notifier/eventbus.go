package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/internal/pkg/mqtt/paths"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/mqtt/topic"
)

var _ observer.Handler = (*EventBusHandler)(nil)

// EventBusHandler publishes lifecycle messages to the MQTT event bus.
// Each message is independent; a failed one does not stop the others.
type EventBusHandler struct {
	publisher core.Publisher
	vins      core.VinLookup
	topics    *topic.Builder
	qos       int
	logger    log.Logger
}

func NewEventBusHandler(publisher core.Publisher, vins core.VinLookup, topics *topic.Builder, qos int) *EventBusHandler {
	return &EventBusHandler{
		publisher: publisher,
		vins:      vins,
		topics:    topics,
		qos:       qos,
		logger:    log.WithName("event-bus"),
	}
}

func (h *EventBusHandler) Name() string { return "event-bus" }

func (h *EventBusHandler) FailurePolicy() observer.FailurePolicy { return observer.PolicyAdvisory }

func (h *EventBusHandler) Applicable(ev *model.AssociationEvent) bool {
	return ev.NewState == model.StateAssociated || ev.NewState == model.StateDisassociated
}

type busMessage struct {
	segment string
	env     *model.Envelope
}

// Handle publishes one association message on disassociation, and on
// association also the software version, the VIN and the asset activation
// when the data for them is known. The returned error joins every failed message.
func (h *EventBusHandler) Handle(ctx context.Context, ev *model.AssociationEvent) error {
	var errs []error
	for _, msg := range h.messages(ctx, ev) {
		if err := h.publish(ctx, ev, msg); err != nil {
			h.logger.Warn("Event bus message dropped",
				"eventID", msg.env.EventID,
				"associationID", ev.AssociationID,
				"error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *EventBusHandler) messages(ctx context.Context, ev *model.AssociationEvent) []busMessage {
	key := ev.HarmanID
	msgs := []busMessage{{
		segment: paths.Association,
		env:     newEnvelope(ev, associationEventID(ev), key, associationPayload(ev)),
	}}

	if ev.NewState != model.StateAssociated {
		return msgs
	}

	if ev.SoftwareVersion != "" {
		msgs = append(msgs, busMessage{
			segment: paths.SoftwareVersion,
			env:     newEnvelope(ev, model.EventIDSoftwareVersion, key, &model.SoftwareVersionPayload{Value: ev.SoftwareVersion}),
		})
	}

	if vin := h.lookupVin(ctx, ev); vin != nil {
		msgs = append(msgs, busMessage{
			segment: paths.VIN,
			env: newEnvelope(ev, model.EventIDVin, key, &model.VinPayload{
				Dummy:      vin.Dummy,
				Value:      vin.Value,
				Type:       model.VinTypeCode,
				UserID:     ev.UserID,
				DeviceType: ev.DeviceType,
				ModelName:  vin.ModelName,
			}),
		})
	}

	msgs = append(msgs, busMessage{
		segment: paths.AssetActivation,
		env: newEnvelope(ev, model.EventIDAssetActivation, key, &model.AssetActivationPayload{
			HarmanID:     ev.HarmanID,
			SerialNumber: ev.SerialNumber,
			UserID:       ev.UserID,
			Country:      ev.Country,
			DeviceType:   ev.DeviceType,
		}),
	})

	return msgs
}

// lookupVin returns nil when no usable VIN is known. Lookup errors only skip the VIN message.
func (h *EventBusHandler) lookupVin(ctx context.Context, ev *model.AssociationEvent) *model.Vin {
	if h.vins == nil || ev.SerialNumber == "" {
		return nil
	}
	vin, err := h.vins.FindAssociatedVin(ctx, ev.SerialNumber)
	if err != nil {
		h.logger.Warn("VIN lookup failed, skipping VIN message", "serialNumber", ev.SerialNumber, "error", err)
		return nil
	}
	if vin == nil || vin.Value == "" {
		return nil
	}
	return vin
}

func (h *EventBusHandler) publish(ctx context.Context, ev *model.AssociationEvent, msg busMessage) error {
	payload, err := json.Marshal(msg.env)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", msg.env.EventID, err)
	}

	t := h.topics.Build(msg.segment, ev.HarmanID)
	if err := h.publisher.Publish(ctx, t, h.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", msg.env.EventID, t, err)
	}

	h.logger.Debug("Published event bus message", "topic", t, "eventID", msg.env.EventID, "messageID", msg.env.MessageID)
	return nil
}
