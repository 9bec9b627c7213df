package notifier

import (
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/autopeer-io/association/internal/association/core/model"
)

var json = jsoniter.ConfigFastest

// newEnvelope wraps payload for the event that was committed at ev.CommittedAt.
func newEnvelope(ev *model.AssociationEvent, eventID, correlationKey string, payload any) *model.Envelope {
	return &model.Envelope{
		MessageID:       uuid.NewString(),
		EventID:         eventID,
		Version:         model.EnvelopeVersion,
		TimestampMillis: ev.CommittedAt.UnixMilli(),
		CorrelationKey:  correlationKey,
		Payload:         payload,
	}
}

func associationEventID(ev *model.AssociationEvent) string {
	if ev.NewState == model.StateDisassociated {
		return model.EventIDDisassociation
	}
	return model.EventIDAssociation
}

func associationPayload(ev *model.AssociationEvent) *model.AssociationPayload {
	return &model.AssociationPayload{UserID: ev.UserID, DeviceID: ev.HarmanID}
}
