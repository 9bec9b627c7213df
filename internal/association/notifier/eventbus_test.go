package notifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/observer"
	"github.com/autopeer-io/association/pkg/mqtt/topic"
)

var testTopics = topic.NewBuilder("association/v1")

func eventIDs(t *testing.T, msgs []published) []string {
	t.Helper()
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		var env model.Envelope
		require.NoError(t, json.Unmarshal(m.Payload, &env))
		ids = append(ids, env.EventID)
	}
	return ids
}

func TestEventBusAssociatedWithVin(t *testing.T) {
	pub := &fakePublisher{}
	vins := &fakeVins{vin: &model.Vin{Value: "WVWZZZ1JZXW000001", ModelName: "Golf"}}
	h := NewEventBusHandler(pub, vins, testTopics, 1)

	require.NoError(t, h.Handle(t.Context(), associatedEvent()))

	require.Len(t, pub.msgs, 4)
	assert.Equal(t, []string{
		model.EventIDAssociation,
		model.EventIDSoftwareVersion,
		model.EventIDVin,
		model.EventIDAssetActivation,
	}, eventIDs(t, pub.msgs))
	assert.Equal(t, "association/v1/association/HARMAN-11", pub.msgs[0].Topic)
	assert.Equal(t, "association/v1/vin/HARMAN-11", pub.msgs[2].Topic)
	assert.Equal(t, 1, pub.msgs[0].QoS)

	var env struct {
		Payload model.VinPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(pub.msgs[2].Payload, &env))
	assert.Equal(t, "WVWZZZ1JZXW000001", env.Payload.Value)
	assert.Equal(t, model.VinTypeCode, env.Payload.Type)
	assert.Equal(t, "Golf", env.Payload.ModelName)
}

func TestEventBusAssociatedWithoutVin(t *testing.T) {
	tests := []struct {
		name string
		vins *fakeVins
	}{
		{"no vin", &fakeVins{}},
		{"empty vin", &fakeVins{vin: &model.Vin{}}},
		{"lookup error", &fakeVins{err: errors.New("database is closed")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			h := NewEventBusHandler(pub, tt.vins, testTopics, 1)

			require.NoError(t, h.Handle(t.Context(), associatedEvent()))
			assert.Equal(t, []string{
				model.EventIDAssociation,
				model.EventIDSoftwareVersion,
				model.EventIDAssetActivation,
			}, eventIDs(t, pub.msgs))
		})
	}
}

func TestEventBusDisassociated(t *testing.T) {
	pub := &fakePublisher{}
	h := NewEventBusHandler(pub, &fakeVins{vin: &model.Vin{Value: "VIN"}}, testTopics, 0)

	require.NoError(t, h.Handle(t.Context(), disassociatedEvent()))
	assert.Equal(t, []string{model.EventIDDisassociation}, eventIDs(t, pub.msgs))
}

func TestEventBusPublishFailureContinues(t *testing.T) {
	pub := &fakePublisher{failFor: map[string]bool{"association/v1/software-version/HARMAN-11": true}}
	h := NewEventBusHandler(pub, &fakeVins{}, testTopics, 1)

	err := h.Handle(t.Context(), associatedEvent())
	require.Error(t, err)
	assert.Equal(t, []string{model.EventIDAssociation, model.EventIDAssetActivation}, eventIDs(t, pub.msgs))
	assert.Equal(t, observer.PolicyAdvisory, h.FailurePolicy())
}

func TestEventBusFailureDoesNotStopDispatch(t *testing.T) {
	pub := &fakePublisher{failFor: map[string]bool{"association/v1/association/HARMAN-11": true}}
	sink := &memorySink{}

	reg := observer.NewRegistry()
	reg.Register(NewEventBusHandler(pub, nil, testTopics, 1), observer.PriorityEventBus)
	reg.Register(NewStreamHandler(sink), observer.PriorityStream)

	require.NoError(t, reg.Dispatch(t.Context(), disassociatedEvent()))
	assert.Len(t, sink.keys, 1)
}

func TestEventBusNotApplicable(t *testing.T) {
	h := NewEventBusHandler(&fakePublisher{}, nil, testTopics, 1)
	ev := associatedEvent()
	ev.NewState = model.StateSuspended
	assert.False(t, h.Applicable(ev))
}
