package notifier

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/association/internal/association/core/model"
)

func TestConfigPushApplicable(t *testing.T) {
	enabled := NewConfigPushHandler(nil, true)
	disabled := NewConfigPushHandler(nil, false)

	assert.True(t, enabled.Applicable(disassociatedEvent()))
	assert.False(t, enabled.Applicable(associatedEvent()))
	assert.False(t, disabled.Applicable(disassociatedEvent()))
}

func TestConfigPushEventID(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"", model.EventIDConfigPushDisassociated},
		{"USER_REQUEST", model.EventIDConfigPushDisassociated},
		{model.WipeDataReason, model.EventIDConfigPushWipeData},
	}

	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.reason, func(t *testing.T) {
			p, srv := newPeer(t, http.StatusAccepted)
			h := NewConfigPushHandler(NewRESTClient(srv.URL, time.Second), true)

			ev := disassociatedEvent()
			ev.TerminateReason = tt.reason
			require.NoError(t, h.Handle(t.Context(), ev))

			calls := p.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, "/v1/devices/HARMAN-11/messages", calls[0].Path)
			assert.Equal(t, "user-11", calls[0].Header.Get("user-id"))

			var env model.Envelope
			require.NoError(t, json.Unmarshal(calls[0].Body, &env))
			assert.Equal(t, tt.want, env.EventID)
			assert.Equal(t, "HARMAN-11", env.CorrelationKey)
			assert.Equal(t, committedAt.UnixMilli(), env.TimestampMillis)
			assert.NotEmpty(t, env.MessageID)
		})
	}
}

func TestConfigPushFailureIsReturned(t *testing.T) {
	_, srv := newPeer(t, http.StatusServiceUnavailable)
	h := NewConfigPushHandler(NewRESTClient(srv.URL, time.Second), true)

	assert.Error(t, h.Handle(t.Context(), disassociatedEvent()))
}
