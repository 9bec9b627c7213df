package notifier

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/association/internal/association/core/model"
)

type memorySink struct {
	keys     []string
	payloads [][]byte
}

func (s *memorySink) Append(_ context.Context, key string, payload []byte) error {
	s.keys = append(s.keys, key)
	s.payloads = append(s.payloads, payload)
	return nil
}

func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestStreamHandlerKeys(t *testing.T) {
	_, client := setupMiniRedis(t)
	sink := NewRedisStreamWithClient(client, "association-events", 1000)
	h := NewStreamHandler(sink)

	require.NoError(t, h.Handle(t.Context(), associatedEvent()))
	require.NoError(t, h.Handle(t.Context(), disassociatedEvent()))

	entries, err := client.XRange(t.Context(), "association-events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "HARMAN-11", entries[0].Values[StreamFieldKey])
	assert.Equal(t, "user-11", entries[1].Values[StreamFieldKey])

	var env model.Envelope
	require.NoError(t, json.Unmarshal([]byte(entries[1].Values[StreamFieldData].(string)), &env))
	assert.Equal(t, model.EventIDDisassociation, env.EventID)
	assert.Equal(t, "user-11", env.CorrelationKey)
}

func TestStreamHandlerSinkFailure(t *testing.T) {
	mr, client := setupMiniRedis(t)
	h := NewStreamHandler(NewRedisStreamWithClient(client, "association-events", 0))

	mr.Close()
	assert.Error(t, h.Handle(t.Context(), associatedEvent()))
}

func TestStreamHandlerApplicable(t *testing.T) {
	h := NewStreamHandler(&memorySink{})

	assert.True(t, h.Applicable(associatedEvent()))
	assert.True(t, h.Applicable(disassociatedEvent()))

	ev := associatedEvent()
	ev.NewState = model.StateFailed
	assert.False(t, h.Applicable(ev))
}
