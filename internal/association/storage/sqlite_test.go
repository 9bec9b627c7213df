package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/pkg/options"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	opts := options.NewSqliteOptions()
	opts.Path = filepath.Join(t.TempDir(), "association.db")

	s, err := NewSQLite(t.Context(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seed(t *testing.T, s *SQLite, serial, user string, state model.State) *model.Association {
	t.Helper()

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &model.Association{
		Device: model.Device{
			SerialNumber:    serial,
			HarmanID:        "H-" + serial,
			FactoryID:       9,
			SoftwareVersion: "1.0.0",
			DeviceType:      "dongle",
		},
		UserID:    user,
		VehicleID: "vehicle-" + serial,
		Country:   "DE",
		State:     state,
		CreatedAt: at,
		UpdatedAt: at,
		UpdatedBy: "seed",
	}
	require.NoError(t, s.Create(t.Context(), a))
	require.NotZero(t, a.ID)
	return a
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	want := seed(t, s, "SN-1", "user-1", model.StateInitiated)

	got, err := s.Get(t.Context(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(t.Context(), 404)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = s.FindByDevice(t.Context(), "SN-X", "user-X")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestUpdateStateRecordsHistory(t *testing.T) {
	s := newTestStore(t)
	a := seed(t, s, "SN-1", "user-1", model.StateAssociated)

	at := time.Date(2025, 2, 1, 12, 0, 0, 123, time.UTC)
	require.NoError(t, s.UpdateState(t.Context(), a.ID, model.StateAssociated, model.StateSuspended, "operator", at))

	got, err := s.Get(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateSuspended, got.State)
	assert.Equal(t, at, got.UpdatedAt)
	assert.Equal(t, "operator", got.UpdatedBy)

	history, err := s.History(t.Context(), a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StateAssociated, history[0].PriorState)
	assert.Equal(t, model.StateSuspended, history[0].NewState)
	assert.Equal(t, at, history[0].ChangedAt)

	assert.ErrorIs(t, s.UpdateState(t.Context(), 999, model.StateAssociated, model.StateSuspended, "operator", at), core.ErrNotFound)
}

func TestUpdateStateRejectsStalePriorState(t *testing.T) {
	s := newTestStore(t)
	a := seed(t, s, "SN-1", "user-1", model.StateAssociated)
	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpdateState(t.Context(), a.ID, model.StateAssociated, model.StateDisassociated, "user", at))

	err := s.UpdateState(t.Context(), a.ID, model.StateAssociated, model.StateSuspended, "operator", at)
	require.ErrorIs(t, err, core.ErrInvalidTransition)

	got, err := s.Get(t.Context(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StateDisassociated, got.State)

	history, err := s.History(t.Context(), a.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.StateDisassociated, history[0].NewState)
}

func TestUpdateStateKeepsOneOpenAssociationPerDevice(t *testing.T) {
	s := newTestStore(t)
	first := seed(t, s, "SN-1", "user-1", model.StateInitiated)
	second := seed(t, s, "SN-1", "user-2", model.StateDisassociated)
	at := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.UpdateState(t.Context(), first.ID, model.StateInitiated, model.StateAssociated, "user-1", at))

	err := s.UpdateState(t.Context(), second.ID, model.StateDisassociated, model.StateAssociated, "user-2", at)
	require.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.ErrorContains(t, err, "open association")

	// Moves between open states are not blocked by the association itself.
	require.NoError(t, s.UpdateState(t.Context(), first.ID, model.StateAssociated, model.StateSuspended, "user-1", at))
	require.NoError(t, s.UpdateState(t.Context(), first.ID, model.StateSuspended, model.StateAssociated, "user-1", at))

	n, err := s.CountOpenAssociations(t.Context(), "SN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFindByDeviceReturnsLatest(t *testing.T) {
	s := newTestStore(t)
	first := seed(t, s, "SN-1", "user-1", model.StateDisassociated)
	second := seed(t, s, "SN-1", "user-1", model.StateInitiated)

	got, err := s.FindByDevice(t.Context(), "SN-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	require.NoError(t, s.UpdateState(t.Context(), first.ID, model.StateDisassociated, model.StateAssociated, "operator", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	got, err = s.FindByDevice(t.Context(), "SN-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestCountOpenAssociations(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "SN-1", "user-1", model.StateAssociated)
	seed(t, s, "SN-1", "user-2", model.StateSuspended)
	seed(t, s, "SN-1", "user-3", model.StateDisassociated)
	seed(t, s, "SN-2", "user-1", model.StateInitiated)

	n, err := s.CountOpenAssociations(t.Context(), "SN-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.CountOpenAssociations(t.Context(), "SN-2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestVins(t *testing.T) {
	s := newTestStore(t)

	v, err := s.FindAssociatedVin(t.Context(), "SN-1")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, s.PutVin(t.Context(), "SN-1", &model.Vin{Value: "DUMMY0001", Dummy: true}))
	require.NoError(t, s.PutVin(t.Context(), "SN-1", &model.Vin{Value: "WVWZZZ1JZXW000001", ModelName: "Golf"}))

	v, err = s.FindAssociatedVin(t.Context(), "SN-1")
	require.NoError(t, err)
	assert.Equal(t, &model.Vin{Value: "WVWZZZ1JZXW000001", ModelName: "Golf"}, v)
}

func TestMigrationIsIdempotent(t *testing.T) {
	opts := options.NewSqliteOptions()
	opts.Path = filepath.Join(t.TempDir(), "association.db")

	s, err := NewSQLite(t.Context(), opts)
	require.NoError(t, err)
	seed(t, s, "SN-1", "user-1", model.StateAssociated)
	require.NoError(t, s.Close())

	s, err = NewSQLite(t.Context(), opts)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.CountOpenAssociations(t.Context(), "SN-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
