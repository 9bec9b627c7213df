package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
)

type mockRepository struct {
	mock.Mock
}

var _ core.AssociationRepository = (*mockRepository)(nil)

func (m *mockRepository) Get(ctx context.Context, id int64) (*model.Association, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Association)
	return a, args.Error(1)
}

func (m *mockRepository) FindByDevice(ctx context.Context, serialNumber, userID string) (*model.Association, error) {
	args := m.Called(ctx, serialNumber, userID)
	a, _ := args.Get(0).(*model.Association)
	return a, args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, a *model.Association) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *mockRepository) UpdateState(ctx context.Context, id int64, from, to model.State, actor string, at time.Time) error {
	args := m.Called(ctx, id, from, to, actor, at)
	return args.Error(0)
}

func (m *mockRepository) FindAssociatedVin(ctx context.Context, serialNumber string) (*model.Vin, error) {
	args := m.Called(ctx, serialNumber)
	v, _ := args.Get(0).(*model.Vin)
	return v, args.Error(1)
}

func (m *mockRepository) CountOpenAssociations(ctx context.Context, serialNumber string) (int, error) {
	args := m.Called(ctx, serialNumber)
	return args.Int(0), args.Error(1)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []*model.AssociationEvent
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, ev *model.AssociationEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return d.err
}

type fakeProfiles struct {
	deleted []string
	err     error
}

func (p *fakeProfiles) DeleteProfile(_ context.Context, vehicleID string) error {
	p.deleted = append(p.deleted, vehicleID)
	return p.err
}
