package service

import (
	"context"
	"fmt"
	"time"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
)

// Service implements the association lifecycle.
// It persists every transition first and then dispatches exactly one event for it.
type Service struct {
	repo       core.AssociationRepository
	dispatcher core.Dispatcher
	profiles   core.ProfileStore
	now        func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates the lifecycle service. profiles may be nil, in which case
// terminate has no derived resource to clean up.
func New(
	repo core.AssociationRepository,
	dispatcher core.Dispatcher,
	profiles core.ProfileStore,
	opts ...Option,
) *Service {
	s := &Service{
		repo:       repo,
		dispatcher: dispatcher,
		profiles:   profiles,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the association with the given id.
func (s *Service) Get(ctx context.Context, id int64) (*model.Association, error) {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get association %d: %w", id, err)
	}
	return a, nil
}
