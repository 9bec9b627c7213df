package core

import (
	"context"
	"time"

	"github.com/autopeer-io/association/internal/association/core/model"
)

// AssociationRepository is the persistence port of the lifecycle.
// In this service it is implemented by the SQLite adapter.
type AssociationRepository interface {
	// Get returns the association with the given id, or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Association, error)

	// FindByDevice returns the most recent association of a device for a user, or ErrNotFound.
	FindByDevice(ctx context.Context, serialNumber, userID string) (*model.Association, error)

	// Create stores a new association and sets its ID.
	Create(ctx context.Context, a *model.Association) error

	// UpdateState moves an association from one state to another and records
	// who did it and when. It fails with ErrInvalidTransition when the stored
	// state is no longer from, or when the move would open a second
	// association of the same device.
	UpdateState(ctx context.Context, id int64, from, to model.State, actor string, at time.Time) error

	// FindAssociatedVin returns the VIN bound to a device serial number, or nil when none is known.
	FindAssociatedVin(ctx context.Context, serialNumber string) (*model.Vin, error)

	// CountOpenAssociations counts Associated or Suspended associations of a device.
	CountOpenAssociations(ctx context.Context, serialNumber string) (int, error)
}

// VinLookup is the narrow read port used by notification handlers.
type VinLookup interface {
	FindAssociatedVin(ctx context.Context, serialNumber string) (*model.Vin, error)
}
