package core

import (
	"context"
)

// ProfileStore holds the vehicle profiles derived from an association.
type ProfileStore interface {
	// DeleteProfile removes the profile of a vehicle. Deleting a missing profile is not an error.
	DeleteProfile(ctx context.Context, vehicleID string) error
}
