package model

import "time"

// WipeDataReason is the terminate reason asking the device to erase user data.
const WipeDataReason = "WIPE_DATA"

// AssociationEvent is the immutable snapshot of one committed transition.
// It lives only for the duration of a single dispatch.
type AssociationEvent struct {
	AssociationID int64

	PriorState State
	NewState   State

	SerialNumber    string
	HarmanID        string
	VehicleID       string
	UserID          string
	FactoryID       int64
	SoftwareVersion string
	DeviceType      string
	Country         string

	// TerminateReason is set by terminate only.
	TerminateReason string

	// DeviceAuthV2Deactivate selects the v2 device-auth deactivation path.
	DeviceAuthV2Deactivate bool

	// AuthsRequestOriginated marks transitions requested by the auth service
	// itself, which must not be echoed back to it.
	AuthsRequestOriginated bool

	CommittedAt time.Time
}

// EventFlags carries the operation-specific flags copied onto an event.
type EventFlags struct {
	TerminateReason        string
	DeviceAuthV2Deactivate bool
	AuthsRequestOriginated bool
}

// NewAssociationEvent snapshots a after its state moved from prior to a.State.
func NewAssociationEvent(a *Association, prior State, flags EventFlags, committedAt time.Time) *AssociationEvent {
	return &AssociationEvent{
		AssociationID:          a.ID,
		PriorState:             prior,
		NewState:               a.State,
		SerialNumber:           a.SerialNumber,
		HarmanID:               a.HarmanID,
		VehicleID:              a.VehicleID,
		UserID:                 a.UserID,
		FactoryID:              a.FactoryID,
		SoftwareVersion:        a.SoftwareVersion,
		DeviceType:             a.DeviceType,
		Country:                a.Country,
		TerminateReason:        flags.TerminateReason,
		DeviceAuthV2Deactivate: flags.DeviceAuthV2Deactivate,
		AuthsRequestOriginated: flags.AuthsRequestOriginated,
		CommittedAt:            committedAt,
	}
}

// WipeData reports whether the event asks the device to wipe its data.
func (e *AssociationEvent) WipeData() bool {
	return e.TerminateReason == WipeDataReason
}
