package model

import "time"

// State is the lifecycle state of a device-to-vehicle association.
type State string

const (
	StateInitiated     State = "Initiated"
	StateAssociated    State = "Associated"
	StateDisassociated State = "Disassociated"
	StateSuspended     State = "Suspended"
	StateFailed        State = "Failed"
)

// States lists every lifecycle state.
var States = []State{StateInitiated, StateAssociated, StateDisassociated, StateSuspended, StateFailed}

func (s State) String() string { return string(s) }

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}

// Open reports whether the association still binds its device.
func (s State) Open() bool {
	return s == StateAssociated || s == StateSuspended
}

// Device identifies the physical device (dongle) of an association.
type Device struct {
	// SerialNumber is the manufacturer serial number.
	SerialNumber string

	// HarmanID is the platform-internal device identifier.
	HarmanID string

	// FactoryID references the factory-provisioning record. Zero means unknown.
	FactoryID int64

	SoftwareVersion string
	DeviceType      string
}

// Association binds a device, a user and optionally a vehicle.
type Association struct {
	ID int64

	Device

	UserID    string
	VehicleID string
	Country   string

	State State

	CreatedAt time.Time
	UpdatedAt time.Time
	UpdatedBy string
}

// Vin is the vehicle identification bound to a device serial number.
type Vin struct {
	Value string

	// Dummy marks a placeholder VIN generated before the real one was known.
	Dummy bool

	ModelName string
}
