package service

import (
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
)

// DefaultActor is recorded when a request does not name who triggered it.
const DefaultActor = "system"

// Request identifies an association and carries the flags shared by all operations.
// The association is looked up by AssociationID when set, otherwise by
// SerialNumber and UserID.
type Request struct {
	AssociationID int64
	SerialNumber  string
	UserID        string

	// Actor is recorded as the author of the state change.
	Actor string

	DeviceAuthV2Deactivate bool
	AuthsRequestOriginated bool
}

func (r Request) validate() error {
	if r.AssociationID > 0 {
		return nil
	}
	if r.AssociationID < 0 {
		return fmt.Errorf("association id %d must be positive: %w", r.AssociationID, core.ErrInvalidInput)
	}
	if r.SerialNumber == "" || r.UserID == "" {
		return fmt.Errorf("association id or serial number and user id are required: %w", core.ErrInvalidInput)
	}
	return nil
}

func (r Request) actor() string {
	if r.Actor == "" {
		return DefaultActor
	}
	return r.Actor
}

func (r Request) flags() model.EventFlags {
	return model.EventFlags{
		DeviceAuthV2Deactivate: r.DeviceAuthV2Deactivate,
		AuthsRequestOriginated: r.AuthsRequestOriginated,
	}
}

// TerminateRequest ends an association on behalf of the platform.
type TerminateRequest struct {
	Request

	// Reason is forwarded to the device. model.WipeDataReason asks it to erase user data.
	Reason string
}

// ReplaceDeviceRequest moves an association onto another physical device.
type ReplaceDeviceRequest struct {
	Request

	Replacement model.Device
}

// ChangeStateRequest moves an association to Target along any permitted edge.
type ChangeStateRequest struct {
	Request

	Target model.State
}
