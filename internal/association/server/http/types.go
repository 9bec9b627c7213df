package http

import (
	"time"

	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/core/service"
)

// operationRequest is the body accepted by every lifecycle operation.
// Fields an operation does not use are ignored.
type operationRequest struct {
	SerialNumber string `json:"serialNumber,omitempty"`
	UserID       string `json:"userId,omitempty"`
	Actor        string `json:"actor,omitempty"`

	DeviceAuthV2Deactivate bool `json:"deviceAuthV2Deactivate,omitempty"`
	AuthsRequestOriginated bool `json:"authsRequestOriginated,omitempty"`

	// Reason is read by terminate.
	Reason string `json:"reason,omitempty"`

	// TargetState is read by change-state.
	TargetState string `json:"targetState,omitempty"`

	// Replacement is read by replace-device.
	Replacement *deviceBody `json:"replacement,omitempty"`
}

type deviceBody struct {
	SerialNumber    string `json:"serialNumber"`
	HarmanID        string `json:"harmanId"`
	FactoryID       int64  `json:"factoryId"`
	SoftwareVersion string `json:"softwareVersion"`
	DeviceType      string `json:"deviceType"`
}

func (b *operationRequest) request(id int64) service.Request {
	return service.Request{
		AssociationID:          id,
		SerialNumber:           b.SerialNumber,
		UserID:                 b.UserID,
		Actor:                  b.Actor,
		DeviceAuthV2Deactivate: b.DeviceAuthV2Deactivate,
		AuthsRequestOriginated: b.AuthsRequestOriginated,
	}
}

type transitionBody struct {
	AssociationID int64     `json:"associationId"`
	PriorState    string    `json:"priorState"`
	NewState      string    `json:"newState"`
	CommittedAt   time.Time `json:"committedAt"`
}

func newTransitionBody(ev *model.AssociationEvent) *transitionBody {
	if ev == nil {
		return nil
	}
	return &transitionBody{
		AssociationID: ev.AssociationID,
		PriorState:    string(ev.PriorState),
		NewState:      string(ev.NewState),
		CommittedAt:   ev.CommittedAt,
	}
}

type operationResponse struct {
	Transition *transitionBody `json:"transition,omitempty"`
	Superseded *transitionBody `json:"superseded,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}

type errorResponse struct {
	Error      string          `json:"error"`
	Transition *transitionBody `json:"transition,omitempty"`
}

type associationBody struct {
	ID              int64     `json:"id"`
	SerialNumber    string    `json:"serialNumber"`
	HarmanID        string    `json:"harmanId"`
	FactoryID       int64     `json:"factoryId"`
	SoftwareVersion string    `json:"softwareVersion"`
	DeviceType      string    `json:"deviceType"`
	UserID          string    `json:"userId"`
	VehicleID       string    `json:"vehicleId"`
	Country         string    `json:"country"`
	State           string    `json:"state"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
	UpdatedBy       string    `json:"updatedBy"`
}

func newAssociationBody(a *model.Association) *associationBody {
	return &associationBody{
		ID:              a.ID,
		SerialNumber:    a.SerialNumber,
		HarmanID:        a.HarmanID,
		FactoryID:       a.FactoryID,
		SoftwareVersion: a.SoftwareVersion,
		DeviceType:      a.DeviceType,
		UserID:          a.UserID,
		VehicleID:       a.VehicleID,
		Country:         a.Country,
		State:           string(a.State),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
		UpdatedBy:       a.UpdatedBy,
	}
}
