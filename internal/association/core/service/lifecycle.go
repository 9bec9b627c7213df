package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/pkg/metrics"
	"github.com/autopeer-io/association/pkg/log"
)

// Operation names, as used in metrics and the HTTP API.
const (
	OpAssociate     = "associate"
	OpDisassociate  = "disassociate"
	OpSuspend       = "suspend"
	OpRestore       = "restore"
	OpTerminate     = "terminate"
	OpReplaceDevice = "replace-device"
	OpChangeState   = "change-state"
)

// ProfileResource names the vehicle profile in warnings and metrics.
const ProfileResource = "vehicle-profile"

// Associate binds an Initiated or Failed association. It is rejected while the
// device has another open association.
func (s *Service) Associate(ctx context.Context, req Request) (*Outcome, error) {
	return s.transition(ctx, OpAssociate, EventAssociate, req, req.flags())
}

// Disassociate ends an Associated or Suspended association at the user's request.
func (s *Service) Disassociate(ctx context.Context, req Request) (*Outcome, error) {
	return s.transition(ctx, OpDisassociate, EventDisassociate, req, req.flags())
}

// Suspend pauses an Associated association.
func (s *Service) Suspend(ctx context.Context, req Request) (*Outcome, error) {
	return s.transition(ctx, OpSuspend, EventSuspend, req, req.flags())
}

// Restore re-activates a Suspended or Disassociated association. Restoring a
// Disassociated association is rejected while the device has another open one.
func (s *Service) Restore(ctx context.Context, req Request) (*Outcome, error) {
	return s.transition(ctx, OpRestore, EventRestore, req, req.flags())
}

// Terminate ends an association on behalf of the platform and deletes the
// vehicle profile derived from it. A failed deletion is reported as a warning
// on an otherwise successful outcome.
func (s *Service) Terminate(ctx context.Context, req TerminateRequest) (*Outcome, error) {
	flags := req.flags()
	flags.TerminateReason = req.Reason
	return s.transition(ctx, OpTerminate, EventTerminate, req.Request, flags)
}

// ChangeState moves an association to req.Target along any permitted edge.
// It is the only operation that can move an Initiated association to Failed.
func (s *Service) ChangeState(ctx context.Context, req ChangeStateRequest) (*Outcome, error) {
	op := OpChangeState

	if !req.Target.Valid() {
		err := fmt.Errorf("unknown target state %q: %w", req.Target, core.ErrInvalidInput)
		return nil, s.reject(op, err)
	}

	a, err := s.resolve(ctx, req.Request)
	if err != nil {
		return nil, s.reject(op, err)
	}

	event, ok := eventFor(a.State, req.Target)
	if !ok {
		err := fmt.Errorf("association %d cannot move from %s to %s: %w", a.ID, a.State, req.Target, core.ErrInvalidTransition)
		return nil, s.reject(op, err)
	}

	return s.apply(ctx, op, event, a, req.Request, req.flags())
}

// ReplaceDevice disassociates the current device and associates the
// replacement in its place. Each step is dispatched separately; when the first
// dispatch fails the replacement is not created. A replacement that was
// created but could not be associated is left in Failed.
func (s *Service) ReplaceDevice(ctx context.Context, req ReplaceDeviceRequest) (*Outcome, error) {
	op := OpReplaceDevice

	a, err := s.resolve(ctx, req.Request)
	if err != nil {
		return nil, s.reject(op, err)
	}

	repl := req.Replacement
	if repl.SerialNumber == "" {
		return nil, s.reject(op, fmt.Errorf("replacement serial number is required: %w", core.ErrInvalidInput))
	}
	if repl.SerialNumber == a.SerialNumber {
		return nil, s.reject(op, fmt.Errorf("replacement %s is the current device: %w", repl.SerialNumber, core.ErrInvalidInput))
	}
	if !a.State.Open() {
		return nil, s.reject(op, fmt.Errorf("association %d is %s: %w", a.ID, a.State, core.ErrInvalidTransition))
	}

	open, err := s.repo.CountOpenAssociations(ctx, repl.SerialNumber)
	if err != nil {
		return nil, s.fail(op, fmt.Errorf("failed to count open associations of %s: %w", repl.SerialNumber, err))
	}
	if open > 0 {
		return nil, s.reject(op, fmt.Errorf("replacement %s already has %d open association(s): %w", repl.SerialNumber, open, core.ErrInvalidTransition))
	}

	actor := req.actor()
	superseded, err := s.commit(ctx, EventDisassociate, a, actor, req.flags())
	if err != nil {
		return nil, s.reject(op, err)
	}
	out := &Outcome{Superseded: superseded}
	if err := s.dispatch(ctx, op, superseded); err != nil {
		return out, err
	}

	at := s.commitTime(a)
	next := &model.Association{
		Device:    repl,
		UserID:    a.UserID,
		VehicleID: a.VehicleID,
		Country:   a.Country,
		State:     model.StateInitiated,
		CreatedAt: at,
		UpdatedAt: at,
		UpdatedBy: actor,
	}
	if err := s.repo.Create(ctx, next); err != nil {
		return out, s.fail(op, fmt.Errorf("failed to create association for replacement %s: %w", repl.SerialNumber, err))
	}

	event, err := s.commit(ctx, EventAssociate, next, actor, req.flags())
	if err != nil {
		s.abandon(ctx, next, actor, err)
		return out, s.reject(op, err)
	}
	out.Event = event
	if err := s.dispatch(ctx, op, event); err != nil {
		return out, err
	}

	metrics.TransitionsTotal.WithLabelValues(op, "committed").Inc()
	return out, nil
}

// abandon moves a replacement that could not be associated to Failed, from
// where a later associate can pick it up. Nothing is dispatched.
func (s *Service) abandon(ctx context.Context, a *model.Association, actor string, cause error) {
	if _, err := s.commit(ctx, EventFail, a, actor, model.EventFlags{}); err != nil {
		log.Error(err, "Failed to mark replacement association as failed",
			"associationID", a.ID, "serialNumber", a.SerialNumber, "cause", cause)
		return
	}
	log.Warn("Replacement association left in Failed",
		"associationID", a.ID, "serialNumber", a.SerialNumber, "cause", cause)
}

func (s *Service) transition(ctx context.Context, op, event string, req Request, flags model.EventFlags) (*Outcome, error) {
	a, err := s.resolve(ctx, req)
	if err != nil {
		return nil, s.reject(op, err)
	}
	return s.apply(ctx, op, event, a, req, flags)
}

// apply commits event on a, runs the terminate cleanup and dispatches.
// A dispatch failure is returned together with the outcome because the state
// change is already persisted.
func (s *Service) apply(ctx context.Context, op, event string, a *model.Association, req Request, flags model.EventFlags) (*Outcome, error) {
	ev, err := s.commit(ctx, event, a, req.actor(), flags)
	if err != nil {
		return nil, s.reject(op, err)
	}

	out := &Outcome{Event: ev}
	if event == EventTerminate {
		if w := s.deleteProfile(ctx, a); w != nil {
			out.Warnings = append(out.Warnings, w)
		}
	}

	if err := s.dispatch(ctx, op, ev); err != nil {
		return out, err
	}

	metrics.TransitionsTotal.WithLabelValues(op, "committed").Inc()
	log.Info("Association transition committed",
		"operation", op,
		"associationID", ev.AssociationID,
		"priorState", ev.PriorState,
		"newState", ev.NewState,
		"warnings", len(out.Warnings))
	return out, nil
}

// commit validates the transition, persists it and snapshots the event.
// a is left untouched when persistence fails.
func (s *Service) commit(ctx context.Context, event string, a *model.Association, actor string, flags model.EventFlags) (*model.AssociationEvent, error) {
	prior := a.State
	if err := s.newStateMachine(prior).fire(ctx, event, a); err != nil {
		return nil, fmt.Errorf("association %d: %w", a.ID, err)
	}

	next := a.State
	at := s.commitTime(a)
	if err := s.repo.UpdateState(ctx, a.ID, prior, next, actor, at); err != nil {
		a.State = prior
		return nil, fmt.Errorf("failed to persist state %s for association %d: %w", next, a.ID, err)
	}
	a.UpdatedAt = at
	a.UpdatedBy = actor

	return model.NewAssociationEvent(a, prior, flags, at), nil
}

func (s *Service) dispatch(ctx context.Context, op string, ev *model.AssociationEvent) error {
	if s.dispatcher == nil {
		return nil
	}
	if err := s.dispatcher.Dispatch(ctx, ev); err != nil {
		metrics.TransitionsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("association %d moved to %s but notification is incomplete: %w", ev.AssociationID, ev.NewState, err)
	}
	return nil
}

func (s *Service) deleteProfile(ctx context.Context, a *model.Association) *Warning {
	if s.profiles == nil || a.VehicleID == "" {
		return nil
	}
	if err := s.profiles.DeleteProfile(ctx, a.VehicleID); err != nil {
		metrics.SubResourceFailuresTotal.WithLabelValues(ProfileResource).Inc()
		log.Error(err, "Failed to delete vehicle profile after terminate",
			"associationID", a.ID, "vehicleID", a.VehicleID)
		return &Warning{Resource: ProfileResource, Err: err}
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, req Request) (*model.Association, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if req.AssociationID > 0 {
		a, err := s.repo.Get(ctx, req.AssociationID)
		if err != nil {
			return nil, fmt.Errorf("failed to get association %d: %w", req.AssociationID, err)
		}
		return a, nil
	}

	a, err := s.repo.FindByDevice(ctx, req.SerialNumber, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find association of device %s for user %s: %w", req.SerialNumber, req.UserID, err)
	}
	return a, nil
}

// commitTime never goes backwards for an association.
func (s *Service) commitTime(a *model.Association) time.Time {
	now := s.now().UTC()
	if now.Before(a.UpdatedAt) {
		return a.UpdatedAt
	}
	return now
}

// reject records an operation that changed nothing and returns err.
func (s *Service) reject(op string, err error) error {
	switch {
	case errors.Is(err, core.ErrNotFound):
		metrics.TransitionsTotal.WithLabelValues(op, "not_found").Inc()
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrInvalidInput):
		metrics.TransitionsTotal.WithLabelValues(op, "rejected").Inc()
	default:
		metrics.TransitionsTotal.WithLabelValues(op, "error").Inc()
	}
	return err
}

func (s *Service) fail(op string, err error) error {
	metrics.TransitionsTotal.WithLabelValues(op, "error").Inc()
	return err
}
