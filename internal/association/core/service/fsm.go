package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	fsmutil "github.com/autopeer-io/association/internal/pkg/util/fsm"
)

// Lifecycle events. Each maps onto one or more edges of the transition table.
const (
	EventAssociate    = "associate"
	EventDisassociate = "disassociate"
	EventSuspend      = "suspend"
	EventRestore      = "restore"
	EventTerminate    = "terminate"
	EventFail         = "fail"
)

var transitions = fsm.Events{
	{Name: EventAssociate, Src: states(model.StateInitiated, model.StateFailed), Dst: string(model.StateAssociated)},
	{Name: EventDisassociate, Src: states(model.StateAssociated, model.StateSuspended), Dst: string(model.StateDisassociated)},
	{Name: EventSuspend, Src: states(model.StateAssociated), Dst: string(model.StateSuspended)},
	{Name: EventRestore, Src: states(model.StateDisassociated, model.StateSuspended), Dst: string(model.StateAssociated)},
	{Name: EventTerminate, Src: states(model.StateAssociated, model.StateSuspended), Dst: string(model.StateDisassociated)},

	// Failed is reachable from Initiated only.
	{Name: EventFail, Src: states(model.StateInitiated), Dst: string(model.StateFailed)},
}

// genericEvents are the events ChangeState may pick, in preference order.
// terminate is excluded because it carries a profile cleanup.
var genericEvents = []string{EventAssociate, EventDisassociate, EventSuspend, EventRestore, EventFail}

func states(ss ...model.State) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}

// stateMachine validates one transition of a single association.
type stateMachine struct {
	*fsm.FSM
	repo core.AssociationRepository
}

func (s *Service) newStateMachine(current model.State) *stateMachine {
	m := &stateMachine{repo: s.repo}

	callbacks := fsm.Callbacks{
		// Guards
		"before_" + EventAssociate: m.guardOpen,
		"before_" + EventRestore:   m.guardRestore,

		// Side-effects
		"enter_state": fsmutil.WrapEvent(m.actionEnterState),
	}

	m.FSM = fsm.NewFSM(string(current), transitions, callbacks)
	return m
}

// guardRestore applies the open-association check when a closed association
// is re-opened. Restoring a Suspended association keeps the device's count.
func (m *stateMachine) guardRestore(ctx context.Context, e *fsm.Event) {
	if e.Src == string(model.StateDisassociated) {
		m.guardOpen(ctx, e)
	}
}

// guardOpen cancels the event when the device is already bound elsewhere.
// The repository repeats the check atomically on write.
func (m *stateMachine) guardOpen(ctx context.Context, e *fsm.Event) {
	a, err := fsmutil.Arg[*model.Association](e, 0)
	if err != nil {
		e.Cancel(err)
		return
	}

	open, err := m.repo.CountOpenAssociations(ctx, a.SerialNumber)
	if err != nil {
		e.Cancel(fmt.Errorf("failed to count open associations of %s: %w", a.SerialNumber, err))
		return
	}
	if open > 0 {
		e.Cancel(fmt.Errorf("device %s already has %d open association(s): %w", a.SerialNumber, open, core.ErrInvalidTransition))
	}
}

func (m *stateMachine) actionEnterState(_ context.Context, e *fsm.Event) error {
	a, err := fsmutil.Arg[*model.Association](e, 0)
	if err != nil {
		return err
	}
	a.State = model.State(e.Dst)
	return nil
}

// fire runs event against a and moves a.State on success.
func (m *stateMachine) fire(ctx context.Context, event string, a *model.Association) error {
	return translateFSMError(m.Event(ctx, event, a))
}

func translateFSMError(err error) error {
	if err == nil {
		return nil
	}

	var canceled fsm.CanceledError
	if errors.As(err, &canceled) && canceled.Err != nil {
		return canceled.Err
	}

	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return fmt.Errorf("%s is not allowed in state %s: %w", invalid.Event, invalid.State, core.ErrInvalidTransition)
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return fmt.Errorf("no state change: %w", core.ErrInvalidTransition)
	}

	return err
}

// eventFor returns the first generic event leading from current to target.
func eventFor(current, target model.State) (string, bool) {
	for _, name := range genericEvents {
		for _, t := range transitions {
			if t.Name != name || t.Dst != string(target) {
				continue
			}
			for _, src := range t.Src {
				if src == string(current) {
					return name, true
				}
			}
		}
	}
	return "", false
}
