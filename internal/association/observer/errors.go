package observer

import (
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
)

// HandlerError reports the fatal failure that stopped a dispatch.
// It matches core.ErrHandlerFailure and the underlying cause with errors.Is.
type HandlerError struct {
	Handler string
	Event   *model.AssociationEvent
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s failed for association %d (%s -> %s): %v",
		e.Handler, e.Event.AssociationID, e.Event.PriorState, e.Event.NewState, e.Err)
}

func (e *HandlerError) Unwrap() []error {
	return []error{core.ErrHandlerFailure, e.Err}
}
