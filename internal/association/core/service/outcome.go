package service

import (
	"fmt"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
)

// Outcome is the result of a committed lifecycle operation.
type Outcome struct {
	// Event describes the committed transition.
	Event *model.AssociationEvent

	// Superseded is the disassociation of the previous device, set by ReplaceDevice only.
	Superseded *model.AssociationEvent

	// Warnings lists derived resources that could not be cleaned up.
	// The state change itself succeeded.
	Warnings []*Warning
}

// Qualified reports whether the operation succeeded with warnings.
func (o *Outcome) Qualified() bool {
	return o != nil && len(o.Warnings) > 0
}

// Warning is a failure of a derived resource after a successful transition.
// It matches core.ErrSubResourceFailure with errors.Is.
type Warning struct {
	Resource string
	Err      error
}

func (w *Warning) Error() string {
	return fmt.Sprintf("%s: %v", w.Resource, w.Err)
}

func (w *Warning) Unwrap() []error {
	return []error{core.ErrSubResourceFailure, w.Err}
}
