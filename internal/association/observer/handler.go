package observer

import (
	"context"

	"github.com/autopeer-io/association/internal/association/core/model"
)

// FailurePolicy tells the registry what a handler failure means for the dispatch.
type FailurePolicy int

const (
	// PolicyFatal stops the dispatch and reports the failure to the caller.
	PolicyFatal FailurePolicy = iota

	// PolicyAdvisory logs the failure and lets the dispatch continue.
	PolicyAdvisory
)

func (p FailurePolicy) String() string {
	switch p {
	case PolicyFatal:
		return "fatal"
	case PolicyAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Handler reacts to a committed association transition.
type Handler interface {
	// Name identifies the handler in logs, metrics and errors.
	Name() string

	// Applicable reports whether the handler acts on event. A handler that
	// is not applicable is skipped with no side effect.
	Applicable(event *model.AssociationEvent) bool

	// Handle performs the handler's side effect.
	Handle(ctx context.Context, event *model.AssociationEvent) error

	// FailurePolicy declares how a failure from Handle is treated.
	FailurePolicy() FailurePolicy
}

// Priority orders handlers. Lower values run first.
type Priority int

// Dispatch order of the built-in handlers. Session invalidation comes first so
// that a failure there is never masked by the weaker analytics signals.
const (
	PriorityAuthDeactivation Priority = 100
	PriorityConfigPush       Priority = 200
	PriorityEventBus         Priority = 300
	PriorityStream           Priority = 400
)
