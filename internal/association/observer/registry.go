package observer

import (
	"context"
	"reflect"
	"sort"
	"time"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/pkg/metrics"
	"github.com/autopeer-io/association/pkg/log"
)

// Registration is a registered handler together with its rank.
type Registration struct {
	Handler  Handler
	Priority Priority
}

// Registry is the ordered collection of notification handlers.
//
// Handlers are registered once during startup and the list is read-only
// afterwards, so Dispatch may be called concurrently for different events.
// Register must not run concurrently with Dispatch.
type Registry struct {
	entries []Registration
	logger  log.Logger
}

var _ core.Dispatcher = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{logger: log.WithName("observer")}
}

// Register adds h with the given priority. A nil handler is ignored, and
// registering a handler that is already present is a no-op.
// Handlers with equal priority keep their registration order.
func (r *Registry) Register(h Handler, priority Priority) {
	if isNil(h) {
		return
	}
	for _, e := range r.entries {
		if sameHandler(e.Handler, h) {
			return
		}
	}

	r.entries = append(r.entries, Registration{Handler: h, Priority: priority})
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority < r.entries[j].Priority
	})

	r.logger.Info("Registered notification handler", "handler", h.Name(), "priority", int(priority), "policy", h.FailurePolicy())
}

// Handlers returns the registrations in dispatch order.
func (r *Registry) Handlers() []Registration {
	out := make([]Registration, len(r.entries))
	copy(out, r.entries)
	return out
}

// Dispatch invokes every applicable handler in ascending priority order on the
// calling goroutine. The first failure of a fatal handler stops the dispatch
// and is returned as a *HandlerError; failures of advisory handlers are logged
// and the dispatch continues. A nil event is a no-op.
func (r *Registry) Dispatch(ctx context.Context, event *model.AssociationEvent) error {
	if event == nil {
		return nil
	}

	for _, e := range r.entries {
		h := e.Handler
		name := h.Name()

		if !h.Applicable(event) {
			metrics.DispatchTotal.WithLabelValues(name, metrics.ResultSkipped).Inc()
			continue
		}

		start := time.Now()
		err := h.Handle(ctx, event)
		metrics.HandlerDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.DispatchTotal.WithLabelValues(name, metrics.ResultOK).Inc()
			continue
		}

		if h.FailurePolicy() == PolicyAdvisory {
			metrics.DispatchTotal.WithLabelValues(name, metrics.ResultSwallowed).Inc()
			r.logger.Error(err, "Notification handler failed, continuing dispatch",
				"handler", name,
				"associationID", event.AssociationID,
				"newState", event.NewState)
			continue
		}

		metrics.DispatchTotal.WithLabelValues(name, metrics.ResultFailed).Inc()
		r.logger.Error(err, "Notification handler failed, stopping dispatch",
			"handler", name,
			"associationID", event.AssociationID,
			"newState", event.NewState)
		return &HandlerError{Handler: name, Event: event, Err: err}
	}

	return nil
}

func isNil(h Handler) bool {
	if h == nil {
		return true
	}
	v := reflect.ValueOf(h)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// sameHandler compares handler identity without panicking on non-comparable types.
func sameHandler(a, b Handler) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}
