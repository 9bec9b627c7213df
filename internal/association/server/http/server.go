package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/autopeer-io/association/internal/association/core"
	"github.com/autopeer-io/association/internal/association/core/model"
	"github.com/autopeer-io/association/internal/association/core/service"
	"github.com/autopeer-io/association/internal/pkg/metrics"
	"github.com/autopeer-io/association/pkg/log"
	"github.com/autopeer-io/association/pkg/options"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodyBytes caps a request body.
const maxBodyBytes = 1 << 20

// messageNotificationIncomplete is returned instead of the peer's error details.
const messageNotificationIncomplete = "association state changed but downstream notification is incomplete"

// Lifecycle is the part of the association service exposed over HTTP.
type Lifecycle interface {
	Get(ctx context.Context, id int64) (*model.Association, error)
	Associate(ctx context.Context, req service.Request) (*service.Outcome, error)
	Disassociate(ctx context.Context, req service.Request) (*service.Outcome, error)
	Suspend(ctx context.Context, req service.Request) (*service.Outcome, error)
	Restore(ctx context.Context, req service.Request) (*service.Outcome, error)
	Terminate(ctx context.Context, req service.TerminateRequest) (*service.Outcome, error)
	ReplaceDevice(ctx context.Context, req service.ReplaceDeviceRequest) (*service.Outcome, error)
	ChangeState(ctx context.Context, req service.ChangeStateRequest) (*service.Outcome, error)
}

var _ Lifecycle = (*service.Service)(nil)

// ReadyFunc reports whether the server's dependencies are usable.
type ReadyFunc func(ctx context.Context) error

// Server exposes the lifecycle API together with health and metrics endpoints.
type Server struct {
	server  *http.Server
	options *options.HttpOptions
	svc     Lifecycle
	ready   ReadyFunc
}

func NewServer(opts *options.HttpOptions, svc Lifecycle, ready ReadyFunc) *Server {
	s := &Server{
		options: opts,
		svc:     svc,
		ready:   ready,
	}

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Handler returns the routed and instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/associations/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	api.HandleFunc("/associations/{id:[0-9]+}/{operation}", s.handleOperation).Methods(http.MethodPost)
	api.HandleFunc("/associations:by-device/{operation}", s.handleOperation).Methods(http.MethodPost)

	return otelhttp.NewHandler(r, "association-api")
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP Server")
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.Warn("Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, fmt.Errorf("bad association id: %w", core.ErrInvalidInput), nil)
		return
	}

	a, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, newAssociationBody(a))
}

func (s *Server) handleOperation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	var id int64
	if raw, ok := vars["id"]; ok {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, fmt.Errorf("bad association id: %w", core.ErrInvalidInput), nil)
			return
		}
		id = parsed
	}

	var body operationRequest
	if r.ContentLength != 0 {
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
		if err != nil && !errors.Is(err, io.EOF) {
			writeError(w, fmt.Errorf("malformed request body: %w", core.ErrInvalidInput), nil)
			return
		}
	}

	out, err := s.dispatchOperation(r.Context(), vars["operation"], id, &body)
	if err != nil {
		var ev *model.AssociationEvent
		if out != nil {
			ev = out.Event
			if ev == nil {
				ev = out.Superseded
			}
		}
		writeError(w, err, ev)
		return
	}

	resp := &operationResponse{
		Transition: newTransitionBody(out.Event),
		Superseded: newTransitionBody(out.Superseded),
	}
	for _, warn := range out.Warnings {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("%s could not be cleaned up", warn.Resource))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dispatchOperation(ctx context.Context, op string, id int64, body *operationRequest) (*service.Outcome, error) {
	req := body.request(id)

	switch op {
	case service.OpAssociate:
		return s.svc.Associate(ctx, req)
	case service.OpDisassociate:
		return s.svc.Disassociate(ctx, req)
	case service.OpSuspend:
		return s.svc.Suspend(ctx, req)
	case service.OpRestore:
		return s.svc.Restore(ctx, req)
	case service.OpTerminate:
		return s.svc.Terminate(ctx, service.TerminateRequest{Request: req, Reason: body.Reason})
	case service.OpChangeState:
		return s.svc.ChangeState(ctx, service.ChangeStateRequest{Request: req, Target: model.State(body.TargetState)})
	case service.OpReplaceDevice:
		if body.Replacement == nil {
			return nil, fmt.Errorf("replacement device is required: %w", core.ErrInvalidInput)
		}
		return s.svc.ReplaceDevice(ctx, service.ReplaceDeviceRequest{
			Request: req,
			Replacement: model.Device{
				SerialNumber:    body.Replacement.SerialNumber,
				HarmanID:        body.Replacement.HarmanID,
				FactoryID:       body.Replacement.FactoryID,
				SoftwareVersion: body.Replacement.SoftwareVersion,
				DeviceType:      body.Replacement.DeviceType,
			},
		})
	default:
		return nil, errUnknownOperation
	}
}

var errUnknownOperation = errors.New("unknown operation")

// statusOf maps a lifecycle failure to an HTTP status.
// A handler failure wins over its cause because the state change already committed.
func statusOf(err error) int {
	switch {
	case errors.Is(err, errUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, core.ErrHandlerFailure):
		return http.StatusInternalServerError
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition), errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error, ev *model.AssociationEvent) {
	status := statusOf(err)

	resp := &errorResponse{Error: err.Error()}
	switch {
	case errors.Is(err, core.ErrHandlerFailure):
		log.Error(err, "Lifecycle operation committed with incomplete notification")
		resp = &errorResponse{Error: messageNotificationIncomplete, Transition: newTransitionBody(ev)}
	case status == http.StatusInternalServerError:
		log.Error(err, "Lifecycle operation failed")
		resp.Error = "internal error"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn("Failed to write response", "error", err)
	}
}
