package notifier

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/autopeer-io/association/internal/association/core/model"
)

type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// peer is a REST peer double that records every request.
type peer struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
}

func newPeer(t *testing.T, status int) (*peer, *httptest.Server) {
	t.Helper()
	p := &peer{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		p.mu.Lock()
		p.requests = append(p.requests, capturedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		p.mu.Unlock()
		w.WriteHeader(p.status)
		_, _ = w.Write([]byte(`{"status":"done"}`))
	}))
	t.Cleanup(srv.Close)
	return p, srv
}

func (p *peer) calls() []capturedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]capturedRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

type published struct {
	Topic   string
	QoS     int
	Payload []byte
}

type fakePublisher struct {
	msgs    []published
	failFor map[string]bool
}

func (f *fakePublisher) Publish(_ context.Context, topic string, qos int, _ bool, payload []byte) error {
	if f.failFor[topic] {
		return errors.New("broker unavailable")
	}
	f.msgs = append(f.msgs, published{Topic: topic, QoS: qos, Payload: payload})
	return nil
}

type fakeVins struct {
	vin *model.Vin
	err error
}

func (f *fakeVins) FindAssociatedVin(context.Context, string) (*model.Vin, error) {
	return f.vin, f.err
}

var committedAt = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func disassociatedEvent() *model.AssociationEvent {
	return &model.AssociationEvent{
		AssociationID: 11,
		PriorState:    model.StateAssociated,
		NewState:      model.StateDisassociated,
		SerialNumber:  "SN-11",
		HarmanID:      "HARMAN-11",
		VehicleID:     "vehicle-11",
		UserID:        "user-11",
		FactoryID:     77,
		DeviceType:    "dongle",
		CommittedAt:   committedAt,
	}
}

func associatedEvent() *model.AssociationEvent {
	ev := disassociatedEvent()
	ev.PriorState = model.StateInitiated
	ev.NewState = model.StateAssociated
	ev.SoftwareVersion = "4.2.0"
	ev.Country = "US"
	return ev
}
