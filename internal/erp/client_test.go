package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type memorySink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *memorySink) RecordCall(ctx context.Context, ev AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *memorySink) wait(t *testing.T, n int) []AuditEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.events) >= n {
			out := append([]AuditEvent(nil), s.events...)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("audit sink never received %d events", n)
	return nil
}

func TestCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") != "secret" {
			t.Errorf("function key missing from query: %v", r.URL.Query())
		}
		if r.URL.Query().Get("operacion") != "listar" {
			t.Errorf("operation missing from query: %v", r.URL.Query())
		}
		_, _ = w.Write([]byte(`{"results": [{"id": "1"}], "pagination": {"total_results": 1}}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	c := NewClient(srv.URL, "secret", time.Second, sink, nil)
	res := c.Call(context.Background(), CallMeta{ThreadID: "t1", Tool: "erp_customers"}, "clientes", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("expected success, got %v (%v)", res.Outcome, res.Err)
	}
	events := sink.wait(t, 1)
	if !events[0].Success || events[0].Endpoint != "clientes" || events[0].Operation != "listar" {
		t.Fatalf("unexpected audit event: %+v", events[0])
	}
}

func TestCallEmptyObjectOnListingIsError(t *testing.T) {
	// Scenario: HTTP 200 with body `{}` on a listing operation is a backend
	// error, not an empty result set.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "clientes", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError {
		t.Fatal("empty object on listing classified as success")
	}
	if res.Err.Kind != KindEmpty {
		t.Fatalf("expected kind %s, got %s", KindEmpty, res.Err.Kind)
	}
}

func TestCallEmptyObjectOnLookupIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "clientes", "consultar_por_id", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("empty object on a non-listing op should pass through: %v", res.Err)
	}
}

func TestCallErrorFieldInPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "identificacion is required"}`))
	}))
	defer srv.Close()

	sink := &memorySink{}
	c := NewClient(srv.URL, "k", time.Second, sink, nil)
	res := c.Call(context.Background(), CallMeta{}, "clientes", "consultar_por_identificacion", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError || res.Err.Kind != KindBackend {
		t.Fatalf("error payload not classified: %+v", res)
	}
	events := sink.wait(t, 1)
	if events[0].Success {
		t.Fatal("failed call audited as success")
	}
}

func TestCallNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message": "upstream down"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "productos", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError || res.Err.Kind != KindBackend {
		t.Fatalf("non-2xx not classified as backend error: %+v", res)
	}
	if res.Status != http.StatusBadGateway {
		t.Fatalf("status = %d", res.Status)
	}
}

func TestCallEmptyBodyOnSuccessIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "productos", "consultar_por_id", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError || res.Err.Kind != KindBackend {
		t.Fatalf("empty body not classified: %+v", res)
	}
}

func TestCallTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", 30*time.Millisecond, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "productos", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError || res.Err.Kind != KindTransport {
		t.Fatalf("timeout not classified as transport error: %+v", res)
	}
}

func TestCallConnectionFailure(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "k", 200*time.Millisecond, nil, nil)
	res := c.Call(context.Background(), CallMeta{}, "productos", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeError || res.Err.Kind != KindTransport {
		t.Fatalf("connection failure not classified: %+v", res)
	}
}

func TestCallBodyOnlyForWritingMethods(t *testing.T) {
	var sawBody atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && len(body) > 0 {
			sawBody.Store(true)
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("missing content type on %s", r.Method)
			}
		}
		_, _ = w.Write([]byte(`{"id": "new"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, nil, nil)
	body := map[string]interface{}{"name": "Widget"}

	if res := c.Call(context.Background(), CallMeta{}, "productos", "crear", "POST", url.Values{}, body); res.Outcome != OutcomeSuccess {
		t.Fatalf("POST failed: %+v", res)
	}
	if !sawBody.Load() {
		t.Fatal("POST body was not sent")
	}

	sawBody.Store(false)
	if res := c.Call(context.Background(), CallMeta{}, "productos", "eliminar", "DELETE", url.Values{}, body); res.Outcome != OutcomeSuccess {
		t.Fatalf("DELETE failed: %+v", res)
	}
	if sawBody.Load() {
		t.Fatal("DELETE must not carry a body")
	}
}

func TestCallAuditFailureDoesNotAffectResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k", time.Second, failingSink{}, nil)
	res := c.Call(context.Background(), CallMeta{}, "clientes", "listar", "GET", url.Values{}, nil)
	if res.Outcome != OutcomeSuccess {
		t.Fatalf("audit failure leaked into the call result: %+v", res)
	}
}

type failingSink struct{}

func (failingSink) RecordCall(ctx context.Context, ev AuditEvent) error {
	return context.Canceled
}
