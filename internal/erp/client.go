package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Outcome classifies a backend call beyond the raw transport status.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Result is the classified outcome of one backend call. Err is non-nil
// whenever Outcome is not success; no raw transport error ever escapes the
// client boundary.
type Result struct {
	Status  int
	Payload interface{}
	Outcome Outcome
	Err     *Error
}

// CallMeta carries the per-turn correlation identifiers down the call chain
// explicitly; its lifetime is exactly one turn's execution.
type CallMeta struct {
	ThreadID string
	UserID   string
	Tool     string
}

// AuditEvent is the persisted projection of one backend call attempt.
type AuditEvent struct {
	ThreadID       string
	UserID         string
	Tool           string
	Endpoint       string
	Operation      string
	Method         string
	RequestPayload json.RawMessage
	ResponseStatus int
	Success        bool
	DurationMs     int64
	ErrorText      string
	At             time.Time
}

// AuditSink receives call audit events. Writes are best-effort: the client
// fires them without awaiting completion and swallows sink failures.
type AuditSink interface {
	RecordCall(ctx context.Context, ev AuditEvent) error
}

// Client issues HTTP calls against the remote ERP functions. Credentials
// travel as fixed query-string parameters. No retries happen here; retry
// policy is the calling agent's decision, driven by the error kinds the
// client reports.
type Client struct {
	baseURL string
	key     string
	http    *http.Client
	audit   AuditSink
	logger  *log.Logger
}

func NewClient(baseURL, functionKey string, timeout time.Duration, audit AuditSink, logger *log.Logger) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     functionKey,
		http:    &http.Client{Timeout: timeout},
		audit:   audit,
		logger:  logger,
	}
}

// Call performs one backend request and classifies the result. Exactly one
// audit event is emitted per attempt, success or failure.
func (c *Client) Call(ctx context.Context, meta CallMeta, resource, operation, method string, query url.Values, body map[string]interface{}) Result {
	started := time.Now()
	res := c.do(ctx, resource, operation, method, query, body)
	c.emitAudit(meta, resource, operation, method, query, body, res, time.Since(started))
	return res
}

func (c *Client) do(ctx context.Context, resource, operation, method string, query url.Values, body map[string]interface{}) Result {
	r, ok := Lookup(resource)
	if !ok {
		return errResult(0, newError(KindUnsupported, "unknown resource %q", resource))
	}

	params := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("code", c.key)
	params.Set("operacion", operation)

	var bodyReader io.Reader
	if body != nil && (method == http.MethodPost || method == http.MethodPut) {
		b, err := json.Marshal(body)
		if err != nil {
			return errResult(0, newError(KindInput, "cannot encode request body: %v", err))
		}
		bodyReader = bytes.NewReader(b)
	}

	endpoint := c.baseURL + "/" + r.Path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return errResult(0, newError(KindTransport, "cannot build request: %v", err))
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errResult(0, classifyTransport(err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errResult(resp.StatusCode, newError(KindTransport, "cannot read response: %v", err))
	}
	return classify(r, operation, resp.StatusCode, raw)
}

// classify applies the outcome rules: an explicit error field or non-2xx
// status is a backend error; an empty body under a success status is an
// error; a structurally empty object on a listing operation is ambiguous
// between "no results" and a silent failure, and ambiguity is resolved in
// favor of surfacing an error.
func classify(r *Resource, operation string, status int, raw []byte) Result {
	success := status >= 200 && status < 300

	if len(bytes.TrimSpace(raw)) == 0 {
		if success {
			return errResult(status, newError(KindBackend, "server responded empty"))
		}
		return errResult(status, newError(KindBackend, "backend returned status %d with empty body", status))
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		// non-JSON body: hand the text back as data like the backend's older
		// functions did, unless the status already signals failure
		if !success {
			return errResult(status, newError(KindBackend, "backend returned status %d: %s", status, snippet(raw)))
		}
		return Result{
			Status:  status,
			Payload: map[string]interface{}{"raw_response": string(raw), "status_code": status},
			Outcome: OutcomeSuccess,
		}
	}

	if obj, ok := payload.(map[string]interface{}); ok {
		if msg, ok := obj["error"]; ok {
			res := errResult(status, newError(KindBackend, "%v", msg))
			res.Payload = payload
			return res
		}
		if success && len(obj) == 0 && r.ListingOps[operation] {
			return errResult(status, newError(KindEmpty,
				"backend returned an empty object for a listing operation; indistinguishable from a failure"))
		}
	}

	if !success {
		res := errResult(status, newError(KindBackend, "backend returned status %d: %s", status, snippet(raw)))
		res.Payload = payload
		return res
	}
	return Result{Status: status, Payload: payload, Outcome: OutcomeSuccess}
}

func classifyTransport(err error) *Error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindTransport, "request timed out")
	case errors.As(err, &netErr) && netErr.Timeout():
		return newError(KindTransport, "request timed out")
	default:
		return newError(KindTransport, "connection to backend failed: %v", err)
	}
}

func (c *Client) emitAudit(meta CallMeta, resource, operation, method string, query url.Values, body map[string]interface{}, res Result, elapsed time.Duration) {
	if c.audit == nil {
		return
	}
	payload, _ := json.Marshal(map[string]interface{}{"query": query, "body": body})
	ev := AuditEvent{
		ThreadID:       meta.ThreadID,
		UserID:         meta.UserID,
		Tool:           meta.Tool,
		Endpoint:       resource,
		Operation:      operation,
		Method:         method,
		RequestPayload: payload,
		ResponseStatus: res.Status,
		Success:        res.Outcome == OutcomeSuccess,
		DurationMs:     elapsed.Milliseconds(),
		At:             time.Now().UTC(),
	}
	if res.Err != nil {
		ev.ErrorText = res.Err.Error()
	}
	// fire-and-forget: the audit write must never block or alter the call
	// result, but a swallowed failure still gets ops-facing logging
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.audit.RecordCall(ctx, ev); err != nil {
			c.logger.Printf("audit write failed for %s/%s: %v", resource, operation, err)
		}
	}()
}

func errResult(status int, e *Error) Result {
	return Result{Status: status, Outcome: OutcomeError, Err: e}
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	if len(s) > 300 {
		s = s[:300] + "..."
	}
	return s
}
