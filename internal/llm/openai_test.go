package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCompleteSendsToolsAndParsesToolCalls(t *testing.T) {
	var captured chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"choices": [{
				"message": {
					"role": "assistant",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "erp_customers", "arguments": "{\"operation\":\"listar\"}"}
					}]
				},
				"finish_reason": "tool_calls"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 12, "total_tokens": 52}
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "gpt-4o", 0.2, 800, time.Second).WithAPIURL(srv.URL)
	schema := json.RawMessage(`{"type":"object","properties":{"operation":{"type":"string"}}}`)
	comp, err := p.Complete(context.Background(),
		[]Message{{Role: RoleUser, Content: "list my customers"}},
		[]ToolDef{{Name: "erp_customers", Description: "customer operations", Parameters: schema}})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if captured.Model != "gpt-4o" {
		t.Fatalf("model = %q", captured.Model)
	}
	if len(captured.Tools) != 1 || captured.Tools[0].Type != "function" || captured.Tools[0].Function.Name != "erp_customers" {
		t.Fatalf("tools not wrapped: %+v", captured.Tools)
	}

	if len(comp.Message.ToolCalls) != 1 {
		t.Fatalf("tool calls = %+v", comp.Message.ToolCalls)
	}
	tc := comp.Message.ToolCalls[0]
	if tc.ID != "call_1" || tc.Function.Name != "erp_customers" {
		t.Fatalf("tool call = %+v", tc)
	}
	if comp.Usage.TotalTokens != 52 {
		t.Fatalf("usage = %+v", comp.Usage)
	}
}

func TestCompleteFinalText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"You have 3 customers."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", "gpt-4o", 0, 0, time.Second).WithAPIURL(srv.URL)
	comp, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if comp.Message.Content != "You have 3 customers." {
		t.Fatalf("content = %q", comp.Message.Content)
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("bad", "gpt-4o", 0, 0, time.Second).WithAPIURL(srv.URL)
	_, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil)
	if err == nil {
		t.Fatal("expected API error")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("k", "gpt-4o", 0, 0, time.Second).WithAPIURL(srv.URL)
	if _, err := p.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}}, nil); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
