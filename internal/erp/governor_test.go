package erp

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

func pagedPayload(t *testing.T, records int, fieldLen int) interface{} {
	t.Helper()
	results := make([]interface{}, 0, records)
	for i := 0; i < records; i++ {
		results = append(results, map[string]interface{}{
			"id":   fmt.Sprintf("rec-%03d", i),
			"blob": strings.Repeat("x", fieldLen),
		})
	}
	return map[string]interface{}{
		"pagination": map[string]interface{}{"total_results": float64(records), "page": float64(1)},
		"results":    results,
	}
}

func TestBoundWithinBudgetUntouched(t *testing.T) {
	payload := pagedPayload(t, 2, 10)
	out := Bound(payload, 10000)
	if strings.Contains(out, "_note") || strings.Contains(out, TruncationMarker) {
		t.Fatal("payload within budget must not be modified")
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
}

func TestBoundDropsTrailingRecords(t *testing.T) {
	payload := pagedPayload(t, 20, 100)
	out := Bound(payload, 2000)
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		t.Fatalf("degraded output not valid JSON: %v", err)
	}
	results := parsed["results"].([]interface{})
	if len(results) == 0 || len(results) >= 20 {
		t.Fatalf("expected a reduced, non-empty record set, got %d", len(results))
	}
	// records drop from the tail: the first record always survives
	first := results[0].(map[string]interface{})
	if first["id"] != "rec-000" {
		t.Fatalf("record order broken: %v", first["id"])
	}
	if _, ok := parsed["pagination"]; !ok {
		t.Fatal("pagination metadata lost during degradation")
	}
	note, _ := parsed["_note"].(string)
	if !strings.Contains(note, "of 20 records") {
		t.Fatalf("missing showing-K-of-N note: %q", note)
	}
}

func TestBoundHardTruncation(t *testing.T) {
	// single record too large to ever fit
	payload := pagedPayload(t, 1, 5000)
	max := 400
	out := Bound(payload, max)
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Fatal("expected truncation marker")
	}
	if len(out) > max+len(TruncationMarker) {
		t.Fatalf("output %d exceeds budget %d + marker %d", len(out), max, len(TruncationMarker))
	}
}

func TestBoundLengthProperty(t *testing.T) {
	for _, max := range []int{100, 500, 2000, 8000} {
		for _, records := range []int{1, 3, 25} {
			out := Bound(pagedPayload(t, records, 120), max)
			if len(out) > max+len(TruncationMarker) {
				t.Fatalf("max=%d records=%d: output %d over budget", max, records, len(out))
			}
		}
	}
}

func TestBoundTruncatesOnRuneBoundary(t *testing.T) {
	payload := map[string]interface{}{
		"detalle": strings.Repeat("número de validación según año ", 60),
	}
	for max := 180; max < 220; max++ {
		out := Bound(payload, max)
		if !utf8.ValidString(out) {
			t.Fatalf("max=%d: truncation split a multi-byte character: %q", max, out)
		}
		if len(out) > max+len(TruncationMarker) {
			t.Fatalf("max=%d: output %d over budget", max, len(out))
		}
	}
}

func TestBoundNonEnvelopePayload(t *testing.T) {
	payload := map[string]interface{}{"blob": strings.Repeat("y", 1000)}
	out := Bound(payload, 200)
	if !strings.HasSuffix(out, TruncationMarker) {
		t.Fatal("non-envelope overflow must hard-truncate")
	}
	if len(out) > 200+len(TruncationMarker) {
		t.Fatalf("output %d over budget", len(out))
	}
}
