package erp

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return v
}

func TestProjectBareList(t *testing.T) {
	payload := decode(t, `[
		{"id": "1", "name": "Ana", "phone": "300"},
		{"id": "2", "name": "Luis", "phone": "301"}
	]`)
	out := Project(payload, []string{"id", "name"})
	records, ok := out.([]interface{})
	if !ok {
		t.Fatalf("bare list shape not preserved: %T", out)
	}
	for _, raw := range records {
		rec := raw.(map[string]interface{})
		if _, ok := rec["phone"]; ok {
			t.Fatal("projection leaked a key outside the field spec")
		}
		if len(rec) != 2 {
			t.Fatalf("expected 2 keys, got %v", rec)
		}
	}
}

func TestProjectResultsEnvelope(t *testing.T) {
	payload := decode(t, `{
		"pagination": {"total_results": 2, "page": 1},
		"results": [{"id": "1", "name": "Ana", "extra": true}]
	}`)
	out := Project(payload, []string{"id"})
	obj := out.(map[string]interface{})
	if _, ok := obj["pagination"]; !ok {
		t.Fatal("pagination metadata lost")
	}
	rec := obj["results"].([]interface{})[0].(map[string]interface{})
	if !reflect.DeepEqual(rec, map[string]interface{}{"id": "1"}) {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestProjectDataEnvelope(t *testing.T) {
	payload := decode(t, `{
		"success": true,
		"data": {"results": [{"id": "1", "name": "Ana"}], "pagination": {"page": 1}}
	}`)
	out := Project(payload, []string{"name"})
	obj := out.(map[string]interface{})
	if obj["success"] != true {
		t.Fatal("success flag lost")
	}
	data := obj["data"].(map[string]interface{})
	if _, ok := data["pagination"]; !ok {
		t.Fatal("nested pagination lost")
	}
	rec := data["results"].([]interface{})[0].(map[string]interface{})
	if rec["name"] != "Ana" || len(rec) != 1 {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestProjectAliasAndMonetaryFallback(t *testing.T) {
	// no direct created_at or total keys anywhere
	payload := decode(t, `{
		"metadata": {"created": "2024-01-01"},
		"items": [{"value": 50}, {"value": 50}]
	}`)
	out := Project(payload, []string{"created_at", "total"})
	rec := out.(map[string]interface{})
	if rec["created_at"] != "2024-01-01" {
		t.Fatalf("created_at alias unresolved: %v", rec)
	}
	if rec["total"] != float64(100) {
		t.Fatalf("total fallback = %v, want 100", rec["total"])
	}
}

func TestProjectMonetaryPrefersDirectThenPayment(t *testing.T) {
	direct := decode(t, `{"total": 7, "payment": {"value": 3}, "items": [{"value": 1}]}`)
	if rec := Project(direct, []string{"total"}).(map[string]interface{}); rec["total"] != float64(7) {
		t.Fatalf("direct total not preferred: %v", rec)
	}
	viaPayment := decode(t, `{"payment": {"value": 3}, "items": [{"value": 1}]}`)
	if rec := Project(viaPayment, []string{"total"}).(map[string]interface{}); rec["total"] != float64(3) {
		t.Fatalf("payment fallback skipped: %v", rec)
	}
}

func TestProjectDottedPath(t *testing.T) {
	payload := decode(t, `{"customer": {"identification": "900123456", "name": "ACME"}}`)
	rec := Project(payload, []string{"customer.identification"}).(map[string]interface{})
	if rec["customer.identification"] != "900123456" {
		t.Fatalf("dotted path unresolved: %v", rec)
	}
}

func TestProjectUnresolvedFieldsOmitted(t *testing.T) {
	payload := decode(t, `{"id": "1"}`)
	rec := Project(payload, []string{"id", "stamp", "cufe", "dian_status"}).(map[string]interface{})
	if len(rec) != 1 || rec["id"] != "1" {
		t.Fatalf("unresolved fields must be silently omitted: %v", rec)
	}
}

func TestProjectNonObjectRecordsPassThrough(t *testing.T) {
	payload := decode(t, `["a", 2, {"id": "3", "x": 1}]`)
	records := Project(payload, []string{"id"}).([]interface{})
	if records[0] != "a" || records[1] != float64(2) {
		t.Fatalf("scalar records altered: %v", records)
	}
	if rec := records[2].(map[string]interface{}); rec["id"] != "3" || len(rec) != 1 {
		t.Fatalf("object record not projected: %v", rec)
	}
}

func TestProjectEmptyFieldSpecIsIdentity(t *testing.T) {
	payload := decode(t, `{"results": [{"id": "1", "name": "Ana"}]}`)
	if out := Project(payload, nil); !reflect.DeepEqual(out, payload) {
		t.Fatalf("empty spec must not modify payload: %v", out)
	}
}
