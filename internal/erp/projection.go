package erp

import "strings"

// fieldAliases map recognized synonyms to the nested locations that actually
// hold them. Paths are tried in order.
var fieldAliases = map[string][]string{
	"created_at": {"metadata.created", "metadata.created_at"},
	"updated_at": {"metadata.last_updated", "metadata.updated_at"},
}

// Project reduces each record of a collection (or a single record) to the
// requested fields. The response envelope is unwrapped and re-applied
// transparently, so callers never need to know which shape the backend used.
// Requested fields that resolve nowhere are silently omitted: callers may
// ask for an optimistic superset across resource types.
func Project(payload interface{}, fields []string) interface{} {
	if len(fields) == 0 {
		return payload
	}
	if env, ok := ParseEnvelope(payload); ok {
		projected := make([]interface{}, len(env.Records))
		for i, rec := range env.Records {
			projected[i] = projectRecord(rec, fields)
		}
		return env.Wrap(projected, nil)
	}
	if rec, ok := payload.(map[string]interface{}); ok {
		return projectRecord(rec, fields)
	}
	return payload
}

// projectRecord resolves each requested field against one record. Non-object
// records pass through unchanged.
func projectRecord(raw interface{}, fields []string) interface{} {
	rec, ok := raw.(map[string]interface{})
	if !ok {
		return raw
	}
	out := make(map[string]interface{}, len(fields))
	for _, field := range fields {
		if v, ok := resolveField(rec, field); ok {
			out[field] = v
		}
	}
	return out
}

// resolveField applies the resolution order: exact top-level key, dotted
// path traversal, alias table, then the monetary fallback for total/value.
func resolveField(rec map[string]interface{}, field string) (interface{}, bool) {
	if v, ok := rec[field]; ok {
		return v, true
	}
	if strings.Contains(field, ".") {
		if v, ok := lookupPath(rec, field); ok {
			return v, true
		}
	}
	for _, path := range fieldAliases[field] {
		if v, ok := lookupPath(rec, path); ok {
			return v, true
		}
	}
	if field == "total" || field == "value" {
		return resolveMonetary(rec)
	}
	return nil, false
}

// resolveMonetary falls back through the places the backend reports a
// document's monetary value: a direct total field, the nested payment
// amount, then the sum of line-item amounts.
func resolveMonetary(rec map[string]interface{}) (interface{}, bool) {
	if v, ok := rec["total"]; ok {
		return v, true
	}
	if v, ok := lookupPath(rec, "payment.value"); ok {
		return v, true
	}
	items, ok := rec["items"].([]interface{})
	if !ok || len(items) == 0 {
		return nil, false
	}
	var sum float64
	var found bool
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := asFloat(item["value"]); ok {
			sum += v
			found = true
		}
	}
	if !found {
		return nil, false
	}
	return sum, true
}

func lookupPath(rec map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = rec
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
