package erp

// The backend wraps record collections in one of three shapes depending on
// which version of a function answered:
//
//	[...]                                         bare list
//	{"results": [...], "pagination": {...}}       paged list
//	{"success": true, "data": {"results": ...}}   outer status wrapper
//
// Envelope captures the shape so consumers can unwrap, transform the records
// and re-wrap without knowing which variant they were handed.

type EnvelopeShape int

const (
	ShapeBare EnvelopeShape = iota
	ShapeResults
	ShapeData
)

type Envelope struct {
	Shape      EnvelopeShape
	Records    []interface{}
	Pagination map[string]interface{}
	Success    interface{} // retained verbatim for ShapeData
}

// ParseEnvelope recognizes the three collection shapes. ok is false for
// anything else (single records, scalars, error payloads).
func ParseEnvelope(payload interface{}) (Envelope, bool) {
	switch v := payload.(type) {
	case []interface{}:
		return Envelope{Shape: ShapeBare, Records: v}, true
	case map[string]interface{}:
		if results, ok := v["results"].([]interface{}); ok {
			env := Envelope{Shape: ShapeResults, Records: results}
			if p, ok := v["pagination"].(map[string]interface{}); ok {
				env.Pagination = p
			}
			return env, true
		}
		if data, ok := v["data"].(map[string]interface{}); ok {
			if results, ok := data["results"].([]interface{}); ok {
				env := Envelope{Shape: ShapeData, Records: results, Success: v["success"]}
				if p, ok := data["pagination"].(map[string]interface{}); ok {
					env.Pagination = p
				}
				return env, true
			}
		}
		return Envelope{}, false
	default:
		return Envelope{}, false
	}
}

// Wrap rebuilds the original shape around a (possibly modified) record slice.
// extra keys are merged into the top level of object shapes; for a bare list
// with extras the output is promoted to the paged-list shape so the
// annotation has somewhere to live.
func (e Envelope) Wrap(records []interface{}, extra map[string]interface{}) interface{} {
	switch e.Shape {
	case ShapeBare:
		if len(extra) == 0 {
			return records
		}
		out := map[string]interface{}{"results": records}
		for k, v := range extra {
			out[k] = v
		}
		return out
	case ShapeData:
		inner := map[string]interface{}{"results": records}
		if e.Pagination != nil {
			inner["pagination"] = e.Pagination
		}
		out := map[string]interface{}{"data": inner}
		if e.Success != nil {
			out["success"] = e.Success
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	default:
		out := map[string]interface{}{"results": records}
		if e.Pagination != nil {
			out["pagination"] = e.Pagination
		}
		for k, v := range extra {
			out[k] = v
		}
		return out
	}
}

// TotalKnown reports the backend's total_results count when present.
func (e Envelope) TotalKnown() (int, bool) {
	if e.Pagination == nil {
		return 0, false
	}
	if n, ok := asFloat(e.Pagination["total_results"]); ok {
		return int(n), true
	}
	return 0, false
}
