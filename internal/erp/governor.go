package erp

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// TruncationMarker is appended when a payload had to be cut mid-stream.
const TruncationMarker = "\n... (response truncated)"

// DefaultResponseBudget bounds the serialized size of a tool response fed
// back to the model.
const DefaultResponseBudget = 15000

// Bound serializes payload and guarantees the result never exceeds max plus
// the truncation marker. A paged-list envelope is degraded gracefully first:
// trailing records are dropped one at a time (floor of one) with pagination
// metadata and a "showing K of N" annotation retained. Anything still over
// budget is hard-truncated; staying inside the transport/context budget
// outranks payload completeness here.
func Bound(payload interface{}, max int) string {
	if max <= 0 {
		max = DefaultResponseBudget
	}
	full := marshal(payload)
	if len(full) <= max {
		return full
	}

	if env, ok := ParseEnvelope(payload); ok && len(env.Records) > 0 {
		total := len(env.Records)
		if known, ok := env.TotalKnown(); ok {
			total = known
		}
		records := env.Records
		for len(records) > 1 {
			records = records[:len(records)-1]
			note := fmt.Sprintf("showing %d of %d records", len(records), total)
			attempt := marshal(env.Wrap(records, map[string]interface{}{"_note": note}))
			if len(attempt) <= max {
				return attempt
			}
		}
		note := fmt.Sprintf("showing 1 of %d records (request fewer fields or a smaller page_size)", total)
		full = marshal(env.Wrap(records, map[string]interface{}{"_note": note}))
		if len(full) <= max {
			return full
		}
	}

	// back off to a rune boundary so a multi-byte character is never split
	cut := max
	for cut > 0 && !utf8.RuneStart(full[cut]) {
		cut--
	}
	return full[:cut] + TruncationMarker
}

func marshal(payload interface{}) string {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		// arbitrary JSON values from encoding/json never fail to re-encode;
		// guard anyway so the governor can't take the turn down
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(b)
}
