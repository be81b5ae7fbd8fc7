package erp

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// balanceEpsilon is the currency tolerance for the double-entry check.
const balanceEpsilon = 0.01

// ValidationError itemizes every defect found in a write body so the caller
// can fix them all in one round trip. Totals are populated only when the
// body was structurally sound enough to compute them.
type ValidationError struct {
	Defects     []string `json:"defects"`
	DebitTotal  float64  `json:"debit_total,omitempty"`
	CreditTotal float64  `json:"credit_total,omitempty"`
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Defects, "; ")
}

type validateFunc func(body map[string]interface{}) *ValidationError

// writeValidators registers pre-flight checks for resources whose write
// operations carry cross-field invariants. Registered checks run strictly
// before any network call; there are no partial writes on invalid input.
var writeValidators = map[string]map[string]validateFunc{
	"comprobantes_contables": {"crear": validateVoucher},
}

// ValidateBeforeWrite returns nil when no validator applies or the body
// passes. Operation must already be normalized by Resolve.
func ValidateBeforeWrite(resource, operation string, body map[string]interface{}) *ValidationError {
	byOp, ok := writeValidators[resource]
	if !ok {
		return nil
	}
	fn, ok := byOp[operation]
	if !ok {
		return nil
	}
	return fn(body)
}

// validateVoucher enforces the double-entry rule for accounting voucher
// creation: structural checks first, then debit total == credit total within
// the epsilon. A mismatch reports both computed totals so the caller can
// self-correct without re-querying.
func validateVoucher(body map[string]interface{}) *ValidationError {
	var defects []string

	if _, ok := body["document"].(map[string]interface{}); !ok {
		defects = append(defects, "missing required field: document (with document type id)")
	}
	if s, ok := body["date"].(string); !ok || strings.TrimSpace(s) == "" {
		defects = append(defects, "missing required field: date")
	}
	items, ok := body["items"].([]interface{})
	if !ok || len(items) == 0 {
		defects = append(defects, "missing required field: items (at least one entry)")
		return &ValidationError{Defects: defects}
	}

	var debit, credit float64
	for i, raw := range items {
		itemOK := true
		item, ok := raw.(map[string]interface{})
		if !ok {
			defects = append(defects, fmt.Sprintf("items[%d]: not an object", i))
			continue
		}
		account, _ := item["account"].(map[string]interface{})
		if account == nil {
			defects = append(defects, fmt.Sprintf("items[%d]: missing account", i))
			continue
		}
		code, _ := account["code"].(string)
		if strings.TrimSpace(code) == "" {
			defects = append(defects, fmt.Sprintf("items[%d]: missing account.code", i))
			itemOK = false
		}
		movement, _ := account["movement"].(string)
		if movement != "Debit" && movement != "Credit" {
			defects = append(defects, fmt.Sprintf("items[%d]: account.movement must be Debit or Credit", i))
			itemOK = false
		}
		value, ok := asFloat(item["value"])
		if !ok || value <= 0 {
			defects = append(defects, fmt.Sprintf("items[%d]: value must be a positive number", i))
			itemOK = false
		}
		if !itemOK {
			continue
		}
		switch movement {
		case "Debit":
			debit += value
		case "Credit":
			credit += value
		}
	}
	// Structural defects short-circuit before the balance comparison.
	if len(defects) > 0 {
		return &ValidationError{Defects: defects}
	}

	if math.Abs(debit-credit) > balanceEpsilon {
		return &ValidationError{
			Defects: []string{fmt.Sprintf(
				"voucher is out of balance: debit total %.2f != credit total %.2f", debit, credit)},
			DebitTotal:  debit,
			CreditTotal: credit,
		}
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
