package erp

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// Resolve maps a caller-facing operation name to the HTTP method and the
// operation name the backend expects. Alias translation runs first, then the
// normalized name is checked against the resource's supported set: an
// operation the backend never implemented is a local capability error, not a
// silent GET. Pure and idempotent.
func Resolve(resource, operation string) (method string, normalized string, err *Error) {
	r, ok := Lookup(resource)
	if !ok {
		return "", "", newError(KindUnsupported, "unknown resource %q", resource)
	}
	normalized = strings.ToLower(strings.TrimSpace(operation))
	if alias, ok := r.Aliases[normalized]; ok {
		normalized = alias
	}
	if !r.Operations[normalized] {
		return "", "", newError(KindUnsupported,
			"operation %q is not supported on %s; supported: %s",
			operation, resource, strings.Join(sortedOps(r.Operations), ", "))
	}
	return methodFor(normalized), normalized, nil
}

// methodFor classifies an operation name into an HTTP verb. Name-pattern
// based on purpose: the same verb semantics recur identically across every
// resource family.
func methodFor(op string) string {
	switch {
	case strings.HasPrefix(op, "crear"), op == "enviar_mail":
		return http.MethodPost
	case op == "editar":
		return http.MethodPut
	case op == "eliminar", op == "anular":
		return http.MethodDelete
	default:
		return http.MethodGet
	}
}

// filter key pairs per family
var (
	createdKeys  = [2]string{"created_start", "created_end"}
	documentKeys = [2]string{"date_start", "date_end"}
	dueKeys      = [2]string{"due_date_start", "due_date_end"}
)

// MirrorDateFilters hides the backend's inconsistent date-range naming: for
// list operations, whichever family the caller supplied is copied into the
// resource's own keys (and vice versa), so either naming works everywhere.
// Query is modified in place.
func MirrorDateFilters(resource, operation string, query url.Values) {
	r, ok := Lookup(resource)
	if !ok || !r.ListingOps[operation] {
		return
	}
	var native [2]string
	switch r.DateFilter {
	case FilterDocumentDate:
		native = documentKeys
	case FilterDueDate:
		native = dueKeys
	default:
		// created_* is already the generic family; nothing to mirror.
		return
	}
	for i := 0; i < 2; i++ {
		if v := query.Get(createdKeys[i]); v != "" && query.Get(native[i]) == "" {
			query.Set(native[i], v)
		}
		if v := query.Get(native[i]); v != "" && query.Get(createdKeys[i]) == "" {
			query.Set(createdKeys[i], v)
		}
	}
}

func sortedOps(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for op := range m {
		out = append(out, op)
	}
	sort.Strings(out)
	return out
}
