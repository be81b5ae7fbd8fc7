package erp

import (
	"context"
	"net/url"
	"strconv"
)

// DefaultPageSize matches the backend default for list operations.
const DefaultPageSize = 25

// DefaultPageCeiling caps a fetch-all loop. Safety valve against backends
// that never signal termination.
const DefaultPageCeiling = 20

// Fetcher is the slice of Client the paginator needs.
type Fetcher interface {
	Call(ctx context.Context, meta CallMeta, resource, operation, method string, query url.Values, body map[string]interface{}) Result
}

// FetchAll drives sequential page fetches until the record set is complete.
// It stops once the known total is reached or a page comes back short, and
// never goes past the page ceiling. Pages are fetched strictly in order so
// backend ordering is preserved and an error can terminate the loop early.
// Any backend error supersedes whatever was accumulated before it.
//
// The consolidated set is re-wrapped in the envelope shape of the first
// page, so downstream projection and size-bounding stay shape-agnostic.
func FetchAll(ctx context.Context, f Fetcher, meta CallMeta, resource, operation string, query url.Values, pageSize, maxPages int) Result {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if maxPages <= 0 {
		maxPages = DefaultPageCeiling
	}

	base := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			base.Add(k, v)
		}
	}
	base.Set("page_size", strconv.Itoa(pageSize))

	page := 1
	if v := query.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	var all []interface{}
	var firstEnv Envelope
	var lastStatus int

	for fetched := 0; fetched < maxPages; fetched++ {
		base.Set("page", strconv.Itoa(page))
		res := f.Call(ctx, meta, resource, operation, "GET", base, nil)
		if res.Outcome != OutcomeSuccess {
			return res
		}
		lastStatus = res.Status

		env, ok := ParseEnvelope(res.Payload)
		if !ok {
			// non-collection response: nothing to assemble, hand it back
			return res
		}
		if fetched == 0 {
			firstEnv = env
		}
		all = append(all, env.Records...)

		if total, ok := env.TotalKnown(); ok && len(all) >= total {
			break
		}
		if len(env.Records) < pageSize {
			break
		}
		page++
	}

	consolidated := firstEnv
	consolidated.Pagination = map[string]interface{}{
		"total_results": len(all),
		"page":          1,
		"page_size":     len(all),
	}
	return Result{
		Status:  lastStatus,
		Payload: consolidated.Wrap(all, nil),
		Outcome: OutcomeSuccess,
	}
}
