// Package health provides a programmatic readiness-check aggregator used by
// entigraph's storage layer (pkg/pgstore) to report whether its backing
// pgxpool connection is reachable. Unlike the teacher's HTTP-handler
// surface, entigraph has no outward-facing health endpoint of its own (that
// concern belongs to whatever embeds pkg/pgstore); this package only
// evaluates [Checker] functions and returns a structured [Report], leaving
// the caller free to expose it however it likes (an HTTP route, a CLI
// subcommand, a periodic log line).
package health

import (
	"context"
	"time"
)

// checkTimeout is the maximum time a single check may take before its
// context is cancelled.
const checkTimeout = 5 * time.Second

// Checker is a named health check function. Check should return nil when the
// dependency is healthy and a non-nil error describing the failure
// otherwise.
type Checker struct {
	// Name is a short, human-readable label for this check (e.g. "postgres").
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// CheckResult is the outcome of evaluating a single [Checker].
type CheckResult struct {
	Name string
	Err  error
}

// OK reports whether the check passed.
func (r CheckResult) OK() bool { return r.Err == nil }

// Report is the aggregate outcome of [Evaluate].
type Report struct {
	Healthy bool
	Checks  []CheckResult
}

// Evaluate runs every checker in order, each against a context bounded by
// [checkTimeout] and derived from ctx, and folds the results into a Report.
// Checkers run sequentially rather than concurrently so that a slow check
// doesn't race its neighbours' logging; entigraph only ever registers a
// handful of checks (one pool ping per store backend).
func Evaluate(ctx context.Context, checkers ...Checker) Report {
	results := make([]CheckResult, 0, len(checkers))
	healthy := true

	for _, c := range checkers {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := c.Check(checkCtx)
		cancel()

		results = append(results, CheckResult{Name: c.Name, Err: err})
		if err != nil {
			healthy = false
		}
	}

	return Report{Healthy: healthy, Checks: results}
}
