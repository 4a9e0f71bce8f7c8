// Package observe provides application-wide observability primitives for
// entigraph: OpenTelemetry metrics, distributed tracing, and structured
// logging that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all entigraph metrics.
const meterName = "github.com/MrWong99/entigraph"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Query planner latency ---

	// QueryDuration tracks end-to-end filter-query execution latency,
	// partitioned by resource kind and plan shape (attribute "resource",
	// "shape" where shape is one of "scan", "index", "cursor").
	QueryDuration metric.Float64Histogram

	// PlanCompileDuration tracks the time spent compiling a Filter/Path
	// expression into a relational plan, before any round trip to Postgres.
	PlanCompileDuration metric.Float64Histogram

	// --- Subgraph resolution ---

	// SubgraphResolveDuration tracks the wall-clock time to resolve a
	// subgraph from its roots, partitioned by whether traversal paths were
	// present (attribute "mode": "depths", "paths", "union").
	SubgraphResolveDuration metric.Float64Histogram

	// SubgraphFrontierSize records the number of vertices visited at each
	// BFS frontier step, letting operators see how resolve-depths budgets
	// translate into actual graph fan-out.
	SubgraphFrontierSize metric.Int64Histogram

	// SubgraphDepthReached is a gauge-like histogram of the maximum BFS
	// depth actually reached before a resolve-depths budget exhausted.
	SubgraphDepthReached metric.Int64Histogram

	// --- Authorization ---

	// PolicyEvalDuration tracks the latency of projecting a principal's
	// policies into a combined filter expression.
	PolicyEvalDuration metric.Float64Histogram

	// PolicyCacheHits counts policy projection cache hits and misses. Use
	// with attribute.String("result", "hit"|"miss").
	PolicyCacheHits metric.Int64Counter

	// AuthorizationDenied counts authorization checks that resolved to
	// deny, partitioned by attribute.String("action", ...) and
	// attribute.String("resource_kind", ...).
	AuthorizationDenied metric.Int64Counter

	// --- Entity and ontology operations ---

	// EntityOperations counts entity CRUD operations. Use with
	// attribute.String("op", "create"|"update"|"archive"|"delete") and
	// attribute.String("status", "ok"|"error").
	EntityOperations metric.Int64Counter

	// OntologyOperations counts ontology catalog writes. Use with
	// attribute.String("kind", "data_type"|"property_type"|"entity_type")
	// and attribute.String("status", "ok"|"error").
	OntologyOperations metric.Int64Counter

	// DeletionsPerformed counts entities removed by the deletion
	// coordinator, partitioned by attribute.String("draft", "true"|"false").
	DeletionsPerformed metric.Int64Counter

	// --- Backend ---

	// PostgresQueryDuration tracks latency of individual round trips to
	// the backing Postgres pool, partitioned by attribute.String("query", ...)
	// naming the prepared statement or plan stage.
	PostgresQueryDuration metric.Float64Histogram

	// PostgresPoolAcquireDuration tracks the time spent waiting for a
	// connection from the pgxpool.
	PostgresPoolAcquireDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) suited to
// interactive query and subgraph-resolution latencies.
var latencyBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.QueryDuration, err = m.Float64Histogram("entigraph.query.duration",
		metric.WithDescription("Latency of filter query execution by resource kind and plan shape."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PlanCompileDuration, err = m.Float64Histogram("entigraph.query.plan_compile.duration",
		metric.WithDescription("Latency of compiling a Filter/Path expression into a relational plan."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SubgraphResolveDuration, err = m.Float64Histogram("entigraph.subgraph.resolve.duration",
		metric.WithDescription("Latency of subgraph resolution from its roots."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SubgraphFrontierSize, err = m.Int64Histogram("entigraph.subgraph.frontier_size",
		metric.WithDescription("Number of vertices visited at each BFS frontier step."),
	); err != nil {
		return nil, err
	}
	if met.SubgraphDepthReached, err = m.Int64Histogram("entigraph.subgraph.depth_reached",
		metric.WithDescription("Maximum BFS depth reached before a resolve-depths budget exhausted."),
	); err != nil {
		return nil, err
	}
	if met.PolicyEvalDuration, err = m.Float64Histogram("entigraph.authz.policy_eval.duration",
		metric.WithDescription("Latency of projecting a principal's policies into a combined filter expression."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PolicyCacheHits, err = m.Int64Counter("entigraph.authz.policy_cache",
		metric.WithDescription("Policy projection cache hits and misses."),
	); err != nil {
		return nil, err
	}
	if met.AuthorizationDenied, err = m.Int64Counter("entigraph.authz.denied",
		metric.WithDescription("Authorization checks that resolved to deny, by action and resource kind."),
	); err != nil {
		return nil, err
	}
	if met.EntityOperations, err = m.Int64Counter("entigraph.entity.operations",
		metric.WithDescription("Entity CRUD operations by op and status."),
	); err != nil {
		return nil, err
	}
	if met.OntologyOperations, err = m.Int64Counter("entigraph.ontology.operations",
		metric.WithDescription("Ontology catalog writes by kind and status."),
	); err != nil {
		return nil, err
	}
	if met.DeletionsPerformed, err = m.Int64Counter("entigraph.deletion.performed",
		metric.WithDescription("Entities removed by the deletion coordinator."),
	); err != nil {
		return nil, err
	}
	if met.PostgresQueryDuration, err = m.Float64Histogram("entigraph.postgres.query.duration",
		metric.WithDescription("Latency of individual round trips to the backing Postgres pool."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PostgresPoolAcquireDuration, err = m.Float64Histogram("entigraph.postgres.pool_acquire.duration",
		metric.WithDescription("Time spent waiting for a connection from the pgxpool."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordEntityOperation is a convenience method that records an entity
// operation counter increment with the standard attribute set.
func (m *Metrics) RecordEntityOperation(ctx context.Context, op, status string) {
	m.EntityOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("status", status),
		),
	)
}

// RecordOntologyOperation is a convenience method that records an ontology
// catalog write counter increment.
func (m *Metrics) RecordOntologyOperation(ctx context.Context, kind, status string) {
	m.OntologyOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordAuthorizationDenied is a convenience method that records a denied
// authorization check.
func (m *Metrics) RecordAuthorizationDenied(ctx context.Context, action, resourceKind string) {
	m.AuthorizationDenied.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("resource_kind", resourceKind),
		),
	)
}

// RecordPolicyCacheResult is a convenience method that records a policy
// projection cache hit or miss.
func (m *Metrics) RecordPolicyCacheResult(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PolicyCacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordDeletion is a convenience method that records a deletion performed by
// the deletion coordinator.
func (m *Metrics) RecordDeletion(ctx context.Context, draft bool) {
	m.DeletionsPerformed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("draft", boolString(draft))),
	)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
