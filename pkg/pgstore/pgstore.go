// Package pgstore provides the PostgreSQL-backed implementations of
// entigraph's three persistence contracts: [entity.Store], [ontology.Catalog],
// and [deletion.TombstoneStore]. A single [pgxpool.Pool] backs all three,
// mirroring the teacher's pkg/memory/postgres.Store, which holds one pool
// behind several per-concern method sets (L1/L2/L3).
//
// Unlike the teacher's store, pgstore has no vector extension or embedding
// dimension to register — entigraph's domain is the bitemporal entity graph,
// not retrieval-augmented memory — so NewPool skips the pgvector
// AfterConnect hook and Migrate installs no extensions.
//
// Every store additionally accepts a [dbPool], which either the raw
// [pgxpool.Pool] or a [BreakerPool] satisfies. Wrapping the pool in a
// BreakerPool gives every query and transaction the same three-state circuit
// breaker (internal/resilience) the rest of the ambient stack uses: a
// stretch of failing queries trips the breaker so the store fails fast with
// [ErrBackendUnavailable] instead of stacking up retries against a
// PostgreSQL that is already down.
//
// Usage:
//
//	pool, err := pgstore.NewPool(ctx, dsn)
//	if err != nil { … }
//	defer pool.Close()
//
//	guarded := pgstore.NewBreakerPool(pool, resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{Name: "postgres"}))
//	entities := pgstore.NewEntityStore(guarded, auth)
//	catalog := pgstore.NewOntologyStore(guarded, resolver)
//	tombstones := pgstore.NewTombstoneStore(guarded)
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/entigraph/internal/config"
	"github.com/MrWong99/entigraph/internal/health"
	"github.com/MrWong99/entigraph/internal/resilience"
)

// dbPool is the subset of *pgxpool.Pool's surface every store in this
// package calls on its pool field: single-statement exec/query plus the
// ability to open an explicit transaction for the multi-statement
// operations (PatchEntity, OntologyStore.Create/Update). Abstracting it lets
// a store be handed either a raw pool or a [BreakerPool] without changing a
// single query.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ dbPool = (*pgxpool.Pool)(nil)

// ErrBackendUnavailable wraps [resilience.ErrCircuitOpen] for callers that
// only know pgstore's vocabulary, not internal/resilience's.
var ErrBackendUnavailable = errors.New("pgstore: backend unavailable")

// BreakerPool wraps a [dbPool] with a [resilience.CircuitBreaker], tripping
// open after a run of consecutive failures so a dying PostgreSQL fails every
// store operation immediately (spec §5's cancellation model already expects
// a store operation to return a retriable error promptly; a breaker turns
// "the database is down" into the same shape of failure as "the request was
// cancelled" instead of a long hang).
type BreakerPool struct {
	pool    dbPool
	breaker *resilience.CircuitBreaker
}

var _ dbPool = (*BreakerPool)(nil)

// NewBreakerPool wraps pool with breaker. A nil breaker is not valid; callers
// that don't want breaker behaviour should pass the raw pool to the store
// constructors directly instead of wrapping it.
func NewBreakerPool(pool dbPool, breaker *resilience.CircuitBreaker) *BreakerPool {
	return &BreakerPool{pool: pool, breaker: breaker}
}

func (b *BreakerPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	var tag pgconn.CommandTag
	err := b.breaker.Execute(func() error {
		var execErr error
		tag, execErr = b.pool.Exec(ctx, sql, args...)
		return execErr
	})
	return tag, wrapBreakerErr(err)
}

func (b *BreakerPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	var rows pgx.Rows
	err := b.breaker.Execute(func() error {
		var queryErr error
		rows, queryErr = b.pool.Query(ctx, sql, args...)
		return queryErr
	})
	return rows, wrapBreakerErr(err)
}

// QueryRow is not run through the breaker: pgx's QueryRow never itself
// returns an error, it defers the query to the eventual Scan call, which
// this interface has no hook into. Single-row fetches made through QueryRow
// on the pool (such as OntologyStore.getTx's row lookup) are therefore not
// guarded by the breaker; Query, Exec and Begin are.
func (b *BreakerPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return b.pool.QueryRow(ctx, sql, args...)
}

func (b *BreakerPool) Begin(ctx context.Context) (pgx.Tx, error) {
	var tx pgx.Tx
	err := b.breaker.Execute(func() error {
		var beginErr error
		tx, beginErr = b.pool.Begin(ctx)
		return beginErr
	})
	return tx, wrapBreakerErr(err)
}

func wrapBreakerErr(err error) error {
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return fmt.Errorf("%w: %s", ErrBackendUnavailable, err)
	}
	return err
}

// NewPool opens a connection pool to dsn, pings it, and runs [Migrate] so
// that every table pgstore needs exists before the pool is returned.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	return newPoolFromPgxConfig(ctx, cfg)
}

// NewPoolFromConfig opens a connection pool using an [config.PostgresConfig]
// loaded from a server config file, applying MaxConns when set. It otherwise
// behaves exactly like [NewPool].
func NewPoolFromConfig(ctx context.Context, pg config.PostgresConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgstore: parse dsn: %w", err)
	}
	if pg.MaxConns > 0 {
		cfg.MaxConns = pg.MaxConns
	}
	return newPoolFromPgxConfig(ctx, cfg)
}

func newPoolFromPgxConfig(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pgstore: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgstore: migrate: %w", err)
	}

	return pool, nil
}

// PoolChecker returns a [health.Checker] that reports healthy when pool
// responds to a ping, for wiring into a process's readiness aggregation
// alongside any other backend the process depends on.
func PoolChecker(pool *pgxpool.Pool) health.Checker {
	return health.Checker{
		Name: "postgres",
		Check: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
	}
}
