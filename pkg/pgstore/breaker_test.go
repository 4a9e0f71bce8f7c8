package pgstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrWong99/entigraph/internal/resilience"
	"github.com/MrWong99/entigraph/pkg/pgstore"
)

// fakePool is a minimal stand-in for *pgxpool.Pool that always fails,
// letting [pgstore.BreakerPool] be exercised without a real database.
type fakePool struct {
	execErr error
	calls   int
}

func (f *fakePool) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	f.calls++
	return pgconn.CommandTag{}, f.execErr
}

func (f *fakePool) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	f.calls++
	return nil, f.execErr
}

func (f *fakePool) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	f.calls++
	return nil
}

func (f *fakePool) Begin(_ context.Context) (pgx.Tx, error) {
	f.calls++
	return nil, f.execErr
}

func TestBreakerPool_TripsOpenAfterConsecutiveFailures(t *testing.T) {
	inner := &fakePool{execErr: errors.New("connection refused")}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "postgres-test",
		MaxFailures: 2,
	})
	pool := pgstore.NewBreakerPool(inner, breaker)

	for i := 0; i < 2; i++ {
		if _, err := pool.Exec(context.Background(), "SELECT 1"); err == nil {
			t.Fatalf("exec %d: expected failure", i)
		}
	}

	_, err := pool.Exec(context.Background(), "SELECT 1")
	if !errors.Is(err, pgstore.ErrBackendUnavailable) {
		t.Fatalf("got err %v, want ErrBackendUnavailable", err)
	}

	callsAtTrip := inner.calls
	if _, err := pool.Exec(context.Background(), "SELECT 1"); !errors.Is(err, pgstore.ErrBackendUnavailable) {
		t.Fatalf("got err %v, want ErrBackendUnavailable", err)
	}
	if inner.calls != callsAtTrip {
		t.Error("expected the breaker to short-circuit without calling the underlying pool")
	}
}

func TestBreakerPool_QueryRowBypassesBreaker(t *testing.T) {
	inner := &fakePool{execErr: errors.New("connection refused")}
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "postgres-test",
		MaxFailures: 1,
	})
	pool := pgstore.NewBreakerPool(inner, breaker)

	// Trip the breaker via Exec.
	_, _ = pool.Exec(context.Background(), "SELECT 1")
	if _, err := pool.Exec(context.Background(), "SELECT 1"); !errors.Is(err, pgstore.ErrBackendUnavailable) {
		t.Fatal("expected breaker to be open")
	}

	// QueryRow still reaches the underlying pool regardless of breaker state.
	callsBefore := inner.calls
	pool.QueryRow(context.Background(), "SELECT 1")
	if inner.calls != callsBefore+1 {
		t.Error("expected QueryRow to bypass the breaker and reach the underlying pool")
	}
}
