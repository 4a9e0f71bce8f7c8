// Package txpermit implements the per-connection transaction concurrency cap
// described in spec §5: a permit collection that enforces at most one
// long-lived per-request transaction per key (e.g. one interactive subgraph
// load per session), cancelling the prior transaction's context before
// admitting a new one, and notifying callers when the collection empties.
//
// Grounded on internal/resilience's mutex-guarded state-machine shape,
// generalised from a single breaker's state to a keyed collection of
// cancellable permits, and on the ABA-hazard fix described in
// original_source's harpc permit collection
// (libs/@local/harpc/net/src/session/server/connection/collection.rs): every
// permit carries a monotonically increasing generation number so a stale
// Release call from a superseded transaction can never evict the permit that
// replaced it.
package txpermit

import (
	"context"
	"sync"
)

// Generation is a monotonically increasing counter attached to every Permit,
// the ABA-hazard fix: releasing a Permit only has effect if its generation
// still matches the entry currently stored under its key.
type Generation uint64

// Permit represents one admitted long-lived transaction. Ctx is derived from
// the parent context passed to [Collection.Acquire] and is cancelled either
// when the caller calls [Permit.Release] or when a later Acquire on the same
// key supersedes it.
type Permit struct {
	Key        string
	Generation Generation
	Ctx        context.Context

	cancel context.CancelFunc
	coll   *Collection
}

// Release returns the permit to its collection, cancelling Ctx and — if no
// other permits remain — notifying any goroutine blocked in [Collection.Wait].
// Release is idempotent and safe to call multiple times.
func (p *Permit) Release() {
	p.cancel()
	p.coll.release(p)
}

// Collection enforces one active [Permit] per key. Acquiring a new permit
// for a key that already holds one cancels the prior permit's context before
// installing the new one, so the previous long-lived transaction unwinds
// (spec §5: "each new transaction on the same key cancels the prior
// transaction's token before inserting the new permit").
type Collection struct {
	mu      sync.Mutex
	entries map[string]*Permit
	nextGen Generation
	cond    *sync.Cond
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	c := &Collection{entries: make(map[string]*Permit)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Acquire admits a new permit for key, cancelling and evicting any permit
// already held for that key. The returned Permit's Ctx is derived from
// parent and is cancelled by either Release or a subsequent Acquire call
// superseding it — callers should select on Ctx.Done() inside their
// long-lived operation to detect both cancellation and supersession.
func (c *Collection) Acquire(parent context.Context, key string) *Permit {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prior, ok := c.entries[key]; ok {
		prior.cancel()
		// prior remains reachable via its own Ctx.Done() for whoever is
		// using it; we simply stop tracking it here so a later stale
		// Release from prior (caught by the generation check) is a no-op.
	}

	c.nextGen++
	gen := c.nextGen

	ctx, cancel := context.WithCancel(parent)
	p := &Permit{Key: key, Generation: gen, Ctx: ctx, cancel: cancel, coll: c}
	c.entries[key] = p
	return p
}

// release removes p from the collection iff it is still the entry stored
// under p.Key with a matching generation — the ABA-hazard guard. If the
// collection becomes empty, every goroutine blocked in [Collection.Wait] is
// woken.
func (c *Collection) release(p *Permit) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cur, ok := c.entries[p.Key]; ok && cur.Generation == p.Generation {
		delete(c.entries, p.Key)
		if len(c.entries) == 0 {
			c.cond.Broadcast()
		}
	}
}

// Len reports the number of currently held permits.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Wait blocks until the collection is empty or ctx is done, whichever comes
// first. Returns ctx.Err() in the latter case.
func (c *Collection) Wait(ctx context.Context) error {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cond.Broadcast()
		c.mu.Unlock()
		close(done)
	})
	defer stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.entries) != 0 {
		select {
		case <-done:
			return ctx.Err()
		default:
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.cond.Wait()
	}
	return nil
}
