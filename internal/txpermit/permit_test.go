package txpermit_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/entigraph/internal/txpermit"
)

func TestCollection_AcquireCancelsPriorPermit(t *testing.T) {
	c := txpermit.NewCollection()

	first := c.Acquire(context.Background(), "session-1")
	second := c.Acquire(context.Background(), "session-1")

	select {
	case <-first.Ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("expected first permit's context to be cancelled when superseded")
	}

	if second.Ctx.Err() != nil {
		t.Fatal("second permit should remain live")
	}
	if c.Len() != 1 {
		t.Fatalf("expected exactly one tracked permit, got %d", c.Len())
	}
}

func TestCollection_StaleReleaseDoesNotEvictNewerPermit(t *testing.T) {
	c := txpermit.NewCollection()

	first := c.Acquire(context.Background(), "session-1")
	_ = c.Acquire(context.Background(), "session-1")

	// A stale Release from the superseded permit must be a no-op: it must
	// not evict the permit that replaced it (the ABA hazard spec §5 calls
	// out explicitly).
	first.Release()

	if c.Len() != 1 {
		t.Fatalf("expected the newer permit to remain tracked, got %d entries", c.Len())
	}
}

func TestCollection_ReleaseNotifiesWaiters(t *testing.T) {
	c := txpermit.NewCollection()
	p := c.Acquire(context.Background(), "session-1")

	done := make(chan error, 1)
	go func() {
		done <- c.Wait(context.Background())
	}()

	time.Sleep(10 * time.Millisecond)
	p.Release()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected Wait to return once the collection emptied")
	}
}

func TestCollection_WaitRespectsContextCancellation(t *testing.T) {
	c := txpermit.NewCollection()
	c.Acquire(context.Background(), "session-1")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Wait(ctx)
	if err == nil {
		t.Fatal("expected Wait to return an error when ctx is cancelled before the collection empties")
	}
}
