package lock

import (
	"context"
	stdErrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
	"github.com/mirkobrombin/go-warden/v1/metrics"
	"github.com/mirkobrombin/go-warden/v1/store"
)

func newQuorum(t *testing.T, nodes []store.Store, opts ...QuorumOption) *Quorum {
	t.Helper()
	q, err := NewQuorum(context.Background(), nodes, "dist-lock", opts...)
	if err != nil {
		t.Fatalf("new quorum: %v", err)
	}
	return q
}

func assertRecord(t *testing.T, mr *miniredis.Miniredis, want string) {
	t.Helper()
	got, err := mr.Get("dist-lock")
	if want == "" {
		if err == nil {
			t.Fatalf("expected no record on %s, got %q", mr.Addr(), got)
		}
		return
	}
	if got != want {
		t.Fatalf("expected record %q on %s, got %q (err %v)", want, mr.Addr(), got, err)
	}
}

func TestQuorumArithmetic(t *testing.T) {
	for n, want := range map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 3} {
		q := &Quorum{nodes: make([]store.Store, n)}
		if got := q.Quorum(); got != want {
			t.Fatalf("nodes %d: expected quorum %d, got %d", n, want, got)
		}
	}
}

func TestQuorumLockRelease(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	ctx := context.Background()
	a := newQuorum(t, nodes)
	b := newQuorum(t, nodes)

	if ok, err := a.Lock(ctx, 10*time.Second); err != nil || !ok {
		t.Fatalf("a lock: %v ok %v", err, ok)
	}
	for _, mr := range servers {
		assertRecord(t, mr, a.token)
	}

	if ok, err := b.Lock(ctx, 10*time.Second); err != nil || ok {
		t.Fatalf("b should not acquire, ok %v err %v", ok, err)
	}
	// b's failed round and an explicit release from b must leave a's records.
	if err := b.Release(ctx); err != nil {
		t.Fatalf("b release: %v", err)
	}
	for _, mr := range servers {
		assertRecord(t, mr, a.token)
	}

	if err := a.Release(ctx); err != nil {
		t.Fatalf("a release: %v", err)
	}
	for _, mr := range servers {
		assertRecord(t, mr, "")
	}
	if ok, err := b.Lock(ctx, 10*time.Second); err != nil || !ok {
		t.Fatalf("b lock after release: %v ok %v", err, ok)
	}
}

func TestQuorumToleratesMinorityFailure(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	q := newQuorum(t, nodes)
	servers[1].Close()

	before := testutil.ToFloat64(metrics.QuorumVoteFailures)
	if ok, err := q.Lock(context.Background(), 10*time.Second); err != nil || !ok {
		t.Fatalf("expected lock with 2 of 3 nodes, ok %v err %v", ok, err)
	}
	if got := testutil.ToFloat64(metrics.QuorumVoteFailures); got != before+1 {
		t.Fatalf("expected one failed vote, got %v", got-before)
	}
	assertRecord(t, servers[0], q.token)
	assertRecord(t, servers[2], q.token)

	if err := q.Release(context.Background()); err != nil {
		t.Fatalf("release with a node down: %v", err)
	}
	assertRecord(t, servers[0], "")
	assertRecord(t, servers[2], "")
}

func TestQuorumFailsWithoutMajority(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	q := newQuorum(t, nodes)
	servers[0].Close()
	servers[2].Close()

	if ok, err := q.Lock(context.Background(), 10*time.Second); err != nil || ok {
		t.Fatalf("expected no lock with 1 of 3 nodes, ok %v err %v", ok, err)
	}
	assertRecord(t, servers[1], "")
}

func TestQuorumAllNodesDown(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	q := newQuorum(t, nodes)
	for _, mr := range servers {
		mr.Close()
	}
	if ok, err := q.Lock(context.Background(), 10*time.Second); err != nil || ok {
		t.Fatalf("expected plain false, ok %v err %v", ok, err)
	}
}

func TestQuorumSplitVoteReleasesPartialGrants(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	q := newQuorum(t, nodes)
	_ = servers[0].Set("dist-lock", "someone-else")
	_ = servers[1].Set("dist-lock", "someone-else")

	if ok, err := q.Lock(context.Background(), 10*time.Second); err != nil || ok {
		t.Fatalf("expected no lock with 1 vote, ok %v err %v", ok, err)
	}
	assertRecord(t, servers[0], "someone-else")
	assertRecord(t, servers[1], "someone-else")
	assertRecord(t, servers[2], "")
}

func TestQuorumValidityExceeded(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	lease := 100 * time.Millisecond

	var mu sync.Mutex
	now := time.Now()
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur := now
		now = now.Add(lease)
		return cur
	}
	q := newQuorum(t, nodes, WithClock(clock))

	if ok, err := q.Lock(context.Background(), lease); err != nil || ok {
		t.Fatalf("expected lock rejected when voting used the whole lease, ok %v err %v", ok, err)
	}
	for _, mr := range servers {
		assertRecord(t, mr, "")
	}
}

func TestQuorumLeaseExpiry(t *testing.T) {
	nodes, servers := newNodes(t, 3)
	ctx := context.Background()
	a := newQuorum(t, nodes)
	b := newQuorum(t, nodes)

	if ok, err := a.Lock(ctx, 50*time.Millisecond); err != nil || !ok {
		t.Fatalf("a lock: %v ok %v", err, ok)
	}
	for _, mr := range servers {
		mr.FastForward(60 * time.Millisecond)
	}
	if ok, err := b.Lock(ctx, time.Second); err != nil || !ok {
		t.Fatalf("expected lock after lease expiry, ok %v err %v", ok, err)
	}
}

func TestQuorumConcurrentHolders(t *testing.T) {
	nodes, _ := newNodes(t, 3)
	ctx := context.Background()

	var (
		mu      sync.Mutex
		holders int
		maxSeen int
		total   int
		wg      sync.WaitGroup
	)
	for w := 0; w < 3; w++ {
		q := newQuorum(t, nodes)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; {
				ok, err := q.Lock(ctx, 10*time.Second)
				if err != nil {
					t.Errorf("lock: %v", err)
					return
				}
				if !ok {
					time.Sleep(time.Millisecond)
					continue
				}
				mu.Lock()
				holders++
				if holders > maxSeen {
					maxSeen = holders
				}
				total++
				mu.Unlock()

				mu.Lock()
				holders--
				mu.Unlock()
				_ = q.Release(ctx)
				i++
			}
		}()
	}
	wg.Wait()
	if total != 30 {
		t.Fatalf("expected 30 critical sections, got %d", total)
	}
	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
}

func TestNewQuorumErrors(t *testing.T) {
	if _, err := NewQuorum(context.Background(), nil, "dist-lock"); err != warderrors.ErrNoNodes {
		t.Fatalf("expected ErrNoNodes, got %v", err)
	}

	nodes, servers := newNodes(t, 3)
	servers[2].Close()
	if _, err := NewQuorum(context.Background(), nodes, "dist-lock"); !stdErrors.Is(err, warderrors.ErrScriptLoad) {
		t.Fatalf("expected ErrScriptLoad, got %v", err)
	}
}

func TestQuorumInvalidLease(t *testing.T) {
	nodes, _ := newNodes(t, 1)
	q := newQuorum(t, nodes)
	if _, err := q.Lock(context.Background(), -time.Second); err != warderrors.ErrInvalidLease {
		t.Fatalf("expected ErrInvalidLease, got %v", err)
	}
}
