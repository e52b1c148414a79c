package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	warderrors "github.com/mirkobrombin/go-warden/v1/errors"
	"github.com/mirkobrombin/go-warden/v1/store"
)

func newNodes(t *testing.T, n int) ([]store.Store, []*miniredis.Miniredis) {
	t.Helper()
	nodes := make([]store.Store, 0, n)
	servers := make([]*miniredis.Miniredis, 0, n)
	for i := 0; i < n; i++ {
		mr, err := miniredis.Run()
		if err != nil {
			t.Fatalf("miniredis run: %v", err)
		}
		client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
		nodes = append(nodes, store.NewRedis(client, store.WithTimeout(200*time.Millisecond)))
		servers = append(servers, mr)
		t.Cleanup(func() {
			_ = client.Close()
			mr.Close()
		})
	}
	return nodes, servers
}

func TestAcquireWaitsForRelease(t *testing.T) {
	nodes, _ := newNodes(t, 1)
	ctx := context.Background()
	holder, err := NewSingle(ctx, nodes[0], "leader")
	if err != nil {
		t.Fatalf("new single: %v", err)
	}
	waiter, err := NewSingle(ctx, nodes[0], "leader")
	if err != nil {
		t.Fatalf("new single: %v", err)
	}
	if ok, err := holder.Lock(ctx, time.Minute); err != nil || !ok {
		t.Fatalf("holder lock: %v ok %v", err, ok)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(30 * time.Millisecond)
		_ = holder.Release(ctx)
	}()

	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := Acquire(cctx, waiter, time.Minute, 5*time.Millisecond); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	wg.Wait()
	if ok, err := holder.Lock(ctx, time.Minute); err != nil || ok {
		t.Fatalf("expected waiter to hold the lock, ok %v err %v", ok, err)
	}
}

func TestAcquireTimeout(t *testing.T) {
	nodes, _ := newNodes(t, 1)
	ctx := context.Background()
	holder, _ := NewSingle(ctx, nodes[0], "leader")
	waiter, _ := NewSingle(ctx, nodes[0], "leader")
	if ok, err := holder.Lock(ctx, time.Minute); err != nil || !ok {
		t.Fatalf("holder lock: %v ok %v", err, ok)
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := Acquire(cctx, waiter, time.Minute, 5*time.Millisecond); err != warderrors.ErrTimeout {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatal("acquire did not respect context timeout")
	}
}

func TestAcquireCancelled(t *testing.T) {
	nodes, _ := newNodes(t, 1)
	l, _ := NewSingle(context.Background(), nodes[0], "leader")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Acquire(ctx, l, time.Minute, 0); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
