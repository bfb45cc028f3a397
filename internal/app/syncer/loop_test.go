package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexchat/internal/app/model"
)

// blockingRemote parks every fetch until released, to hold a pass open.
type blockingRemote struct {
	release chan struct{}
}

func (b *blockingRemote) Fetch(ctx context.Context, channel string) (*model.GlobalDocument, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
	}
	return model.NewGlobalDocument(), nil
}

func (b *blockingRemote) Replace(ctx context.Context, channel string, doc *model.GlobalDocument) error {
	return nil
}

func TestSyncerStopsOnCancel(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")
	r := NewReconciler(st, &fakeRemote{doc: model.NewGlobalDocument()}, "u1", nil)

	var mu sync.Mutex
	passes := 0
	s := NewSyncer(r, 10*time.Millisecond, func(Result) {
		mu.Lock()
		passes++
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Let a few ticks land, then stop.
	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("syncer did not stop after cancel")
	}

	mu.Lock()
	assert.GreaterOrEqual(t, passes, 2)
	mu.Unlock()
}

func TestTickSkipsWhileInFlight(t *testing.T) {
	st := openTestStore(t, "u1", "AB12cd")

	remote := &blockingRemote{release: make(chan struct{})}
	r := NewReconciler(st, remote, "u1", nil)

	var mu sync.Mutex
	passes := 0
	s := NewSyncer(r, time.Hour, func(Result) {
		mu.Lock()
		passes++
		mu.Unlock()
	})

	ctx := context.Background()

	started := make(chan struct{})
	go func() {
		close(started)
		s.tick(ctx)
	}()
	<-started

	// Wait until the first pass is parked inside Fetch.
	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, time.Millisecond)

	// Ticks arriving while the pass is in flight are dropped.
	s.tick(ctx)
	s.tick(ctx)

	close(remote.release)
	require.Eventually(t, func() bool { return !s.running.Load() }, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, 1, passes)
	mu.Unlock()
}
