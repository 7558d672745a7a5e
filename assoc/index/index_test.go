package index_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/index"
	"github.com/joshuapare/assockit/assoc/scan"
	"github.com/joshuapare/assockit/registry"
)

// countingBuilder scans the registry and counts how often it ran.
type countingBuilder struct {
	s     *scan.Scanner
	runs  atomic.Int32
	gate  chan struct{}
	start chan struct{}
}

func (b *countingBuilder) Scan(ctx context.Context) (*assoc.Graph, error) {
	if b.start != nil {
		b.start <- struct{}{}
	}
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.runs.Add(1)
	return b.s.Scan(ctx)
}

func seeded(t *testing.T) *registry.Memory {
	t.Helper()
	m := registry.NewMemory()
	for _, r := range scan.WatchedRoots {
		require.NoError(t, m.CreateKey(r.Path))
	}
	require.NoError(t, m.SetString(`HKCR\.xyz`, "", "xyzfile"))
	require.NoError(t, m.SetString(`HKCR\xyzfile\shell\open\command`, "", `C:\xyz\xyz.exe "%1"`))
	return m
}

func TestIndex_FirstBuild(t *testing.T) {
	m := seeded(t)
	b := &countingBuilder{s: scan.New(m)}
	x := index.New(m, b)
	t.Cleanup(func() { _ = x.Close() })

	assert.Equal(t, assoc.Stats{}, x.Snapshot().Stats(), "empty before the first build")
	require.NoError(t, x.Start(context.Background()))
	assert.NoError(t, x.Start(context.Background()), "second start is a no-op")

	g := x.Ensure(true)
	require.NotNil(t, g.Extension(".xyz"))
	assert.Equal(t, uint64(1), x.Generation())
	assert.Equal(t, int32(1), b.runs.Load())

	// Nothing changed: no rebuild.
	assert.Same(t, g, x.Ensure(true))
	assert.Equal(t, int32(1), b.runs.Load())
}

func TestIndex_RebuildsOnChange(t *testing.T) {
	m := seeded(t)
	x := index.New(m, &countingBuilder{s: scan.New(m)})
	t.Cleanup(func() { _ = x.Close() })
	require.NoError(t, x.Start(context.Background()))
	first := x.Ensure(true)

	updates, unsubscribe := x.Subscribe()
	defer unsubscribe()

	require.NoError(t, m.SetString(scan.FileExts+`\.xyz\UserChoice`, "Progid", "other"))
	require.NoError(t, m.SetString(`HKCR\other\shell\open\command`, "", `C:\other\other.exe "%1"`))

	select {
	case gen := <-updates:
		assert.Greater(t, gen, uint64(1))
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after a watched change")
	}
	require.Eventually(t, func() bool {
		h := x.Ensure(true).Extension(".xyz").Chosen
		return h != nil && h.ID == "other"
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, "xyzfile", first.Extension(".xyz").Chosen.ID, "earlier graphs are not modified")
}

func TestIndex_NonBlockingDuringBuild(t *testing.T) {
	m := seeded(t)
	b := &countingBuilder{s: scan.New(m), gate: make(chan struct{}), start: make(chan struct{}, 1)}
	x := index.New(m, b)
	t.Cleanup(func() { _ = x.Close() })
	require.NoError(t, x.Start(context.Background()))

	<-b.start
	assert.Nil(t, x.Ensure(false).Extension(".xyz"), "previous graph while building")

	done := make(chan *assoc.Graph)
	go func() { done <- x.Ensure(true) }()
	select {
	case <-done:
		t.Fatal("blocking ensure returned before the build finished")
	case <-time.After(50 * time.Millisecond):
	}
	close(b.gate)
	select {
	case g := <-done:
		assert.NotNil(t, g.Extension(".xyz"))
	case <-time.After(5 * time.Second):
		t.Fatal("blocking ensure never returned")
	}
}

func TestIndex_CloseReleasesWaiters(t *testing.T) {
	m := seeded(t)
	b := &countingBuilder{s: scan.New(m), gate: make(chan struct{}), start: make(chan struct{}, 1)}
	x := index.New(m, b)
	require.NoError(t, x.Start(context.Background()))
	<-b.start

	done := make(chan struct{})
	go func() {
		x.Ensure(true)
		close(done)
	}()
	require.NoError(t, x.Close())
	require.NoError(t, x.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("close left a waiter blocked")
	}
	assert.Equal(t, uint64(0), x.Generation())
}

func TestIndex_EnsureStartsLazily(t *testing.T) {
	m := seeded(t)
	b := &countingBuilder{s: scan.New(m)}
	x := index.New(m, b)
	t.Cleanup(func() { _ = x.Close() })
	assert.NotNil(t, x.Ensure(true).Extension(".xyz"))
	assert.Equal(t, int32(1), b.runs.Load())
}

func TestIndex_MissingRootsAreSkipped(t *testing.T) {
	m := registry.NewMemory()
	x := index.New(m, &countingBuilder{s: scan.New(m)})
	t.Cleanup(func() { _ = x.Close() })
	require.NoError(t, x.Start(context.Background()))
	assert.NotNil(t, x.Ensure(true))
	assert.Equal(t, uint64(1), x.Generation())
}

func TestIndex_OutlivesStartContext(t *testing.T) {
	m := seeded(t)
	x := index.New(m, &countingBuilder{s: scan.New(m)})
	t.Cleanup(func() { _ = x.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, x.Start(ctx))
	require.NotNil(t, x.Ensure(true).Extension(".xyz"))
	cancel()

	require.NoError(t, m.SetString(`HKCR\.abc`, "", "xyzfile"))
	// Notifications are asynchronous: poll until the change is seen.
	done := make(chan bool, 1)
	go func() {
		for deadline := time.Now().Add(5 * time.Second); time.Now().Before(deadline); {
			if x.Ensure(true).Extension(".abc") != nil {
				done <- true
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		done <- false
	}()
	select {
	case seen := <-done:
		assert.True(t, seen, "change after cancel was never built")
	case <-time.After(10 * time.Second):
		t.Fatal("ensure blocked after the start context was cancelled")
	}
}

func TestIndex_StartWithDoneContext(t *testing.T) {
	m := seeded(t)
	x := index.New(m, &countingBuilder{s: scan.New(m)})
	t.Cleanup(func() { _ = x.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, x.Start(ctx), context.Canceled)
	assert.NotNil(t, x.Ensure(true).Extension(".xyz"), "a later start still works")
}

func TestIndex_ConcurrentFirstEnsure(t *testing.T) {
	for i := 0; i < 50; i++ {
		m := seeded(t)
		b := &countingBuilder{s: scan.New(m)}
		x := index.New(m, b)

		var wg sync.WaitGroup
		graphs := make([]*assoc.Graph, 8)
		for j := range graphs {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if j%2 == 0 {
					_ = x.Start(context.Background())
				}
				graphs[j] = x.Ensure(true)
			}()
		}
		wg.Wait()
		for _, g := range graphs {
			require.NotNil(t, g.Extension(".xyz"), "ensure returned before the first build")
		}
		assert.Equal(t, int32(1), b.runs.Load())
		require.NoError(t, x.Close())
	}
}

func TestIndex_StartAfterClose(t *testing.T) {
	m := seeded(t)
	x := index.New(m, &countingBuilder{s: scan.New(m)})
	require.NoError(t, x.Close())
	require.Error(t, x.Start(context.Background()))
	assert.Equal(t, assoc.Stats{}, x.Ensure(true).Stats())
}
