// Package index keeps an association graph in step with the registry.
//
// An Index watches the registry subtrees a scan depends on. Every change
// bumps a pending counter and queues a rebuild on a single worker
// goroutine. Readers either take the graph as it is or wait until no
// change is pending. A rebuilt graph replaces the old one whole; graphs
// handed out earlier are never modified.
package index

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"

	"github.com/joshuapare/assockit/assoc"
	"github.com/joshuapare/assockit/assoc/scan"
	"github.com/joshuapare/assockit/pkg/types"
	"github.com/joshuapare/assockit/registry"
)

// WatchEvents are the changes that invalidate a graph.
const WatchEvents = types.EventName | types.EventAttributes | types.EventValues

// Builder produces a complete graph. *scan.Scanner is the usual one.
type Builder interface {
	Scan(ctx context.Context) (*assoc.Graph, error)
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(x *Index) { x.log = l } }

// WithRoots replaces the watched subtrees.
func WithRoots(roots []scan.WatchedRoot) Option { return func(x *Index) { x.roots = roots } }

// Index is a watched, lazily rebuilt association graph.
type Index struct {
	reg   registry.Registry
	build Builder
	roots []scan.WatchedRoot
	log   *slog.Logger

	// mu serializes rebuilds with blocking readers; cond is signalled
	// when pending drops to zero or the index closes.
	mu      sync.Mutex
	cond    *sync.Cond
	pending atomic.Int32
	closed  bool

	graph      atomic.Pointer[assoc.Graph]
	generation atomic.Uint64
	jobs       chan struct{}

	subMu  sync.Mutex
	subs   map[int]chan uint64
	nextID int

	watches []registry.Watch
	// ctx runs the worker; only Close cancels it.
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	started   atomic.Bool
	closeOnce sync.Once
}

// New returns an idle index. Start begins watching and the first build.
func New(reg registry.Registry, build Builder, opts ...Option) *Index {
	x := &Index{
		reg:   reg,
		build: build,
		roots: scan.WatchedRoots,
		log:   slog.Default(),
		jobs:  make(chan struct{}, 1),
		subs:  map[int]chan uint64{},
	}
	x.cond = sync.NewCond(&x.mu)
	x.ctx, x.cancel = context.WithCancel(context.Background())
	x.graph.Store(assoc.NewGraph())
	for _, o := range opts {
		o(x)
	}
	return x
}

// Start registers the watches and queues the first build. Subtrees that
// do not exist yet are not watched. Later calls do nothing. ctx only
// bounds the call itself; the index keeps running until Close.
func (x *Index) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "index: start")
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return errors.New("index: closed")
	}
	if x.started.Load() {
		return nil
	}

	// pending is raised before started so a concurrent Ensure waits for
	// the first build.
	x.pending.Store(1)
	x.started.Store(true)
	for _, r := range x.roots {
		w, err := x.reg.Watch(r.Path, r.Recursive, WatchEvents, x.invalidate)
		if err != nil {
			x.log.Debug("not watching", "key", r.Path, "error", err)
			continue
		}
		x.watches = append(x.watches, w)
	}

	x.wg.Add(1)
	go x.worker(x.ctx)
	x.queue()
	return nil
}

// invalidate runs on registry notification goroutines.
func (x *Index) invalidate() {
	x.pending.Add(1)
	x.queue()
}

func (x *Index) queue() {
	select {
	case x.jobs <- struct{}{}:
	default:
	}
}

func (x *Index) worker(ctx context.Context) {
	defer x.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-x.jobs:
		}
		x.mu.Lock()
		saved := x.pending.Load()
		if saved > 0 {
			x.rebuild(ctx)
		}
		// A change that arrived during the rebuild left pending above
		// saved and queued another job.
		if x.pending.CompareAndSwap(saved, 0) {
			x.cond.Broadcast()
		}
		x.mu.Unlock()
	}
}

func (x *Index) rebuild(ctx context.Context) {
	g, err := x.build.Scan(ctx)
	if err != nil {
		x.log.Warn("association rebuild failed", "error", err)
		return
	}
	x.graph.Store(g)
	gen := x.generation.Add(1)
	x.log.Debug("associations rebuilt", "generation", gen)

	x.subMu.Lock()
	for _, ch := range x.subs {
		select {
		case ch <- gen:
		default:
		}
	}
	x.subMu.Unlock()
}

// Ensure starts the index if needed and returns the current graph. With
// block set it first waits until no change is pending, so the graph
// reflects every change seen so far.
func (x *Index) Ensure(block bool) *assoc.Graph {
	if !x.started.Load() {
		if err := x.Start(context.Background()); err != nil {
			x.log.Debug("index not started", "error", err)
		}
	}
	if block {
		x.mu.Lock()
		for x.pending.Load() > 0 && !x.closed {
			x.cond.Wait()
		}
		x.mu.Unlock()
	}
	return x.graph.Load()
}

// Snapshot returns the current graph without starting the index or
// waiting for it.
func (x *Index) Snapshot() *assoc.Graph { return x.graph.Load() }

// Generation counts completed builds.
func (x *Index) Generation() uint64 { return x.generation.Load() }

// Subscribe returns a channel receiving the generation of each completed
// build. Slow receivers miss generations. The returned func unsubscribes.
func (x *Index) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	x.subMu.Lock()
	id := x.nextID
	x.nextID++
	x.subs[id] = ch
	x.subMu.Unlock()
	return ch, func() {
		x.subMu.Lock()
		delete(x.subs, id)
		x.subMu.Unlock()
	}
}

// Close stops watching and waits for the worker. Blocked Ensure calls
// return the last graph.
func (x *Index) Close() error {
	var errs error
	x.closeOnce.Do(func() {
		x.cancel()
		x.mu.Lock()
		x.closed = true
		x.cond.Broadcast()
		watches := x.watches
		x.mu.Unlock()

		for _, w := range watches {
			errs = errors.CombineErrors(errs, w.Close())
		}
		x.wg.Wait()
	})
	return errs
}
