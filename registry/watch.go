package registry

import (
	"sync"
	"sync/atomic"

	"github.com/joshuapare/assockit/pkg/types"
)

// watchSet dispatches change notifications for the in-memory backends.
type watchSet struct {
	mu sync.Mutex
	ws map[*memWatch]struct{}
}

type memWatch struct {
	set       *watchSet
	path      string // folded
	recursive bool
	events    types.Events
	fn        func()
	pending   atomic.Bool
	closed    atomic.Bool
}

func (s *watchSet) add(path string, recursive bool, ev types.Events, fn func()) *memWatch {
	w := &memWatch{set: s, path: path, recursive: recursive, events: ev, fn: fn}
	s.mu.Lock()
	if s.ws == nil {
		s.ws = map[*memWatch]struct{}{}
	}
	s.ws[w] = struct{}{}
	s.mu.Unlock()
	return w
}

// notify fires every watch affected by a change at path. When subtree is
// set the change also covers everything below path (a deleted or replaced
// key).
func (s *watchSet) notify(path string, ev types.Events, subtree bool) {
	s.mu.Lock()
	var hit []*memWatch
	for w := range s.ws {
		if w.events&ev != 0 && w.matches(path, ev, subtree) {
			hit = append(hit, w)
		}
	}
	s.mu.Unlock()
	for _, w := range hit {
		w.fire()
	}
}

func (w *memWatch) matches(path string, ev types.Events, subtree bool) bool {
	switch {
	case w.path == path:
		return true
	case w.recursive && under(path, w.path):
		return true
	case ev&types.EventName != 0 && parentOf(path) == w.path:
		return true
	case subtree && under(w.path, path):
		return true
	}
	return false
}

// fire runs fn on its own goroutine. A notification arriving while an
// earlier one has not run yet is folded into it.
func (w *memWatch) fire() {
	if !w.pending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		w.pending.Store(false)
		if !w.closed.Load() {
			w.fn()
		}
	}()
}

func (w *memWatch) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	w.set.mu.Lock()
	delete(w.set.ws, w)
	w.set.mu.Unlock()
	return nil
}
