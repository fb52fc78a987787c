package netio

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
)

// Manager owns the fixed pool of Workers a process starts with and the
// handful of cross-cutting knobs (the firewall-simulation maxudp limit, the
// non-blocking interlock used to serialize listener teardowns) that apply
// across all of them.
type Manager struct {
	workers []*Worker
	logger  *slog.Logger

	maxudp atomic.Uint32

	interlock sync.Mutex

	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewManager builds a Manager with the given number of workers. nworkers <= 0
// means "one per logical CPU", matching the fan-out-by-core default most
// callers want.
func NewManager(nworkers int, queueLen int, logger *slog.Logger) *Manager {
	if nworkers <= 0 {
		nworkers = runtime.GOMAXPROCS(0)
	}
	if queueLen <= 0 {
		queueLen = 256
	}
	if logger == nil {
		logger = slog.Default()
	}

	mgr := &Manager{logger: logger}
	mgr.workers = make([]*Worker, nworkers)
	for i := range mgr.workers {
		mgr.workers[i] = newWorker(i, mgr, queueLen)
	}
	return mgr
}

// Start launches each worker's dispatch loop. Safe to call once.
func (m *Manager) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(len(m.workers))
		for _, w := range m.workers {
			w := w
			go func() {
				defer m.wg.Done()
				w.run()
			}()
		}
	})
}

// Shutdown stops accepting new work on every worker and waits for their
// dispatch loops to drain, bounded by ctx.
func (m *Manager) Shutdown(ctx context.Context) error {
	var err error
	m.stopOnce.Do(func() {
		for _, w := range m.workers {
			close(w.done)
		}
		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("netio: shutdown: %w", ctx.Err())
		}
	})
	return err
}

// NumWorkers returns the number of workers in the pool.
func (m *Manager) NumWorkers() int { return len(m.workers) }

// Worker returns the worker at index i. Panics if i is out of range, which
// is a programming error (every child socket index is derived from
// NumWorkers at listen time).
func (m *Manager) Worker(i int) *Worker {
	return m.workers[i]
}

// SetMaxUDP sets the firewall-simulation drop threshold: datagrams larger
// than n bytes are silently discarded on receipt and on send (a dropped send
// still completes its callback with Success). Zero disables the limit.
func (m *Manager) SetMaxUDP(n uint32) {
	m.maxudp.Store(n)
}

// MaxUDP returns the current drop threshold.
func (m *Manager) MaxUDP() uint32 {
	return m.maxudp.Load()
}

// TryAcquireInterlock attempts to take the manager-wide teardown lock
// without blocking, matching the non-blocking acquire_interlocked contract:
// callers that fail must re-enqueue their work rather than wait.
func (m *Manager) TryAcquireInterlock() bool {
	return m.interlock.TryLock()
}

// ReleaseInterlock releases a lock taken by TryAcquireInterlock.
func (m *Manager) ReleaseInterlock() {
	m.interlock.Unlock()
}
