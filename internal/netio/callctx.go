package netio

// CallCtx tells a callee which worker, if any, it is currently executing on.
// Go has no notion of thread-local storage, so rather than guessing from a
// goroutine id, every entry point that needs to make a same-thread-vs-cross-thread
// routing decision takes one of these explicitly. Worker dispatch loops build
// one once per command and thread it through recv callbacks, send completions,
// and anything those callbacks call back into.
type CallCtx struct {
	tid      int
	inWorker bool
}

// Background returns a CallCtx for code that is not running on any worker
// (the admin API, CLI wiring, tests driving the manager from outside).
func Background() *CallCtx {
	return &CallCtx{}
}

func workerCtx(tid int) *CallCtx {
	return &CallCtx{tid: tid, inWorker: true}
}

// InWorker reports whether the caller is currently executing on a worker.
func (c *CallCtx) InWorker() bool {
	return c != nil && c.inWorker
}

// TID returns the worker id the caller is executing on. Only meaningful when
// InWorker is true.
func (c *CallCtx) TID() int {
	if c == nil {
		return -1
	}
	return c.tid
}
