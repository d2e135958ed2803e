package coordinator

import "sync"

// Loop is the host control thread: a single goroutine running posted
// events in FIFO order. Runtime callbacks arrive on arbitrary goroutines
// and are funnelled through Post so the Coordinator is never re-entered.
type Loop struct {
	mu     sync.RWMutex
	events chan func()
	closed bool
	done   chan struct{}
}

// NewLoop starts a Loop with the given queue depth.
func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	l := &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for fn := range l.events {
		fn()
	}
}

// Post queues fn. It reports false, dropping fn, once the loop is closed.
func (l *Loop) Post(fn func()) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.events <- fn
	return true
}

// Sync runs fn on the loop and waits for it to return.
func (l *Loop) Sync(fn func()) bool {
	ran := make(chan struct{})
	if !l.Post(func() {
		defer close(ran)
		fn()
	}) {
		return false
	}
	<-ran
	return true
}

// Close stops accepting events, runs those already queued and waits for
// the loop goroutine to exit. Idempotent.
func (l *Loop) Close() {
	l.mu.Lock()
	if !l.closed {
		l.closed = true
		close(l.events)
	}
	l.mu.Unlock()
	<-l.done
}
