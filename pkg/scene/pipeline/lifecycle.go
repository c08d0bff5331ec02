package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
)

// State is the readiness of the model collaborators
type State int32

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// lifecycle is a one-way LOADING -> READY gate. A failed load leaves the
// state at LOADING and records the error for Wait.
type lifecycle struct {
	state atomic.Int32
	once  sync.Once
	done  chan struct{}
	err   error
}

func newLifecycle() *lifecycle {
	return &lifecycle{done: make(chan struct{})}
}

func (l *lifecycle) current() State {
	return State(l.state.Load())
}

func (l *lifecycle) finish(err error) {
	l.once.Do(func() {
		l.err = err
		if err == nil {
			l.state.Store(int32(StateReady))
		}
		close(l.done)
	})
}

// wait blocks until loading finished or ctx is done
func (l *lifecycle) wait(ctx context.Context) error {
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
