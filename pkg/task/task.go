// Package task runs one operation in the background and hands back a
// waitable handle, so callers drive long-running work without blocking
// and without knowing anything about the host's threading model.
package task

// Task is the handle for one background operation. The result is written
// once, before Done is closed; any number of goroutines may wait on it.
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn in its own goroutine and returns the handle immediately.
func Go[T any](fn func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		t.value, t.err = fn()
		close(t.done)
	}()
	return t
}

// Done is closed when the operation has finished, for select loops.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the operation finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.value, t.err
}

// Poll reports the result without blocking; ok is false while the
// operation is still running.
func (t *Task[T]) Poll() (value T, ok bool, err error) {
	select {
	case <-t.done:
		return t.value, true, t.err
	default:
		var zero T
		return zero, false, nil
	}
}

// OnComplete invokes cb from a fresh goroutine once the operation
// finishes.
func (t *Task[T]) OnComplete(cb func(T, error)) {
	go func() {
		<-t.done
		cb(t.value, t.err)
	}()
}
