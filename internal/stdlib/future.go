package stdlib

import (
	"github.com/velalang/vela/internal/value"
	"github.com/velalang/vela/internal/vm"
)

// goFuture runs work on its own goroutine and reports completion through
// a channel; Poll is non-blocking per the vm.Future contract, so it just
// drains the channel without waiting.
type goFuture struct {
	done   chan struct{}
	result value.Value
	err    error
}

// runAsync starts work in a new goroutine and returns a Future the
// dispatch loop can poll to completion, for bindings (dynamo.go) whose
// underlying call may legitimately take a while.
func runAsync(work func() (value.Value, error)) vm.Future {
	f := &goFuture{done: make(chan struct{})}
	go func() {
		result, err := work()
		f.result, f.err = result, err
		close(f.done)
	}()
	return f
}

func (f *goFuture) Poll() (value.Value, error, bool) {
	select {
	case <-f.done:
		return f.result, f.err, true
	default:
		return nil, nil, false
	}
}
