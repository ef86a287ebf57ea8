package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/intcode/pkg/intcode"
)

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("server: vm worker stopped")

// vmRequest represents a unit of work to be executed on the VM goroutine.
type vmRequest struct {
	ctx  context.Context
	fn   func(context.Context, *intcode.VM) any
	done chan vmResult
}

// vmResult holds the return value from a VM operation.
type vmResult struct {
	value any
	err   error
}

// VMWorker serializes all access to one VM through a single goroutine.
// An intcode.VM is not safe for concurrent use; every handler touching a
// session's machine goes through its worker.
type VMWorker struct {
	vm       *intcode.VM
	requests chan vmRequest
	ctx      context.Context // Done once the worker is stopped
	stop     context.CancelFunc
}

// NewVMWorker creates a VMWorker and starts the processing goroutine.
func NewVMWorker(v *intcode.VM) *VMWorker {
	ctx, stop := context.WithCancel(context.Background())
	w := &VMWorker{
		vm:       v,
		requests: make(chan vmRequest, 64),
		ctx:      ctx,
		stop:     stop,
	}
	go w.loop()
	return w
}

// loop processes VM requests sequentially on a dedicated goroutine.
func (w *VMWorker) loop() {
	for {
		select {
		case req := <-w.requests:
			result := w.execute(req)
			req.done <- result
		case <-w.ctx.Done():
			return
		}
	}
}

// execute runs a request on the VM, recovering from panics. The context
// handed to the function ends with the caller's context or when the worker
// stops, whichever comes first.
func (w *VMWorker) execute(req vmRequest) vmResult {
	ctx, cancel := context.WithCancel(req.ctx)
	defer cancel()
	unhook := context.AfterFunc(w.ctx, cancel)
	defer unhook()

	var result vmResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = req.fn(ctx, w.vm)
	}()
	return result
}

// Do submits a function for execution on the VM goroutine and blocks
// until it completes, ctx is done, or the worker stops. Returns the result
// and any error (including panics). A function still running when Do gives
// up sees its context end and should return promptly.
func (w *VMWorker) Do(ctx context.Context, f func(context.Context, *intcode.VM) any) (any, error) {
	if w.ctx.Err() != nil {
		return nil, ErrWorkerStopped
	}

	req := vmRequest{
		ctx:  ctx,
		fn:   f,
		done: make(chan vmResult, 1),
	}
	select {
	case w.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.ctx.Done():
		return nil, ErrWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-w.ctx.Done():
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine and interrupts the function it is
// running, if any. It is safe to call more than once.
func (w *VMWorker) Stop() {
	w.stop()
}
