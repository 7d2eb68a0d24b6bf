package transform

import (
	"context"
	"fmt"
	"sync"

	"go.miragespace.co/transform/extensions/promise"
	"go.miragespace.co/transform/extensions/zap_console"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"go.uber.org/zap"
)

var nilInstance *runtimeInstance = nil

type runtimeInstance struct {
	logger    *zap.Logger
	eventLoop *eventloop.EventLoop
	resolver  *promise.PromiseResolver
	functions map[string]goja.Value // only accessed on the loop
	vm        *goja.Runtime

	mu       sync.Mutex
	pending  map[chan<- callResult]struct{}
	retiring bool
}

// begin registers done as an outstanding call. It returns false once the
// instance is retiring, the caller should pick another shard.
func (inst *runtimeInstance) begin(done chan<- callResult) bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()

	if inst.retiring {
		return false
	}
	inst.pending[done] = struct{}{}
	return true
}

// settle delivers r to done at most once. The last call to settle on a
// retiring instance stops its loop.
func (inst *runtimeInstance) settle(done chan<- callResult, r callResult) {
	inst.mu.Lock()
	_, ok := inst.pending[done]
	delete(inst.pending, done)
	drained := inst.retiring && len(inst.pending) == 0
	inst.mu.Unlock()

	if !ok {
		return
	}
	done <- r

	if drained {
		inst.eventLoop.StopNoWait()
	}
}

// stop retires the instance. Without interrupt the loop keeps running until
// every outstanding call has settled. With interrupt the VM is interrupted
// and outstanding calls fail with ErrRuntimeStopped.
func (inst *runtimeInstance) stop(interrupt bool) {
	inst.mu.Lock()
	inst.retiring = true
	var abandoned []chan<- callResult
	if interrupt {
		for done := range inst.pending {
			abandoned = append(abandoned, done)
		}
		clear(inst.pending)
	}
	drained := len(inst.pending) == 0
	inst.mu.Unlock()

	for _, done := range abandoned {
		done <- callResult{err: ErrRuntimeStopped}
	}

	if interrupt && inst.vm != nil {
		inst.vm.Interrupt(context.Canceled)
	}
	if drained {
		inst.eventLoop.StopNoWait()
	} else {
		inst.logger.Debug("Draining outstanding calls before stopping shard")
	}
}

func (inst *runtimeInstance) prepareInstance() (setup chan error) {
	setup = make(chan error, 1)

	inst.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
		zap_console.Enable(vm)

		inst.vm = vm // reference is kept for .Interrupt

		setup <- nil
	})

	return
}

// function returns the instantiated glue function for prog, running the
// program on first use. Failures are not cached so a bundle added later is
// picked up after a reload.
func (inst *runtimeInstance) function(vm *goja.Runtime, name string, prog *goja.Program) (goja.Value, error) {
	if fn, ok := inst.functions[name]; ok {
		return fn, nil
	}

	fn, err := vm.RunProgram(prog)
	if err != nil {
		return nil, err
	}

	if _, ok := goja.AssertFunction(fn); !ok {
		return nil, fmt.Errorf("%s did not evaluate to a function", name)
	}

	inst.functions[name] = fn
	return fn, nil
}

func (inst *runtimeInstance) call(name string, prog *goja.Program, code, options string, done chan<- callResult) {
	inst.eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		settle := func(r callResult) {
			inst.settle(done, r)
		}

		fn, err := inst.function(vm, name, prog)
		if err != nil {
			settle(callResult{err: newScriptError(vm, name, err)})
			return
		}

		resolve := vm.ToValue(func(fc goja.FunctionCall) goja.Value {
			v := fc.Argument(0)
			if goja.IsUndefined(v) || goja.IsNull(v) {
				settle(callResult{})
			} else {
				settle(callResult{output: v.String()})
			}
			return goja.Undefined()
		})

		reject := vm.ToValue(func(fc goja.FunctionCall) goja.Value {
			settle(callResult{err: rejectionError(vm, name, fc.Argument(0))})
			return goja.Undefined()
		})

		if err := inst.resolver.InvokeVM(vm, fn, code, options, resolve, reject); err != nil {
			inst.logger.Error("Unexpected runtime exception", zap.String("function", name), zap.Error(err))
			settle(callResult{err: newScriptError(vm, name, err)})
		}
	})
}
