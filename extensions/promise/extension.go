package promise

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
)

// PromiseResolver invokes script functions so that a thrown exception, a
// rejected promise, a plain return value and a resolved promise all settle
// through the same resolve/reject pair.
type PromiseResolver struct {
	eventLoop     *eventloop.EventLoop
	runtimeInvoke goja.Callable
}

func NewResolver(eventLoop *eventloop.EventLoop) (*PromiseResolver, error) {
	t := &PromiseResolver{
		eventLoop: eventLoop,
	}

	setup := make(chan error, 1)
	eventLoop.RunOnLoop(func(vm *goja.Runtime) {
		_, err := vm.RunProgram(promiseResolverProg)
		if err != nil {
			setup <- err
			return
		}

		wrapper, ok := goja.AssertFunction(vm.Get(promiseResolverInvokeSymbol))
		if !ok {
			setup <- fmt.Errorf("internal error: %s is not a function", promiseResolverInvokeSymbol)
			return
		}
		t.runtimeInvoke = wrapper

		setup <- nil
	})

	err := <-setup
	if err != nil {
		return nil, err
	}

	return t, nil
}

// InvokeVM must be called on the loop. options is the JSON encoding of the
// option bag; it is parsed inside the runtime so the callee receives a plain
// object.
func (p *PromiseResolver) InvokeVM(
	vm *goja.Runtime,
	fn goja.Value,
	code, options string,
	resolve, reject goja.Value,
) error {
	_, err := p.runtimeInvoke(
		goja.Undefined(),
		fn,
		vm.ToValue(code),
		vm.ToValue(options),
		resolve,
		reject,
	)
	return err
}
