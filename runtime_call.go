package transform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// Function is a piece of glue code bound to one or more bundles. Source must
// be a factory expression taking the required bundles as arguments and
// returning a function of (code, options) that yields a string or a promise
// of one.
type Function struct {
	// Name identifies the compiled program. It must be unique per Runtime
	// and must not contain a slash, relative requires resolve against it.
	Name    string
	Bundles []string
	Source  string
}

// ScriptError is a JavaScript exception or rejection raised by a Function.
type ScriptError struct {
	Function string
	Message  string
}

func (e *ScriptError) Error() string {
	return e.Message
}

type callResult struct {
	output string
	err    error
}

// Call invokes fn on the next shard and waits until the returned value
// settles. Returning early on ctx cancellation does not stop the script.
func (rt *Runtime) Call(ctx context.Context, fn *Function, code string, options Options) (string, error) {
	prog, err := rt.program(fn)
	if err != nil {
		return "", err
	}

	if options == nil {
		options = Options{}
	}
	encoded, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("encoding options for %s: %w", fn.Name, err)
	}

	done := make(chan callResult, 1)
	if err := rt.shardRun(func(instance *runtimeInstance) bool {
		if !instance.begin(done) {
			return false
		}
		instance.call(fn.Name, prog, code, string(encoded), done)
		return true
	}); err != nil {
		return "", err
	}

	select {
	case res := <-done:
		return res.output, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (rt *Runtime) program(fn *Function) (*goja.Program, error) {
	if prog, ok := rt.programs.Load(fn.Name); ok {
		return prog, nil
	}

	v, err, _ := rt.compile.Do(fn.Name, func() (any, error) {
		src, err := bindBundles(fn)
		if err != nil {
			return nil, err
		}

		prog, err := goja.Compile(fn.Name, src, true)
		if err != nil {
			return nil, fmt.Errorf("error compiling %s: %w", fn.Name, err)
		}

		rt.programs.Store(fn.Name, prog)
		return prog, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*goja.Program), nil
}

func newScriptError(vm *goja.Runtime, name string, err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return rejectionError(vm, name, ex.Value())
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return &ScriptError{Function: name, Message: "script interrupted"}
	}
	return &ScriptError{Function: name, Message: err.Error()}
}

// rejectionError prefers the message property of Error objects, so the
// client sees "Unexpected token (1:2)" rather than "SyntaxError: ...".
func rejectionError(vm *goja.Runtime, name string, v goja.Value) error {
	msg := "unknown error"
	if obj, ok := v.(*goja.Object); ok {
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) && !goja.IsNull(m) {
			msg = m.String()
		} else {
			msg = obj.String()
		}
	} else if v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		msg = v.String()
	}
	return &ScriptError{Function: name, Message: msg}
}
