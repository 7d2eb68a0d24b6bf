package transform

import "context"

// Capability converts code from one named format to another. Implementations
// may block until an asynchronous library settles; the caller's goroutine is
// the only suspension point.
type Capability interface {
	Transform(ctx context.Context, code string, transformOptions, formatOptions Options) (string, error)
}

// CapabilityFunc adapts a function to a Capability.
type CapabilityFunc func(ctx context.Context, code string, transformOptions, formatOptions Options) (string, error)

func (f CapabilityFunc) Transform(ctx context.Context, code string, transformOptions, formatOptions Options) (string, error) {
	return f(ctx, code, transformOptions, formatOptions)
}

// Options is a capability specific option bag, as decoded from the request.
type Options map[string]any

// Pick returns a copy holding only the given keys. The result is never nil.
func (o Options) Pick(keys ...string) Options {
	picked := make(Options, len(keys))
	for _, k := range keys {
		if v, ok := o[k]; ok {
			picked[k] = v
		}
	}
	return picked
}

// Without returns a copy without the given keys. The result is never nil.
func (o Options) Without(keys ...string) Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Bool reports whether key holds a truthy boolean.
func (o Options) Bool(key string) bool {
	b, _ := o[key].(bool)
	return b
}
