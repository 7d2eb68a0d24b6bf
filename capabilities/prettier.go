package capabilities

import (
	"context"

	"go.miragespace.co/transform"
)

var prettierFunction = mustFunction("prettier", BundlePrettier)

// Prettier is the formatting pass applied after a structural transform.
type Prettier struct {
	rt *transform.Runtime
}

func NewPrettier(rt *transform.Runtime) *Prettier {
	return &Prettier{rt: rt}
}

// Format pretty-prints code with the given prettier parser. parser and
// plugins in options are replaced.
func (p *Prettier) Format(ctx context.Context, code, parser string, options transform.Options) (string, error) {
	opts := options.Without("parser", "plugins")
	opts["parser"] = parser
	return p.rt.Call(ctx, prettierFunction, code, opts)
}

// formatted runs the formatting pass when the request carries format options.
type formatted struct {
	next     transform.Capability
	prettier *Prettier
	parser   string
}

func (f *formatted) Transform(ctx context.Context, code string, transformOptions, formatOptions transform.Options) (string, error) {
	out, err := f.next.Transform(ctx, code, transformOptions, formatOptions)
	if err != nil || formatOptions == nil || f.parser == "" {
		return out, err
	}
	return f.prettier.Format(ctx, out, f.parser, formatOptions)
}
