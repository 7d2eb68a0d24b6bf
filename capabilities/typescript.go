package capabilities

import (
	"context"
	"errors"

	"go.miragespace.co/transform"
	"go.miragespace.co/transform/transpile"
)

// typescript prefers the embedded compiler and falls back to Babel's
// typescript preset when the binary was built without it.
type typescript struct {
	fallback transform.Capability
}

func (t *typescript) Transform(ctx context.Context, code string, transformOptions, formatOptions transform.Options) (string, error) {
	out, err := transpile.Typescript(ctx, code)
	if errors.Is(err, transpile.ErrTypescriptNotEnabled) {
		return t.fallback.Transform(ctx, code, transformOptions, formatOptions)
	}
	return out, err
}
