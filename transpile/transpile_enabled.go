//go:build typescript

package transpile

import (
	"context"
	"fmt"
	"strings"

	"github.com/clarkmcc/go-typescript"
)

const Enabled = true

var ErrTypescriptNotEnabled = fmt.Errorf("typescript support is not enabled on this build")

// Typescript strips type annotations with the embedded TypeScript compiler.
func Typescript(ctx context.Context, code string) (string, error) {
	return typescript.TranspileCtx(ctx, strings.NewReader(code))
}
