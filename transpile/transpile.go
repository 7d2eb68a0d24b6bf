//go:build !typescript

package transpile

import (
	"context"
	"fmt"
)

// Enabled reports whether the embedded TypeScript compiler is part of this
// build.
const Enabled = false

var ErrTypescriptNotEnabled = fmt.Errorf("typescript support is not enabled on this build")

func Typescript(ctx context.Context, code string) (string, error) {
	return "", ErrTypescriptNotEnabled
}
