package capabilities

import (
	"context"
	"embed"
	"strings"

	"go.miragespace.co/transform"
)

//go:embed scripts/*.js
var scriptsFS embed.FS

// Bundle file names expected in the bundle directory.
const (
	BundleBabel        = "babel.js"
	BundleBuble        = "buble.js"
	BundleReactToVue   = "react-to-vue.js"
	BundleStylus       = "stylus.js"
	BundleCoffeeScript = "coffeescript.js"
	BundleSvgr         = "svgr.js"
	BundleH2x          = "h2x.js"
	BundlePrettier     = "prettier.js"
)

func mustFunction(name string, bundles ...string) *transform.Function {
	src, err := scriptsFS.ReadFile("scripts/" + name + ".js")
	if err != nil {
		panic(err)
	}
	return &transform.Function{
		Name:    "capability:" + name,
		Bundles: bundles,
		Source:  strings.TrimSpace(string(src)),
	}
}

// script runs a glue Function on the Runtime with the recognized subset of
// transform options.
type script struct {
	rt   *transform.Runtime
	fn   *transform.Function
	keys []string
}

var _ transform.Capability = (*script)(nil)

func (s *script) Transform(ctx context.Context, code string, transformOptions, _ transform.Options) (string, error) {
	return s.rt.Call(ctx, s.fn, code, transformOptions.Pick(s.keys...))
}
