package capabilities

import (
	"go.miragespace.co/transform"
)

type definition struct {
	from, to string
	parser   string
	build    func(rt *transform.Runtime) transform.Capability
}

func scripted(fn *transform.Function, keys ...string) func(rt *transform.Runtime) transform.Capability {
	return func(rt *transform.Runtime) transform.Capability {
		return &script{rt: rt, fn: fn, keys: keys}
	}
}

var (
	babelFunction        = mustFunction("babel", BundleBabel)
	bubleFunction        = mustFunction("buble", BundleBuble)
	reactVueFunction     = mustFunction("react_vue", BundleBabel, BundleReactToVue)
	stylusFunction       = mustFunction("stylus", BundleStylus)
	coffeeScriptFunction = mustFunction("coffeescript", BundleCoffeeScript)
	svgFunction          = mustFunction("svg", BundleSvgr)
	htmlFunction         = mustFunction("html", BundleH2x)
	flowFunction         = mustFunction("flow", BundleBabel)
	typescriptFunction   = mustFunction("typescript", BundleBabel)
)

// The dispatch table, in the order it is exposed by /transforms.
var definitions = []definition{
	{from: "babel", to: "js", parser: "babel", build: scripted(babelFunction, "es2015", "es2016", "es2017")},
	{from: "buble", to: "js", parser: "babel", build: scripted(bubleFunction, "transforms", "objectAssign", "jsx", "namedFunctionExpressions")},
	{from: "react", to: "vue", parser: "babel", build: scripted(reactVueFunction)},
	{from: "stylus", to: "css", parser: "css", build: scripted(stylusFunction, "compress")},
	{from: "coffeescript", to: "js", parser: "babel", build: scripted(coffeeScriptFunction, "bare")},
	{from: "svg", to: "react", parser: "babel", build: scripted(svgFunction, "icon", "native", "dimensions", "ref", "memo")},
	{from: "html", to: "react-jsx", parser: "babel", build: scripted(htmlFunction)},
	{from: "flow", to: "js", parser: "babel", build: scripted(flowFunction)},
	{from: "typescript", to: "js", parser: "babel", build: func(rt *transform.Runtime) transform.Capability {
		return &typescript{fallback: scripted(typescriptFunction)(rt)}
	}},
}

// Entries builds the dispatch table entries backed by rt. Every entry runs
// the prettier pass when a request carries format options.
func Entries(rt *transform.Runtime) []transform.Entry {
	prettier := NewPrettier(rt)

	entries := make([]transform.Entry, 0, len(definitions))
	for _, d := range definitions {
		entries = append(entries, transform.Entry{
			From: d.from,
			To:   d.to,
			Capability: &formatted{
				next:     d.build(rt),
				prettier: prettier,
				parser:   d.parser,
			},
		})
	}
	return entries
}

// Supported lists the pairs Entries registers without needing a Runtime.
func Supported() []transform.Pair {
	pairs := make([]transform.Pair, len(definitions))
	for i, d := range definitions {
		pairs[i] = transform.Pair{From: d.from, To: d.to}
	}
	return pairs
}
