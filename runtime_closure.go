package transform

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	pool "github.com/libp2p/go-buffer-pool"
)

const closure = `(({{.Params}}) => ({{.Function}})({{.Params}}))({{.Requires}})`

var closureTemplate = template.Must(template.New("bundles").Parse(closure))

// bindBundles wraps the glue factory so that its bundles are required when
// the program runs, once per shard.
func bindBundles(fn *Function) (string, error) {
	if fn.Name == "" || strings.Contains(fn.Name, "/") {
		return "", fmt.Errorf("invalid function name %q", fn.Name)
	}

	params := make([]string, len(fn.Bundles))
	requires := make([]string, len(fn.Bundles))
	for i, bundle := range fn.Bundles {
		params[i] = "__bundle" + strconv.Itoa(i)
		requires[i] = "require(" + strconv.Quote("./"+strings.TrimPrefix(bundle, "./")) + ")"
	}

	b := pool.NewBuffer(nil)
	defer b.Reset()

	err := closureTemplate.Execute(b, struct {
		Params   string
		Function string
		Requires string
	}{
		Params:   strings.Join(params, ", "),
		Function: strings.TrimSuffix(strings.TrimSpace(fn.Source), ";"),
		Requires: strings.Join(requires, ", "),
	})
	if err != nil {
		return "", err
	}

	return b.String(), nil
}
