package transform

import (
	"errors"
	"io/fs"
	"path"
	"strings"

	"github.com/dop251/goja_nodejs/require"
)

func bundleLoader(bundles fs.FS) require.SourceLoader {
	return func(name string) ([]byte, error) {
		name = path.Clean(strings.TrimPrefix(name, "/"))
		if !fs.ValidPath(name) {
			return nil, require.ModuleFileDoesNotExistError
		}

		b, err := fs.ReadFile(bundles, name)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, require.ModuleFileDoesNotExistError
		}
		return b, err
	}
}
