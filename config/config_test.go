package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	as := require.New(t)

	cfg, err := Load("")
	as.NoError(err)
	as.Equal(Default(), cfg)
	as.Equal(":2017", cfg.HTTP.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	as := require.New(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	as.ErrorIs(err, fs.ErrNotExist)
}

func TestLoadLeavesValidationToCaller(t *testing.T) {
	as := require.New(t)

	t.Setenv("TRANSFORM_RUNTIME__SHARDS", "0")

	cfg, err := Load("")
	as.NoError(err)
	as.Equal(0, cfg.Runtime.Shards)
	as.Error(cfg.Validate())

	cfg.Runtime.Shards = 2
	as.NoError(cfg.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	as := require.New(t)

	path := filepath.Join(t.TempDir(), "transformd.yaml")
	as.NoError(os.WriteFile(path, []byte(`
http:
  addr: ":8080"
  shutdown_timeout: 3s
runtime:
  shards: 2
log:
  level: debug
`), 0o644))

	t.Setenv("TRANSFORM_RUNTIME__BUNDLES", "/srv/bundles")
	t.Setenv("TRANSFORM_RUNTIME__SHARDS", "4")

	cfg, err := Load(path)
	as.NoError(err)
	as.Equal(":8080", cfg.HTTP.Addr)
	as.Equal(3*time.Second, cfg.HTTP.ShutdownTimeout)
	as.Equal(4, cfg.Runtime.Shards)
	as.Equal("/srv/bundles", cfg.Runtime.Bundles)
	as.Equal("debug", cfg.Log.Level)
	as.False(cfg.Log.Development)
}

func TestValidate(t *testing.T) {
	as := require.New(t)

	cfg := Default()
	cfg.Runtime.Shards = 0
	as.Error(cfg.Validate())

	cfg = Default()
	cfg.HTTP.Addr = ""
	as.Error(cfg.Validate())

	cfg = Default()
	cfg.Runtime.Bundles = ""
	as.Error(cfg.Validate())
}
