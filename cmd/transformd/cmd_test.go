package main

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"testing"

	"go.miragespace.co/transform/config"

	"github.com/stretchr/testify/require"
)

func TestServeFlagsOverrideConfig(t *testing.T) {
	as := require.New(t)

	cmd := newServeCmd(&rootOptions{})
	as.NoError(cmd.Flags().Parse([]string{"--addr", ":9000", "--shards", "3"}))

	cfg := config.Default()
	flags := &serveFlags{}
	flags.addr = ":9000"
	flags.shards = 3
	flags.apply(cmd.Flags(), &cfg)

	as.Equal(":9000", cfg.HTTP.Addr)
	as.Equal(3, cfg.Runtime.Shards)
	as.Equal(config.Default().Runtime.Bundles, cfg.Runtime.Bundles)
	as.Equal(config.Default().Log.Level, cfg.Log.Level)
}

func TestServeFlagsFixInvalidEnv(t *testing.T) {
	as := require.New(t)

	t.Setenv("TRANSFORM_RUNTIME__SHARDS", "0")

	cmd := newServeCmd(&rootOptions{})
	flags := &serveFlags{}
	_, err := flags.load(cmd.Flags(), "")
	as.Error(err)

	cmd = newServeCmd(&rootOptions{})
	as.NoError(cmd.Flags().Parse([]string{"--shards", "2"}))
	flags.shards = 2
	cfg, err := flags.load(cmd.Flags(), "")
	as.NoError(err)
	as.Equal(2, cfg.Runtime.Shards)
}

func TestServeMissingConfigFile(t *testing.T) {
	as := require.New(t)

	cmd := newServeCmd(&rootOptions{})
	flags := &serveFlags{}
	_, err := flags.load(cmd.Flags(), filepath.Join(t.TempDir(), "missing.yaml"))
	as.ErrorIs(err, fs.ErrNotExist)
}

func TestPairsCommand(t *testing.T) {
	as := require.New(t)

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs([]string{"pairs"})

	as.NoError(root.Execute())
	as.Contains(out.String(), "babel\tjs\n")
	as.Contains(out.String(), "html\treact-jsx\n")
	as.Contains(out.String(), "typescript\tjs\n")
}
