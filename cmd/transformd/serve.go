package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.miragespace.co/transform"
	"go.miragespace.co/transform/capabilities"
	"go.miragespace.co/transform/config"
	"go.miragespace.co/transform/logging"
	"go.miragespace.co/transform/metrics"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type serveFlags struct {
	addr     string
	bundles  string
	shards   int
	logLevel string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the transform server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load(cmd.Flags(), root.configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringVar(&flags.bundles, "bundles", "", "bundle directory (overrides runtime.bundles)")
	cmd.Flags().IntVar(&flags.shards, "shards", 0, "number of script runtimes (overrides runtime.shards)")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "log level (overrides log.level)")

	return cmd
}

// load reads the configuration at path, applies the command line overrides
// and validates the result.
func (f *serveFlags) load(fs *pflag.FlagSet, path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	f.apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// apply overrides cfg with the flags set on the command line.
func (f *serveFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("addr") {
		cfg.HTTP.Addr = f.addr
	}
	if fs.Changed("bundles") {
		cfg.Runtime.Bundles = f.bundles
	}
	if fs.Changed("shards") {
		cfg.Runtime.Shards = f.shards
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		File:        cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("configuring logger: %w", err)
	}
	defer logger.Sync()

	if st, err := os.Stat(cfg.Runtime.Bundles); err != nil || !st.IsDir() {
		logger.Warn("Bundle directory not found, script capabilities will fail until it exists",
			zap.String("bundles", cfg.Runtime.Bundles),
		)
	}

	rt, err := transform.NewRuntime(logger, transform.RuntimeConfig{
		Shards:  cfg.Runtime.Shards,
		Bundles: os.DirFS(cfg.Runtime.Bundles),
	})
	if err != nil {
		return err
	}
	defer rt.Stop(true)

	registry, err := transform.NewRegistry(capabilities.Entries(rt)...)
	if err != nil {
		return err
	}

	handler := transform.NewHandler(logger, registry, transform.WithObserver(metrics.Transforms{}))

	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: transform.NewRouter(handler),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("ready", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server...")
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				if err := rt.Reload(false); err != nil {
					logger.Error("Reloading bundles failed", zap.Error(err))
				}
			}
		}
	})

	return g.Wait()
}
