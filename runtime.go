package transform

import (
	"fmt"
	"io/fs"
	"runtime"
	"sync/atomic"
	"time"

	"go.miragespace.co/transform/extensions/promise"
	"go.miragespace.co/transform/extensions/zap_console"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/sys/cpu"
)

var ErrRuntimeStopped = fmt.Errorf("script runtime is stopped")

// RuntimeConfig configures a Runtime.
type RuntimeConfig struct {
	// Shards is the number of JavaScript event loops. Calls are distributed
	// round-robin.
	Shards int
	// Bundles holds the vendor libraries, loaded with require("./<name>").
	Bundles fs.FS
}

// Runtime hosts the JavaScript libraries that implement most capabilities.
type Runtime struct {
	logger    *zap.Logger
	bundles   fs.FS
	programs  *xsync.MapOf[string, *goja.Program]
	compile   singleflight.Group
	shards    []atomic.Pointer[runtimeInstance]
	_         cpu.CacheLinePad
	nextShard uint32
	_         cpu.CacheLinePad
	numShards int
}

// NewRuntime returns a new script runtime with every shard started. Use
// shards > 1 to spread calls over multiple JavaScript runtimes; each shard
// loads its own copy of the bundles, so memory grows linearly.
func NewRuntime(logger *zap.Logger, config RuntimeConfig) (*Runtime, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	if config.Shards < 1 {
		return nil, fmt.Errorf("shards cannot be smaller than 1")
	}

	if config.Bundles == nil {
		return nil, fmt.Errorf("bundles cannot be nil")
	}

	rt := &Runtime{
		logger:    logger,
		bundles:   config.Bundles,
		programs:  xsync.NewMapOf[*goja.Program](),
		shards:    make([]atomic.Pointer[runtimeInstance], config.Shards),
		numShards: config.Shards,
	}

	for i := range rt.shards {
		rt.shards[i].Store(nilInstance)
	}

	if err := rt.Reload(false); err != nil {
		rt.Stop(true)
		return nil, err
	}

	logger.Info("Script runtime configured",
		zap.Int("shards", config.Shards),
	)

	return rt, nil
}

// Reload replaces every shard with a fresh runtime so updated bundles are
// picked up on the next call. Calls already running on the old shards
// settle there before those loops stop. Specifying interrupt will interrupt
// the old VMs instead, failing their outstanding calls with
// ErrRuntimeStopped.
func (rt *Runtime) Reload(interrupt bool) error {
	// force GC on reload
	defer runtime.GC()

	// one registry per generation so the compiled bundle cache is shared
	// between shards but not kept across reloads
	registry := require.NewRegistryWithLoader(bundleLoader(rt.bundles))
	registry.RegisterNativeModule(zap_console.ModuleName, zap_console.RequireWithLogger(rt.logger))

	start := time.Now()
	for i := range rt.shards {
		instance, err := rt.getInstance(registry)
		if err != nil {
			return err
		}

		old := rt.shards[i].Swap(instance)
		if old != nilInstance {
			old.stop(interrupt)
		}
	}

	rt.logger.Info("All shards reloaded",
		zap.Duration("duration", time.Since(start)),
		zap.Int("shards", rt.numShards),
	)

	return nil
}

// shardRun hands the next shard to fn. fn returns false when the shard was
// retired underneath it by a concurrent Reload, then the replacement is used.
func (rt *Runtime) shardRun(fn func(instance *runtimeInstance) bool) error {
	n := atomic.AddUint32(&rt.nextShard, 1)
	shard := &rt.shards[int(n%uint32(rt.numShards))]
	for {
		instance := shard.Load()
		if instance == nilInstance {
			return ErrRuntimeStopped
		}
		if fn(instance) {
			return nil
		}
	}
}

func (rt *Runtime) getInstance(registry *require.Registry) (instance *runtimeInstance, err error) {
	eventLoop := eventloop.NewEventLoop(
		eventloop.EnableConsole(false),
		eventloop.WithRegistry(registry),
	)
	eventLoop.Start()

	defer func() {
		if err != nil {
			eventLoop.StopNoWait()
		}
	}()

	instance = &runtimeInstance{
		logger:    rt.logger,
		eventLoop: eventLoop,
		functions: make(map[string]goja.Value),
		pending:   make(map[chan<- callResult]struct{}),
	}

	instance.resolver, err = promise.NewResolver(eventLoop)
	if err != nil {
		return
	}

	err = <-instance.prepareInstance()

	return
}

// Stop stops every shard. Calls made afterwards fail with ErrRuntimeStopped.
func (rt *Runtime) Stop(interrupt bool) {
	for i := range rt.shards {
		old := rt.shards[i].Swap(nilInstance)
		if old != nilInstance {
			old.stop(interrupt)
		}
	}
}
