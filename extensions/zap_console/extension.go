package zap_console

import (
	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/dop251/goja_nodejs/util"
	"go.uber.org/zap"
)

const ModuleName = "node:console"

type Console struct {
	runtime *goja.Runtime
	util    *goja.Object
	logger  *zap.Logger
}

// print formats the arguments with util.format and logs them at the given
// level. Vendor bundles tend to be chatty, so debug and log are separated.
func (c *Console) print(level func(msg string, fields ...zap.Field)) func(goja.FunctionCall, *goja.Runtime) goja.Value {
	return func(call goja.FunctionCall, vm *goja.Runtime) goja.Value {
		format, ok := goja.AssertFunction(c.util.Get("format"))
		if !ok {
			panic(c.runtime.NewTypeError("util.format is not a function"))
		}

		ret, err := format(c.util, call.Arguments...)
		if err != nil {
			panic(err)
		}

		fields := make([]zap.Field, 0, 3)
		stacks := vm.CaptureCallStack(2, nil)
		if len(stacks) > 1 {
			caller := stacks[1]
			fields = append(fields,
				zap.String("position", caller.Position().String()),
				zap.String("funcName", caller.FuncName()),
				zap.String("bundle", caller.SrcName()),
			)
		}

		level(ret.String(), fields...)

		return goja.Undefined()
	}
}

// RequireWithLogger returns a console module that writes to logger.
func RequireWithLogger(logger *zap.Logger) require.ModuleLoader {
	return func(runtime *goja.Runtime, module *goja.Object) {
		c := &Console{
			runtime: runtime,
			logger:  logger.Named("script"),
		}

		c.util = require.Require(runtime, util.ModuleName).(*goja.Object)

		o := module.Get("exports").(*goja.Object)
		o.Set("log", c.print(c.logger.Info))
		o.Set("info", c.print(c.logger.Info))
		o.Set("debug", c.print(c.logger.Debug))
		o.Set("warn", c.print(c.logger.Warn))
		o.Set("error", c.print(c.logger.Error))
	}
}

// Enable sets the global console. The module must already be registered.
func Enable(runtime *goja.Runtime) {
	runtime.Set("console", require.Require(runtime, ModuleName))
}
