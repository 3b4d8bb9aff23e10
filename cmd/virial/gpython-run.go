package main

import (
	"time"

	"github.com/go-python/gpython/py"
	"github.com/go-python/gpython/repl"
	"github.com/go-python/gpython/repl/cli"
	"github.com/plan-systems/klog"

	_ "github.com/fine-structures/virial/pyvirial"
	_ "github.com/go-python/gpython/stdlib"
)

// replPrelude runs in the REPL's module before the first prompt.
const replPrelude = "import virial"

// runScript executes a virial script with argv as its sys.argv, or opens a REPL with
// the virial module already imported when pathname is empty.
func runScript(pathname string, argv []string) error {
	opts := py.DefaultContextOpts()
	opts.SysArgs = append([]string{pathname}, argv...)
	ctx := py.NewContext(opts)
	defer func() {
		ctx.Close()
		<-ctx.Done()
	}()

	if pathname == "" {
		replCtx := repl.New(ctx)
		if _, err := py.RunSrc(ctx, replPrelude, "<prelude>", replCtx.Module); err != nil {
			return err
		}
		cli.RunREPL(replCtx)
		return nil
	}

	start := time.Now()
	klog.Infof("script: running %q", pathname)
	if _, err := py.RunFile(ctx, pathname, py.CompileOpts{}, nil); err != nil {
		return err
	}
	klog.Infof("script: %q finished in %v", pathname, time.Since(start))
	return nil
}
