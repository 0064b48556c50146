package gconn

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/yinyihanbing/gconn/cluster"
	"github.com/yinyihanbing/gconn/console"
	"github.com/yinyihanbing/gconn/module"
	"github.com/yinyihanbing/gutils/logs"
)

// Run starts the application: it registers and initializes the given
// modules, brings up the cluster and console services, and blocks until a
// termination signal arrives.
func Run(mods ...module.Module) {
	logs.Info("gconn starting up")

	// register and initialize modules
	for i := range len(mods) {
		module.Register(mods[i])
	}
	module.Init()

	// initialize cluster
	cluster.Init()

	// initialize console
	console.Init()

	// wait for termination signal
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	logs.Info("gconn closing down (signal: %v)", sig)
	Stop()
}

// Stop gracefully shuts down the application.
func Stop() {
	console.Destroy()
	cluster.Destroy()
	module.Destroy()
}
