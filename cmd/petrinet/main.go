// Command petrinet is the CLI adapter over pkg/engine: verify, simulate
// and project a workflow's Petri net.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lyzr/petrinet/common/config"
	"github.com/lyzr/petrinet/common/logger"
)

// AppContext bundles the ambient services every subcommand needs and is
// threaded into each newXCmd constructor.
type AppContext struct {
	Logger *logger.Logger
	Config *config.Config
}

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	app := &AppContext{Logger: log, Config: cfg}

	root := newRootCmd(app)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}
