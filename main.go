/*
This is an example of application that will use the
engine package to test things out
*/
package main

import (
	"context"
	"flag"
	"os"

	"github.com/spaghettifunk/phm/engine"
	"github.com/spaghettifunk/phm/engine/core"
	"github.com/spaghettifunk/phm/testbed"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration")
	flag.Parse()

	if err := run(*configPath); err != nil {
		core.LogError("%+v", err)
		os.Exit(1)
	}
}

func run(configPath string) (err error) {
	config, err := engine.LoadConfig(configPath)
	if err != nil {
		return err
	}

	e, err := engine.New(testbed.NewTestGame(config).Game)
	if err != nil {
		return err
	}
	defer func() {
		if shutdownErr := e.Shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()

	ctx := context.Background()
	if err := e.Initialize(ctx); err != nil {
		return err
	}
	return e.Run(ctx)
}
