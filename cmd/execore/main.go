// Command execore is the CLI front end for the execore engine: run a wasm
// module against a genesis snapshot (exec), path-query a snapshot (query),
// or expose a debug HTTP wrapper over both (serve). None of this is part of
// the core/runtime library surface — cmd/execore is the orchestration layer
// the spec's Non-goals deliberately exclude from core (spec.md §1).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"execore/pkg/config"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	if _, err := config.LoadFromEnv(); err != nil {
		logrus.WithError(err).Warn("loading config failed, using defaults")
		config.AppConfig = config.Default()
	}

	root := &cobra.Command{
		Use:   "execore",
		Short: "deterministic smart-contract execution engine CLI",
	}
	root.AddCommand(newExecCmd())
	root.AddCommand(newQueryCmd())
	root.AddCommand(newServeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
