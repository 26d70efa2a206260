package main

import (
	"os"

	"spotplacement/cmd/spotplacement/app"
	"spotplacement/pkg/signals"
)

func main() {
	ctx := signals.SetupSignalHandler()
	if err := app.NewRootCommand(ctx).Execute(); err != nil {
		os.Exit(1)
	}
}
