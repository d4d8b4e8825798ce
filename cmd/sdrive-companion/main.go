package main

import (
	"os"

	_ "go.uber.org/automaxprocs"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app"
	"github.com/safedrive-io/safedrive/pkg/log"
)

func main() {
	cmd := app.NewCompanionCommand()
	if err := cmd.Execute(); err != nil {
		log.Error(err, "Command failed")
		os.Exit(1)
	}
}
