package main

import (
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/cmccoy02/bridge-engine/cmd"
)

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	if err := cmd.Execute(); err != nil {
		logger.Errorf("Error executing 'bridge': %s", err)
		os.Exit(1)
	}
}
