package controllers

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

// exitFunc terminates the process; replaced in tests.
type exitFunc func(code int)

// loadSettings resolves --config (or searches the standard locations) and
// returns the validated fleet settings.
func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		var err error
		configPath, err = entities.FindConfigFile()
		if err != nil {
			return nil, entities.Errorf(entities.ConfigErr,
				"no config file found: %w\nSpecify one with --config or add [tool.conductor] to pyproject.toml", err)
		}
	}
	logger.Infof("Using config file: %s", configPath)

	return entities.NewSettings(configPath)
}

// interruptedExitCode is the shell convention for a process stopped by SIGINT.
const interruptedExitCode = 130

// fail logs err as "<CODE>: message" and exits with the code it carries.
// An interrupt exits with 130; any other error without a code exits with 1.
func fail(exit exitFunc, err error) {
	if errors.Is(err, context.Canceled) {
		logger.Warn("Interrupted, stopping before the next step")
		exit(interruptedExitCode)
		return
	}

	code := entities.CodeOf(err)
	if code == 0 {
		code = entities.ConfigErr
		err = entities.NewReleaseError(code, err)
	}
	logger.Error(err)
	exit(int(code))
}
