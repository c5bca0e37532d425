package controllers

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spine-tools/spine-conductor/internal/domain/commands"
	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

const defaultSummaryPath = "pkgtags.json"

// ReleaseController handles the "release" subcommand.
type ReleaseController struct {
	command commands.Release
	exit    exitFunc
}

// NewReleaseController creates a new ReleaseController.
func NewReleaseController(command commands.Release) *ReleaseController {
	return &ReleaseController{command: command, exit: logger.Exit}
}

// GetBind returns the Cobra command metadata for the release controller.
func (it *ReleaseController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "release",
		Short: "Tag a synchronized release of every package in the fleet",
		Long: `Check that every repository is on its release branch, compute the next
version of each package from its commit history, pin intra-fleet dependencies
in pyproject.toml to those versions, commit and tag.

The released versions are written to a JSON summary (pkgtags.json by default)
that "conductor publish" consumes.`,
	}
}

// AddFlags adds the release-specific flags to the given Cobra command.
func (it *ReleaseController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("bump", "b", string(entities.BumpMinor), "Version part to bump (major, minor, patch)")
	cmd.Flags().StringP("output", "o", defaultSummaryPath, "Where to write the tag summary")
	cmd.Flags().StringSlice("only", nil, "Release only these packages")
	cmd.Flags().StringSlice("exclude", nil, "Release every package except these")
}

// Execute runs a release.
func (it *ReleaseController) Execute(cmd *cobra.Command, _ []string) {
	rc, err := it.releaseContext(cmd)
	if err != nil {
		fail(it.exit, err)
		return
	}

	logger.Infof("Releasing %d package(s), bumping %s", len(rc.Settings.Order), rc.Bump)
	summary, err := it.command.Execute(cmd.Context(), rc)
	if err != nil {
		fail(it.exit, err)
		return
	}

	data, err := summary.MarshalJSON()
	if err != nil {
		fail(it.exit, err)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Package tags summary -> %q:\n%s\n", rc.OutputPath, data)
}

func (it *ReleaseController) releaseContext(cmd *cobra.Command) (entities.ReleaseContext, error) {
	rawBump, _ := cmd.Flags().GetString("bump")
	output, _ := cmd.Flags().GetString("output")
	only, _ := cmd.Flags().GetStringSlice("only")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	bump, err := entities.ParseBumpPart(rawBump)
	if err != nil {
		return entities.ReleaseContext{}, err
	}
	fleet, err := loadSettings(cmd)
	if err != nil {
		return entities.ReleaseContext{}, err
	}
	selected, err := fleet.Filter(only, exclude)
	if err != nil {
		return entities.ReleaseContext{}, err
	}
	return entities.ReleaseContext{Settings: selected, Fleet: fleet, Bump: bump, OutputPath: output}, nil
}
