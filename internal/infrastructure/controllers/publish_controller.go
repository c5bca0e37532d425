package controllers

import (
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spine-tools/spine-conductor/internal/domain/commands"
	"github.com/spine-tools/spine-conductor/internal/domain/entities"
)

// PublishController handles the "publish" subcommand.
type PublishController struct {
	command commands.Publish
	exit    exitFunc
}

// NewPublishController creates a new PublishController.
func NewPublishController(command commands.Publish) *PublishController {
	return &PublishController{command: command, exit: logger.Exit}
}

// GetBind returns the Cobra command metadata for the publish controller.
func (it *PublishController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "publish",
		Short: "Push the release branches and tags listed in a tag summary",
		Long: `Read the tag summary written by "conductor release" and, for every package
listed there, push its release branch and then its new tag. When a repository
has several remotes you are asked which one to push to.`,
	}
}

// AddFlags adds the publish-specific flags to the given Cobra command.
func (it *PublishController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "i", defaultSummaryPath, "Tag summary to publish")
	cmd.Flags().Bool("dry-run", false, "Show what would be pushed without pushing")
}

// Execute runs a publish.
func (it *PublishController) Execute(cmd *cobra.Command, _ []string) {
	input, _ := cmd.Flags().GetString("input")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	settings, err := loadSettings(cmd)
	if err != nil {
		fail(it.exit, err)
		return
	}

	if err = it.command.Execute(cmd.Context(), settings, commands.PublishOptions{
		InputPath: input,
		DryRun:    dryRun,
	}); err != nil {
		fail(it.exit, err)
	}
}
