package entities

import "github.com/spf13/cobra"

// ControllerBind is the Cobra metadata a controller contributes.
type ControllerBind struct {
	Use   string
	Short string
	Long  string
}

// Controller is a CLI subcommand.
type Controller interface {
	GetBind() ControllerBind
	Execute(cmd *cobra.Command, arguments []string)
}
