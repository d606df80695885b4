package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/riskfabric/riskctl/internal/cli"
)

func main() {
	command := NewRiskCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRiskCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "riskctl [flags] [options]",
		Short: "riskctl drives the Risk Fabric analytics service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdLogin())
	cmd.AddCommand(cli.NewCmdUpload())
	cmd.AddCommand(cli.NewCmdValidate())
	cmd.AddCommand(cli.NewCmdCommit())
	cmd.AddCommand(cli.NewCmdGeocode())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdCreate())
	cmd.AddCommand(cli.NewCmdOverlay())
	cmd.AddCommand(cli.NewCmdRollup())
	cmd.AddCommand(cli.NewCmdBreach())
	cmd.AddCommand(cli.NewCmdWatch())
	cmd.AddCommand(cli.NewCmdUnderwrite())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
