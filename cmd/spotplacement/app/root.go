package app

import (
	"context"
	"flag"

	"github.com/spf13/cobra"
)

func NewRootCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "spotplacement",
		Long:         "check Azure spot VM placement scores from the browser or the terminal",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	cmd.AddCommand(
		NewServeCommand(ctx),
		NewCheckCommand(ctx),
		NewListCommand(ctx),
	)
	return cmd
}
