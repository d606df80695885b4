package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

func NewCmdWatch() *cobra.Command {
	o := DefaultGlobalOptions()
	cmd := &cobra.Command{
		Use:          "watch RUN_ID",
		Short:        "Poll a run until it reaches a terminal status.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), &o, args[0])
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func runWatch(ctx context.Context, o *GlobalOptions, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", arg, err)
	}
	svc, _, err := o.Service()
	if err != nil {
		return err
	}
	run, err := waitForRun(ctx, svc, id)
	if err != nil {
		return err
	}
	if run.Status == api.RunStatusFailed {
		return fmt.Errorf("run %d failed", run.Id)
	}
	return printEncoded(run, jsonFormat)
}
