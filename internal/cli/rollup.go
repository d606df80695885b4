package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

type RollupOptions struct {
	GlobalOptions

	ExposureVersionId int64
	RollupConfigId    int64
	OverlayResultIds  []int64
	Wait              bool
}

func DefaultRollupOptions() *RollupOptions {
	return &RollupOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdRollup() *cobra.Command {
	o := DefaultRollupOptions()
	cmd := &cobra.Command{
		Use:          "rollup",
		Short:        "Aggregate an exposure version through a rollup config",
		Example:      "rollup --exposure-version 12 --rollup-config 2 --wait",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	markRequired(cmd, "exposure-version", "rollup-config")
	return cmd
}

func (o *RollupOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.Int64Var(&o.ExposureVersionId, "exposure-version", o.ExposureVersionId, "Exposure version to aggregate (required)")
	fs.Int64Var(&o.RollupConfigId, "rollup-config", o.RollupConfigId, "Rollup config id (required)")
	fs.Int64SliceVar(&o.OverlayResultIds, "overlay-results", o.OverlayResultIds, "Overlay result ids to include")
	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Poll the rollup run until it reaches a terminal status")
}

func (o *RollupOptions) Run(ctx context.Context, args []string) error {
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	resp, err := svc.CreateRollup(ctx, api.RollupCreate{
		ExposureVersionId: o.ExposureVersionId,
		RollupConfigId:    o.RollupConfigId,
		OverlayResultIds:  o.OverlayResultIds,
	})
	if err != nil {
		return describeError(err)
	}
	fmt.Printf("rollup %d submitted (run %d)\n", resp.Id, resp.RunId)
	if !o.Wait {
		return nil
	}

	run, err := waitForRun(ctx, svc, resp.RunId)
	if err != nil {
		return err
	}
	if run.Status == api.RunStatusFailed {
		return fmt.Errorf("rollup run %d failed", run.Id)
	}

	rows, err := svc.RollupRows(ctx, resp.Id)
	if err != nil {
		return describeError(err)
	}
	return printEncoded(rows, jsonFormat)
}
