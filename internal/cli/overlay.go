package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

type OverlayOptions struct {
	GlobalOptions

	ExposureVersionId int64
	HazardVersionIds  []int64
	Wait              bool
}

func DefaultOverlayOptions() *OverlayOptions {
	return &OverlayOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdOverlay() *cobra.Command {
	o := DefaultOverlayOptions()
	cmd := &cobra.Command{
		Use:          "overlay",
		Short:        "Overlay hazard dataset versions onto an exposure version",
		Example:      "overlay --exposure-version 12 --hazard-versions 3,4",
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
	markRequired(cmd, "exposure-version", "hazard-versions")
	return cmd
}

func (o *OverlayOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.Int64Var(&o.ExposureVersionId, "exposure-version", o.ExposureVersionId, "Exposure version to overlay (required)")
	fs.Int64SliceVar(&o.HazardVersionIds, "hazard-versions", o.HazardVersionIds, "Hazard dataset version ids (required)")
	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Poll each overlay run until it reaches a terminal status")
}

func (o *OverlayOptions) Run(ctx context.Context, args []string) error {
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	resp, err := svc.CreateOverlays(ctx, api.HazardOverlayRequest{
		ExposureVersionId:       o.ExposureVersionId,
		HazardDatasetVersionIds: o.HazardVersionIds,
	})
	if err != nil {
		return describeError(err)
	}

	for _, ref := range resp.OverlayRequests {
		fmt.Printf("overlay run %d submitted for hazard version %d\n", ref.RunId, ref.HazardDatasetVersionId)
	}
	if !o.Wait {
		return nil
	}

	// overlays for different hazard versions are independent runs; waiting
	// for them one at a time keeps output readable
	for _, ref := range resp.OverlayRequests {
		run, err := waitForRun(ctx, svc, ref.RunId)
		if err != nil {
			return err
		}
		if run.Status == api.RunStatusFailed {
			return fmt.Errorf("overlay run %d failed", run.Id)
		}
	}
	return nil
}
