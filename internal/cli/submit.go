package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/client"
	"github.com/riskfabric/riskctl/internal/runs"
)

// SubmitOptions is shared by the commands that kick off a background run
// against an existing resource (validate, commit, geocode).
type SubmitOptions struct {
	GlobalOptions

	Name string
	Wait bool
}

func DefaultSubmitOptions() *SubmitOptions {
	return &SubmitOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func (o *SubmitOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.BoolVarP(&o.Wait, "wait", "w", o.Wait, "Poll the run until it reaches a terminal status")
}

func runESubmit(o *SubmitOptions, run func(ctx context.Context, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := o.Complete(cmd, args); err != nil {
			return err
		}
		if err := o.Validate(args); err != nil {
			return err
		}
		return run(cmd.Context(), args)
	}
}

func NewCmdValidate() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:          "validate UPLOAD_ID",
		Short:        "Run data validation on an upload",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	cmd.RunE = runESubmit(o, func(ctx context.Context, args []string) error {
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		ref, err := svc.ValidateUpload(ctx, args[0])
		if err != nil {
			return describeError(err)
		}
		return o.report(ctx, svc, ref.RunId, ref.Status)
	})
	o.Bind(cmd.Flags())
	return cmd
}

func NewCmdCommit() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:          "commit UPLOAD_ID",
		Short:        "Commit a validated upload into an exposure version",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	cmd.RunE = runESubmit(o, func(ctx context.Context, args []string) error {
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		key := client.NewIdempotencyKey()
		resp, err := svc.CommitUpload(ctx, args[0], o.Name, key)
		if err != nil {
			return describeError(err)
		}
		if resp.AlreadyCommitted() {
			fmt.Printf("exposure version %d already exists (%s)\n", resp.ExposureVersionId, resp.Note)
			return nil
		}
		return o.report(ctx, svc, resp.RunId, resp.Status)
	})
	o.Bind(cmd.Flags())
	cmd.Flags().StringVar(&o.Name, "name", o.Name, "Name for the committed exposure version")
	return cmd
}

func NewCmdGeocode() *cobra.Command {
	o := DefaultSubmitOptions()
	cmd := &cobra.Command{
		Use:          "geocode EXPOSURE_VERSION_ID",
		Short:        "Run geocoding over an exposure version",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}
	cmd.RunE = runESubmit(o, func(ctx context.Context, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid exposure version id %q: %w", args[0], err)
		}
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		ref, err := svc.Geocode(ctx, id)
		if err != nil {
			return describeError(err)
		}
		return o.report(ctx, svc, ref.RunId, ref.Status)
	})
	o.Bind(cmd.Flags())
	return cmd
}

// report prints the submitted run and, with --wait, polls it to a terminal
// status, failing the command when the run itself failed.
func (o *SubmitOptions) report(ctx context.Context, svc *client.Service, runID int64, status api.RunStatus) error {
	fmt.Printf("run %d submitted (%s)\n", runID, status)
	if !o.Wait {
		return nil
	}
	run, err := waitForRun(ctx, svc, runID)
	if err != nil {
		return err
	}
	if run.Status == api.RunStatusFailed {
		return fmt.Errorf("run %d failed", run.Id)
	}
	fmt.Printf("run %d %s\n", run.Id, run.Status)
	return nil
}

func waitForRun(ctx context.Context, svc *client.Service, runID int64) (*api.Run, error) {
	poller := runs.NewPoller(svc)
	last := api.RunStatus("")
	run, err := poller.Watch(ctx, runID, func(r *api.Run) {
		if r.Status != last {
			last = r.Status
			fmt.Printf("run %d: %s\n", r.Id, r.Status)
		}
	})
	if err != nil {
		return nil, describeError(err)
	}
	return run, nil
}
