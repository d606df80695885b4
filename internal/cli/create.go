package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

type CreateOptions struct {
	GlobalOptions

	FilePath string
}

func DefaultCreateOptions() *CreateOptions {
	return &CreateOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdCreate() *cobra.Command {
	o := DefaultCreateOptions()
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create hazard datasets, rollup configs, and threshold rules.",
	}

	cmd.AddCommand(o.newHazardDatasetCmd())
	cmd.AddCommand(o.newHazardVersionCmd())
	cmd.AddCommand(o.newRollupConfigCmd())
	cmd.AddCommand(o.newThresholdRuleCmd())
	return cmd
}

func (o *CreateOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.FilePath, "filename", "f", o.FilePath, "Path to the yaml/json definition (required)")
}

func (o *CreateOptions) decodeFile(out any) error {
	contents, err := os.ReadFile(o.FilePath)
	if err != nil {
		return fmt.Errorf("reading %q: %w", o.FilePath, err)
	}
	if err := yaml.Unmarshal(contents, out); err != nil {
		return fmt.Errorf("decoding %q: %w", o.FilePath, err)
	}
	return nil
}

func (o *CreateOptions) runE(run func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
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

func (o *CreateOptions) newHazardDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "hazard-dataset",
		Short:        "Register a hazard dataset",
		SilenceUsage: true,
	}
	cmd.RunE = o.runE(func(ctx context.Context, args []string) error {
		var req api.HazardDatasetCreate
		if err := o.decodeFile(&req); err != nil {
			return err
		}
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		dataset, err := svc.CreateHazardDataset(ctx, req)
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("hazard dataset %d created\n", dataset.Id)
		return nil
	})
	o.Bind(cmd.Flags())
	markRequired(cmd, "filename")
	return cmd
}

func (o *CreateOptions) newHazardVersionCmd() *cobra.Command {
	var datasetID int64
	var versionLabel string
	cmd := &cobra.Command{
		Use:          "hazard-version",
		Short:        "Upload a GeoJSON hazard dataset version",
		SilenceUsage: true,
	}
	cmd.RunE = o.runE(func(ctx context.Context, args []string) error {
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		file, err := os.Open(o.FilePath)
		if err != nil {
			return err
		}
		defer file.Close()
		version, err := svc.UploadHazardVersion(ctx, datasetID, versionLabel, filepath.Base(o.FilePath), file)
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("hazard dataset version %d created\n", version.Id)
		return nil
	})
	o.Bind(cmd.Flags())
	cmd.Flags().Int64Var(&datasetID, "dataset", 0, "Hazard dataset id (required)")
	cmd.Flags().StringVar(&versionLabel, "version-label", "", "Label for the new version (required)")
	markRequired(cmd, "filename", "dataset", "version-label")
	return cmd
}

func (o *CreateOptions) newRollupConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "rollup-config",
		Short:        "Create a rollup aggregation config",
		SilenceUsage: true,
	}
	cmd.RunE = o.runE(func(ctx context.Context, args []string) error {
		var req api.RollupConfigCreate
		if err := o.decodeFile(&req); err != nil {
			return err
		}
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		config, err := svc.CreateRollupConfig(ctx, req)
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("rollup config %d created\n", config.Id)
		return nil
	})
	o.Bind(cmd.Flags())
	markRequired(cmd, "filename")
	return cmd
}

func (o *CreateOptions) newThresholdRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "threshold-rule",
		Short:        "Create a threshold rule used for breach evaluation",
		SilenceUsage: true,
	}
	cmd.RunE = o.runE(func(ctx context.Context, args []string) error {
		var req api.ThresholdRuleCreate
		if err := o.decodeFile(&req); err != nil {
			return err
		}
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		rule, err := svc.CreateThresholdRule(ctx, req)
		if err != nil {
			return describeError(err)
		}
		fmt.Printf("threshold rule %d created\n", rule.Id)
		return nil
	})
	o.Bind(cmd.Flags())
	markRequired(cmd, "filename")
	return cmd
}

func markRequired(cmd *cobra.Command, flags ...string) {
	for _, flag := range flags {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
}
