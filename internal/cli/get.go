package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var legalOutputTypes = []string{jsonFormat, yamlFormat}

const (
	RunKind             = "run"
	ExposureVersionKind = "exposure-version"
	LocationKind        = "location"
	ExceptionKind       = "exception"
	HazardDatasetKind   = "hazard-dataset"
	HazardVersionKind   = "hazard-version"
	OverlayKind         = "overlay"
	RollupConfigKind    = "rollup-config"
	RollupKind          = "rollup"
	ThresholdRuleKind   = "threshold-rule"
	BreachKind          = "breach"
	AuditEventKind      = "audit-event"
)

var getKinds = []string{
	RunKind, ExposureVersionKind, LocationKind, ExceptionKind,
	HazardDatasetKind, HazardVersionKind, OverlayKind, RollupConfigKind,
	RollupKind, ThresholdRuleKind, BreachKind, AuditEventKind,
}

type GetOptions struct {
	GlobalOptions

	Output string
	Status string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   "get (TYPE | TYPE/ID)",
		Short: "Display one or many resources.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
	fs.StringVar(&o.Status, "status", o.Status, "Filter runs or breaches by status")
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, _, err := parseKindId(args[0])
	if err != nil {
		return err
	}
	if !funk.Contains(getKinds, kind) {
		return fmt.Errorf("unsupported resource kind %q, one of: %s", kind, strings.Join(getKinds, ", "))
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error { // nolint: gocyclo
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	kind, id, err := parseKindId(args[0])
	if err != nil {
		return err
	}

	var response any
	switch {
	case kind == RunKind && id != nil:
		response, err = svc.GetRun(ctx, *id)
	case kind == RunKind:
		response, err = svc.ListRuns(ctx, o.Status)
	case kind == ExposureVersionKind && id != nil:
		response, err = svc.ExposureSummary(ctx, *id)
	case kind == ExposureVersionKind:
		response, err = svc.ListExposureVersions(ctx)
	case kind == LocationKind && id != nil:
		response, err = svc.ExposureLocations(ctx, *id, nil)
	case kind == ExceptionKind && id != nil:
		response, err = svc.ExposureExceptions(ctx, *id)
	case kind == HazardDatasetKind:
		response, err = svc.ListHazardDatasets(ctx)
	case kind == HazardVersionKind && id != nil:
		response, err = svc.ListHazardVersions(ctx, *id)
	case kind == OverlayKind && id != nil:
		response, err = svc.OverlaySummary(ctx, *id)
	case kind == RollupConfigKind:
		response, err = svc.ListRollupConfigs(ctx)
	case kind == RollupKind && id != nil:
		response, err = svc.RollupRows(ctx, *id)
	case kind == ThresholdRuleKind:
		response, err = svc.ListThresholdRules(ctx)
	case kind == BreachKind:
		query := map[string]string{}
		if o.Status != "" {
			query["status"] = o.Status
		}
		response, err = svc.ListBreaches(ctx, query)
	case kind == AuditEventKind:
		response, err = svc.ListAuditEvents(ctx, nil)
	default:
		return fmt.Errorf("%s requires an id (use %s/ID)", kind, kind)
	}
	if err != nil {
		return describeError(err)
	}

	if o.Output != "" {
		return printEncoded(response, o.Output)
	}
	return printTable(response)
}

func printTable(response any) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	switch items := response.(type) {
	case []api.Run:
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS")
		for _, r := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\n", r.Id, r.RunType, r.Status)
		}
	case *api.Run:
		fmt.Fprintln(w, "ID\tTYPE\tSTATUS")
		fmt.Fprintf(w, "%d\t%s\t%s\n", items.Id, items.RunType, items.Status)
	case []api.ExposureVersion:
		fmt.Fprintln(w, "ID\tNAME\tUPLOAD\tCREATED")
		for _, ev := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", ev.Id, ev.Name, ev.UploadId, ev.CreatedAt)
		}
	case []api.HazardDataset:
		fmt.Fprintln(w, "ID\tNAME\tPERIL\tVENDOR")
		for _, d := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.Id, d.Name, d.Peril, d.Vendor)
		}
	case []api.Breach:
		fmt.Fprintln(w, "ID\tRULE\tSTATUS\tMETRIC\tVALUE\tTHRESHOLD")
		for _, b := range items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", b.Id, b.RuleName, b.Status, b.MetricName,
				floatOrEmpty(b.MetricValue), floatOrEmpty(b.ThresholdValue))
		}
	default:
		// no table rendering for this kind; fall back to json
		return printEncoded(response, jsonFormat)
	}
	return nil
}

func floatOrEmpty(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
