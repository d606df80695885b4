package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
	"github.com/riskfabric/riskctl/internal/enrichment"
)

type UnderwriteOptions struct {
	GlobalOptions

	AddressLine1 string
	City         string
	StateRegion  string
	PostalCode   string
	Country      string

	WaitSeconds     int
	MaxAttempts     int
	RetryDelay      time.Duration
	BestEffort      bool
	EnrichMode      string
	IncludeDecision bool
	Output          string
}

func DefaultUnderwriteOptions() *UnderwriteOptions {
	return &UnderwriteOptions{
		GlobalOptions:   DefaultGlobalOptions(),
		Country:         "US",
		MaxAttempts:     enrichment.DefaultMaxAttempts,
		RetryDelay:      enrichment.DefaultDelay,
		BestEffort:      true,
		EnrichMode:      "auto",
		IncludeDecision: true,
	}
}

func NewCmdUnderwrite() *cobra.Command {
	o := DefaultUnderwriteOptions()
	cmd := &cobra.Command{
		Use:          "underwrite",
		Short:        "Produce an underwriting packet for an address.",
		Example:      `underwrite --address-line1 "123 Market St" --city "San Francisco" --state CA --wait-seconds 3`,
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
	markRequired(cmd, "address-line1", "city", "state")
	return cmd
}

func (o *UnderwriteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.AddressLine1, "address-line1", o.AddressLine1, "Street address (required)")
	fs.StringVar(&o.City, "city", o.City, "City (required)")
	fs.StringVar(&o.StateRegion, "state", o.StateRegion, "State or region (required)")
	fs.StringVar(&o.PostalCode, "postal-code", o.PostalCode, "Postal code")
	fs.StringVar(&o.Country, "country", o.Country, "Country code")
	fs.IntVar(&o.WaitSeconds, "wait-seconds", o.WaitSeconds, "Wait budget for enrichment; 0 returns a queued placeholder immediately")
	fs.IntVar(&o.MaxAttempts, "max-attempts", o.MaxAttempts, "Total attempt budget while the packet is queued")
	fs.DurationVar(&o.RetryDelay, "retry-delay", o.RetryDelay, "Delay between automatic retries")
	fs.BoolVar(&o.BestEffort, "best-effort", o.BestEffort, "Return partial packets when some perils are missing")
	fs.StringVar(&o.EnrichMode, "enrich-mode", o.EnrichMode, "Enrichment mode (auto, force, skip)")
	fs.BoolVar(&o.IncludeDecision, "include-decision", o.IncludeDecision, "Include the underwriting decision")
	fs.StringVarP(&o.Output, "output", "o", o.Output, "Output format. One of: (json, yaml).")
}

func (o *UnderwriteOptions) Run(ctx context.Context, args []string) error {
	svc, _, err := o.Service()
	if err != nil {
		return err
	}

	retrier := enrichment.New(svc,
		enrichment.WithMaxAttempts(o.MaxAttempts),
		enrichment.WithDelay(o.RetryDelay),
	)
	outcome, err := retrier.Request(ctx, api.UnderwritingPacketRequest{
		Address: api.Address{
			AddressLine1: o.AddressLine1,
			City:         o.City,
			StateRegion:  o.StateRegion,
			PostalCode:   o.PostalCode,
			Country:      o.Country,
		},
		BestEffort:               o.BestEffort,
		WaitForEnrichmentSeconds: o.WaitSeconds,
		EnrichMode:               o.EnrichMode,
		IncludeDecision:          o.IncludeDecision,
	})
	if err != nil {
		return describeError(err)
	}

	if outcome.Queued != nil {
		fmt.Printf("enrichment queued (run %d, %d automatic retries)\n", outcome.Queued.RunId, outcome.AutoRetries)
		if outcome.Queued.Message != "" {
			fmt.Println(outcome.Queued.Message)
		}
		if outcome.RequestID != "" {
			fmt.Printf("request id: %s\n", outcome.RequestID)
		}
		fmt.Println("re-run the command to refresh")
		return nil
	}

	if decision := outcome.Packet.Decision; decision != nil {
		fmt.Printf("decision: %s (confidence %.0f%%)\n", decision.Decision, decision.Confidence*100)
	}
	if outcome.RequestID != "" {
		fmt.Printf("request id: %s\n", outcome.RequestID)
	}
	return printEncoded(outcome.Packet, o.Output)
}
