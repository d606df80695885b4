package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	api "github.com/riskfabric/riskctl/api/v1alpha1"
)

func NewCmdBreach() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breach",
		Short: "Evaluate threshold rules and manage breach status.",
	}
	cmd.AddCommand(newBreachEvalCmd())
	cmd.AddCommand(newBreachUpdateCmd())
	return cmd
}

func newBreachEvalCmd() *cobra.Command {
	o := DefaultSubmitOptions()
	var rollupResultID int64
	var ruleIDs []int64
	cmd := &cobra.Command{
		Use:          "eval",
		Short:        "Run breach evaluation over a rollup result",
		SilenceUsage: true,
	}
	cmd.RunE = runESubmit(o, func(ctx context.Context, args []string) error {
		svc, _, err := o.Service()
		if err != nil {
			return err
		}
		ref, err := svc.RunBreachEval(ctx, api.BreachEvalRequest{
			RollupResultId:   rollupResultID,
			ThresholdRuleIds: ruleIDs,
		})
		if err != nil {
			return describeError(err)
		}
		return o.report(ctx, svc, ref.RunId, ref.Status)
	})
	o.Bind(cmd.Flags())
	cmd.Flags().Int64Var(&rollupResultID, "rollup-result", 0, "Rollup result to evaluate (required)")
	cmd.Flags().Int64SliceVar(&ruleIDs, "rules", nil, "Threshold rule ids (defaults to all active rules)")
	markRequired(cmd, "rollup-result")
	return cmd
}

func newBreachUpdateCmd() *cobra.Command {
	o := DefaultGlobalOptions()
	var status string
	cmd := &cobra.Command{
		Use:          "update BREACH_ID",
		Short:        "Update the workflow status of a breach",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid breach id %q: %w", args[0], err)
			}
			svc, _, err := o.Service()
			if err != nil {
				return err
			}
			breach, err := svc.UpdateBreachStatus(cmd.Context(), id, status)
			if err != nil {
				return describeError(err)
			}
			fmt.Printf("breach %d is now %s\n", breach.Id, breach.Status)
			return nil
		},
	}
	o.Bind(cmd.Flags())
	cmd.Flags().StringVar(&status, "status", "", "New status (required)")
	markRequired(cmd, "status")
	return cmd
}
