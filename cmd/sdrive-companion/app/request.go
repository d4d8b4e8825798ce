package app

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/internal/companion/model"
	"github.com/safedrive-io/safedrive/internal/companion/observer"
)

func newRequestCommand(opts *options.CompanionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Inspect and drive the car-start request workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			view := core.Request()
			if view == nil {
				fmt.Println("No active car-start request")
				return nil
			}

			fmt.Printf("Request %s: %s (expires %s)\n", view.RequestID, view.Status, view.ExpiresAt.Format("15:04:05"))
			table := uitable.New()
			table.AddRow("MEMBER", "RELATION", "DECISION")
			for _, a := range view.Roster {
				table.AddRow(a.Name, a.Relation, a.Status)
			}
			fmt.Println(table)
			return nil
		},
	}

	cmd.AddCommand(newRequestAskCommand(opts), newRequestDecideCommand(opts))
	return cmd
}

func newRequestAskCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask",
		Short: "Ask registered members for permission to start the vehicle",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			req, err := core.AskStart(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Request %s created, members have until %s to decide\n",
				req.ID, req.ExpiresAt.Format("15:04:05"))
			return nil
		},
	}
}

func newRequestDecideCommand(opts *options.CompanionOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "decide <approve|reject>",
		Short: "Submit your decision on the active car-start request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var decision model.RequestStatus
			var consequence string
			switch strings.ToLower(args[0]) {
			case "approve":
				decision, consequence = model.StatusApproved, observer.ApproveConsequence
			case "reject":
				decision, consequence = model.StatusRejected, observer.RejectConsequence
			default:
				return fmt.Errorf("decision must be 'approve' or 'reject'")
			}

			if !yes {
				fmt.Printf("%s\nRe-run with --yes to confirm.\n", consequence)
				return nil
			}

			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}
			if err := core.Decide(cmd.Context(), decision); err != nil {
				return err
			}
			fmt.Printf("Decision recorded: %s\n", decision)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the decision and its consequence.")
	return cmd
}
