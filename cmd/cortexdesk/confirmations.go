package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var confirmationsCmd = &cobra.Command{
	Use:     "confirmations",
	Aliases: []string{"confirm"},
	Short:   "Review actions awaiting your confirmation",
}

var confirmationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending confirmations",
	RunE:  runConfirmationsList,
}

var confirmationsApproveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Approve a confirmation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfirmationDecision("approve"),
}

var confirmationsRejectCmd = &cobra.Command{
	Use:   "reject [id]",
	Short: "Reject a confirmation",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfirmationDecision("reject"),
}

func init() {
	confirmationsCmd.AddCommand(confirmationsListCmd, confirmationsApproveCmd, confirmationsRejectCmd)
}

func runConfirmationsList(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	p := e.poller()
	if err := p.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to load confirmations: %w", err)
	}

	pending := p.Pending()
	out := cmd.OutOrStdout()
	if len(pending) == 0 {
		fmt.Fprintln(out, "No confirmations awaiting review")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCONFIDENCE\tASSIGNEE\tPRIORITY\tDEADLINE\tCREATED\tTEXT")
	for _, c := range pending {
		created := "-"
		if t, ok := c.Created(); ok {
			created = humanize.Time(t)
		}
		fmt.Fprintf(w, "%s\t%3.0f%%\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Confidence*100, c.Data.AssigneeOrDefault(), c.Data.PriorityOrDefault(),
			c.Data.DeadlineOrDefault(), created, truncate(c.Data.Text(), 50))
	}
	return w.Flush()
}

func runConfirmationDecision(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.Close()

		p := e.poller()
		if action == "approve" {
			err = p.Approve(cmd.Context(), args[0])
		} else {
			err = p.Reject(cmd.Context(), args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to %s confirmation %s: %w", action, args[0], err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Confirmation %s %s (%d still pending)\n", args[0], pastTense[action], len(p.Pending()))
		return nil
	}
}
