package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/tracking"
)

func newTrackingsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "trackings",
		Short: "List your tracked markets",
		Long: `List your tracked markets with todo progress and expenses.

Pass --status to move a tracking to a new status instead:
  rumfor trackings --status applied 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				if len(args) != 1 {
					return fmt.Errorf("--status requires a tracking ID argument")
				}
				return runTrackingStatus(args[0], status)
			}
			return runTrackings()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "move the given tracking to this status")

	return cmd
}

func runTrackings() error {
	c := newAPIClient()

	trackings, err := c.ListTrackings()
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(trackings)
	}

	return printTrackingTable(trackings)
}

func runTrackingStatus(arg, status string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tracking ID: %s", arg)
	}
	if !tracking.Status(status).IsValid() {
		return fmt.Errorf("invalid status: %s", status)
	}

	c := newAPIClient()

	tr, err := c.UpdateTrackingStatus(id, status)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(tr)
	}

	fmt.Printf("Tracking #%d is now %s.\n", tr.ID, tr.Status)
	return nil
}
