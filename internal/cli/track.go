package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/client"
	"github.com/rumfor/market-tracker/internal/tracking"
)

func newTrackCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "track <market-id>",
		Short: "Start tracking a market",
		Long:  "Start tracking a market you plan to sell at. New trackings begin as interested unless --status says otherwise.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(args[0], status)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "initial tracking status")

	return cmd
}

func runTrack(arg, status string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market ID: %s", arg)
	}

	store := client.NewTrackingStore(newAPIClient())
	if err := store.Load(); err != nil {
		return err
	}

	if store.IsTracked(id) {
		current, _ := store.Status(id)
		if isJSON() {
			return printJSON(map[string]interface{}{"marketId": id, "status": current})
		}
		fmt.Printf("Already tracking market #%d (%s).\n", id, current)
		return nil
	}

	if status != "" {
		if !tracking.Status(status).IsValid() {
			return fmt.Errorf("invalid status: %s", status)
		}
		err = store.Track(id, tracking.Status(status))
	} else {
		err = store.Track(id)
	}
	if err != nil {
		return err
	}

	tracked, _ := store.Status(id)
	if isJSON() {
		return printJSON(map[string]interface{}{"marketId": id, "status": tracked})
	}

	fmt.Printf("Tracking market #%d (%s).\n", id, tracked)
	return nil
}
