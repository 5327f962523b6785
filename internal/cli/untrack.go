package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/client"
)

func newUntrackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "untrack <market-id>",
		Short: "Stop tracking a market",
		Long:  "Stop tracking a market. Its todos and expenses are removed with the tracking.",
		Args:  cobra.ExactArgs(1),
		RunE:  runUntrack,
	}
}

func runUntrack(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market ID: %s", args[0])
	}

	store := client.NewTrackingStore(newAPIClient())
	if err := store.Load(); err != nil {
		return err
	}

	if !store.IsTracked(id) {
		if isJSON() {
			return printJSON(map[string]interface{}{"marketId": id, "tracked": false})
		}
		fmt.Printf("Market #%d is not tracked.\n", id)
		return nil
	}

	if err := store.Untrack(id); err != nil {
		return err
	}

	if isJSON() {
		return printJSON(map[string]interface{}{"marketId": id, "tracked": false})
	}

	fmt.Printf("No longer tracking market #%d.\n", id)
	return nil
}
