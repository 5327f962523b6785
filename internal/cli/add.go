package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/market"
)

func newAddCmd() *cobra.Command {
	var (
		category    string
		description string
		address     string
		city        string
		state       string
		zip         string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a market",
		Long: `Add a new market. It starts in draft status; promoters publish
it from the web UI or via the API.

Example:
  rumfor add "Riverside Farmers Market" --category farmers-market --city Portland --state OR`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := &market.Market{
				Name:        strings.Join(args, " "),
				Description: description,
				Category:    market.Category(category),
				Location: market.Location{
					Address: address,
					City:    city,
					State:   state,
					Zip:     zip,
				},
				Tags: tags,
			}
			return runAdd(m)
		},
	}

	cmd.Flags().StringVar(&category, "category", "other", "market category")
	cmd.Flags().StringVar(&description, "description", "", "short description")
	cmd.Flags().StringVar(&address, "address", "", "street address")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&state, "state", "", "state")
	cmd.Flags().StringVar(&zip, "zip", "", "zip code")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")

	return cmd
}

func runAdd(m *market.Market) error {
	c := newAPIClient()

	created, err := c.CreateMarket(m)
	if err != nil {
		return fmt.Errorf("adding market: %w", err)
	}

	if isJSON() {
		return printJSON(created)
	}

	fmt.Println("Market added.")
	printMarketSummary(created)
	return nil
}
