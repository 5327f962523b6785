package cli

import (
	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/client"
)

func newListCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List markets",
		Long:  "List markets from the server, filtered and sorted by the given flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", "search name and description")
	cmd.Flags().StringSliceVar(&opts.Categories, "category", nil, "filter by category (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Statuses, "status", nil, "filter by status (repeatable)")
	cmd.Flags().StringVar(&opts.Location, "location", "", "filter by city, state, or zip")
	cmd.Flags().StringSliceVar(&opts.Accessibility, "accessibility", nil, "require accessibility flags (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Tags, "tag", nil, "filter by tag (repeatable)")
	cmd.Flags().StringVar(&opts.Sort, "sort", "", "sort order (date|name-asc|name-desc|popularity|newest)")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "results per page")

	return cmd
}

func runList(opts client.ListOptions) error {
	c := newAPIClient()

	markets, page, err := c.ListMarkets(opts)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(markets)
	}

	total := len(markets)
	if page != nil {
		total = page.Total
	}
	return printMarketTable(markets, total)
}
