package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show market details",
		Long:  "Show full details for a market, including its comments.",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market ID: %s", args[0])
	}

	c := newAPIClient()

	resp, err := c.GetMarket(id)
	if err != nil {
		return err
	}

	comments, err := c.ListComments(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(struct {
			Market   interface{} `json:"market"`
			Tracked  bool        `json:"tracked"`
			Comments interface{} `json:"comments"`
		}{resp.Market, resp.Tracked, comments})
	}

	printMarketSummary(resp.Market)
	if resp.Tracked {
		fmt.Println("  Tracked:  yes")
	}
	fmt.Println()
	if len(comments) > 0 {
		fmt.Printf("Comments (%d):\n", len(comments))
	}
	printCommentList(comments)

	return nil
}
