package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comment <market-id> <text>",
		Short: "Add a comment to a market",
		Long: `Add a comment to a market.

Example:
  rumfor comment 3 "great foot traffic, arrive early for parking"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runComment,
	}
}

func runComment(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market ID: %s", args[0])
	}
	text := strings.Join(args[1:], " ")

	c := newAPIClient()

	comm, err := c.AddComment(id, text)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(comm)
	}

	fmt.Printf("Comment #%d added.\n  %s\n", comm.ID, comm.Text)
	return nil
}
