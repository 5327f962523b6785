package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newCommentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "comments <market-id>",
		Short: "List comments on a market",
		Args:  cobra.ExactArgs(1),
		RunE:  runComments,
	}
}

func runComments(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid market ID: %s", args[0])
	}

	c := newAPIClient()

	comments, err := c.ListComments(id)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(comments)
	}

	printCommentList(comments)
	return nil
}
