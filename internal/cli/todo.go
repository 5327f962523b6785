package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newTodoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "todo <tracking-id> <title>",
		Short: "Add a todo to a tracked market",
		Long: `Add a preparation task to a tracked market.

Example:
  rumfor todo 3 "order table banner"`,
		Args: cobra.MinimumNArgs(2),
		RunE: runTodo,
	}
}

func runTodo(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tracking ID: %s", args[0])
	}
	title := strings.Join(args[1:], " ")

	c := newAPIClient()

	todo, err := c.AddTodo(id, title)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(todo)
	}

	fmt.Printf("Todo #%d added: %s\n", todo.ID, todo.Title)
	return nil
}
