package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newExpenseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expense <tracking-id> <amount> <description>",
		Short: "Record an expense against a tracked market",
		Long: `Record a cost against a tracked market. Amount is in dollars.

Example:
  rumfor expense 3 75.00 "booth fee"`,
		Args: cobra.MinimumNArgs(3),
		RunE: runExpense,
	}
}

func runExpense(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tracking ID: %s", args[0])
	}

	amount, err := strconv.ParseFloat(strings.TrimPrefix(args[1], "$"), 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("invalid amount: %s", args[1])
	}
	cents := int64(math.Round(amount * 100))

	description := strings.Join(args[2:], " ")

	c := newAPIClient()

	e, err := c.AddExpense(id, description, cents)
	if err != nil {
		return err
	}

	if isJSON() {
		return printJSON(e)
	}

	fmt.Printf("Expense #%d recorded: %s %s\n", e.ID, formatCents(e.AmountCents), e.Description)
	return nil
}
