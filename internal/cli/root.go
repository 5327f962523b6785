// Package cli defines the cobra command tree for the market tracker.
package cli

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/client"
	"github.com/rumfor/market-tracker/internal/db"
)

var (
	flagFormat string
	flagDB     string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rumfor",
		Short:         "Discover and track vendor markets",
		Long:          "Find farmers markets, craft fairs, and festivals, track the ones you plan to sell at, and keep todos and expenses per market.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagDB, "db", "", "SQLite database path (default: ~/.config/rumfor/rumfor.db)")

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newTrackCmd(),
		newUntrackCmd(),
		newTrackingsCmd(),
		newTodoCmd(),
		newExpenseCmd(),
		newCommentCmd(),
		newCommentsCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	return root
}

// openDB opens the SQLite database using the --db flag or default path.
func openDB() (*sql.DB, error) {
	path := flagDB
	if path == "" {
		var err error
		path, err = db.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return db.Open(path)
}

// newAPIClient creates an HTTP client for the market tracker API.
func newAPIClient() *client.Client {
	return client.New(getServerURL(), getAPIKey())
}

// isJSON returns true if the --format flag is set to json.
func isJSON() bool {
	return flagFormat == "json"
}

// closeDB closes the database, logging any error to stderr.
func closeDB(database *sql.DB) {
	if err := database.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: closing database: %v\n", err)
	}
}
