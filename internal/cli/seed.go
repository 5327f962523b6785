package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/seed"
)

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo markets into the local database",
		Long:  "Populates an empty local database with demo markets. Does nothing if markets already exist.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed()
		},
	}
}

func runSeed() error {
	database, err := openDB()
	if err != nil {
		return err
	}
	defer closeDB(database)

	if err := seed.Demo(database); err != nil {
		return err
	}

	fmt.Println("Demo data loaded.")
	return nil
}
