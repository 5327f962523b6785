package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/config"
	"github.com/rumfor/market-tracker/internal/db"
	"github.com/rumfor/market-tracker/internal/logging"
	"github.com/rumfor/market-tracker/internal/seed"
	"github.com/rumfor/market-tracker/internal/web"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the HTTP server for the market tracker API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "port to listen on (default: RUMFOR_PORT or 8080)")

	return cmd
}

func runServe(port int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.DevMode)

	path := flagDB
	if path == "" {
		path = cfg.DBPath
	}
	if path == "" {
		path, err = db.DefaultPath()
		if err != nil {
			return err
		}
	}

	database, err := db.Open(path)
	if err != nil {
		return err
	}
	defer closeDB(database)

	if cfg.SeedDemo {
		if err := seed.Demo(database); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	srv, err := web.NewServer(database, cfg)
	if err != nil {
		return err
	}

	if port == 0 {
		port = cfg.Port
	}
	return srv.ListenAndServe(port)
}
