package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rumfor/market-tracker/internal/client"
)

func newLoginCmd() *cobra.Command {
	var (
		server string
		key    string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store an API key",
		Long: `Authenticates with email and password, mints an API key for CLI
access, and stores it in the config file. Pass --key to store an
existing API key instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(server, key)
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server URL (default: from config or http://localhost:8080)")
	cmd.Flags().StringVar(&key, "key", "", "store this API key instead of logging in")

	return cmd
}

func runLogin(serverFlag, keyFlag string) error {
	serverURL := serverFlag
	if serverURL == "" {
		serverURL = getServerURL()
	}

	key := keyFlag
	if key == "" {
		var err error
		key, err = loginForKey(serverURL)
		if err != nil {
			return err
		}
	}

	if err := validateAPIKey(key); err != nil {
		return err
	}

	// Load existing config to preserve other fields
	cfg, err := loadConfig()
	if err != nil {
		cfg = CLIConfig{}
	}

	cfg.APIKey = key
	if serverFlag != "" {
		cfg.ServerURL = serverFlag
	}

	if err := saveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println("✓ API key saved. You're logged in!")
	return nil
}

// loginForKey authenticates with email and password and mints a fresh
// API key for this machine.
func loginForKey(serverURL string) (string, error) {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	fmt.Print("Password: ")
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}

	c := client.New(serverURL, "")
	resp, err := c.Login(strings.TrimSpace(email), strings.TrimSpace(password))
	if err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}

	host, _ := os.Hostname()
	name := "cli"
	if host != "" {
		name = "cli@" + host
	}

	authed := client.New(serverURL, resp.AccessToken)
	key, err := authed.CreateAPIKey(name)
	if err != nil {
		return "", fmt.Errorf("creating API key: %w", err)
	}

	return key, nil
}

// validateAPIKey checks that the key is non-empty and has the expected prefix.
func validateAPIKey(key string) error {
	if key == "" {
		return fmt.Errorf("no API key provided")
	}
	if !strings.HasPrefix(key, "rf_") {
		return fmt.Errorf("invalid API key format (should start with rf_)")
	}
	return nil
}
