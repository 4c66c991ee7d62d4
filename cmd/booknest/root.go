package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"booknest/internal/backend"
	"booknest/internal/logger"
	"booknest/internal/service"
	"booknest/internal/session"
)

const (
	defaultBackend = "https://localhost:7098"
	cliSessionID   = "default"
	cliSessionTTL  = 30 * 24 * time.Hour
)

type options struct {
	backendURL  string
	sessionFile string
	insecure    bool
	timeout     time.Duration
	logLevel    string
}

// client bundles what every command needs. It is built once per
// invocation in PersistentPreRunE.
type client struct {
	out       io.Writer
	scope     *session.Scope
	auth      *service.AuthService
	workspace *service.Workspace
	dashboard *service.DashboardService
}

func rootCmd() *cobra.Command {
	opts := &options{}
	c := &client{}

	cmd := &cobra.Command{
		Use:           "booknest",
		Short:         "BookNest storefront in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.OutOrStdout(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.backendURL, "backend", envOr("BOOKNEST_BACKEND_URL", defaultBackend), "BookNest REST service base URL")
	cmd.PersistentFlags().StringVar(&opts.sessionFile, "session-file", envOr("BOOKNEST_SESSION_FILE", defaultSessionFile()), "Where the login session is kept")
	cmd.PersistentFlags().BoolVar(&opts.insecure, "insecure", os.Getenv("BOOKNEST_INSECURE_TLS") == "true", "Skip TLS verification (development certificates)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		registerCmd(c),
		loginCmd(c),
		logoutCmd(c),
		whoamiCmd(c),
		cartCmd(c),
		ordersCmd(c),
		dashboardCmd(c),
	)

	return cmd
}

func (c *client) init(out io.Writer, opts *options) error {
	logger.Setup(opts.logLevel)

	api, err := backend.NewClient(opts.backendURL, opts.timeout, opts.insecure)
	if err != nil {
		return err
	}

	fileStore, err := session.NewFileStore(opts.sessionFile)
	if err != nil {
		return fmt.Errorf("open session file: %w", err)
	}

	c.out = out
	c.scope = session.NewScope(fileStore, cliSessionID, cliSessionTTL)
	c.auth = service.NewAuthService(api, nil)
	c.dashboard = service.NewDashboardService(api, nil)
	c.workspace = service.NewWorkspaces(api, nil, func(string) service.SessionScope { return c.scope }).Get(cliSessionID)

	return nil
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".booknest", "session.json")
	}
	return filepath.Join(home, ".booknest", "session.json")
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
