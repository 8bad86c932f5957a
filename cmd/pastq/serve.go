package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pastq-dev/pastq/internal/config"
	"github.com/pastq-dev/pastq/internal/home"
	"github.com/pastq-dev/pastq/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the PastQ server",
	Long: `Start the PastQ HTTP server.

The server owns the question bank and runs extraction jobs submitted via
the API. Shutting down (Ctrl+C or SIGTERM) stops the in-flight job after
its current page, so it can be continued later.

Examples:
  pastq serve                    # Start on default port 8080
  pastq serve --port 3000        # Start on custom port
  pastq serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}

		// Flags override the config file.
		cfg := cm.Get()
		host := cfg.Server.Host
		port := cfg.Server.Port
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "8080", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
