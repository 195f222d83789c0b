package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/server"
)

var (
	serveHost   string
	servePort   string
	serveToken  string
	serveSchema string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a local sandbox of the extraction service",
	Long: `Run a local sandbox of the extraction service.

The sandbox validates uploads the way the real service does and answers
with an empty result shaped by the submitted schema. Point service.base_url
at it to exercise the client without a model behind it.

Examples:
  docextract serve
  docextract serve --port 9000 --token secret`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger()

		h, err := getHome()
		if err != nil {
			return err
		}

		host, port, token := cfg.Server.Host, cfg.Server.Port, cfg.ServerToken()
		if cmd.Flags().Changed("host") {
			host = serveHost
		}
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		if cmd.Flags().Changed("token") {
			token = serveToken
		}

		var fallback schema.Schema
		if serveSchema != "" {
			if fallback, err = loadSchema(serveSchema); err != nil {
				return err
			}
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Token:         token,
			MaxFileSize:   cfg.Server.MaxFileSize,
			DefaultSchema: fallback,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Sandbox listening on http://%s\n", srv.Addr())
		return srv.Start(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Address to bind (default: server.host from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port from config)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Require this bearer token on /api routes")
	serveCmd.Flags().StringVarP(&serveSchema, "schema", "s", "", "Schema used when a request has no schema_config")

	rootCmd.AddCommand(serveCmd)
}
