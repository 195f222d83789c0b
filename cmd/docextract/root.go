package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/api"
	"github.com/jackzampolin/docextract/internal/config"
	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/home"
	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Define a schema, send a document, read back structured data",
	Long: `docextract sends a document (PDF, JPG, PNG or WEBP) together with a
user-defined schema to an extraction service and renders the structured
data it returns.

Typical use:
  docextract edit invoice.pdf          # Edit the schema interactively and process
  docextract extract invoice.pdf       # One-shot extraction with the starter schema
  docextract serve                     # Run a local sandbox of the service`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.docextract/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "docextract home directory (default: ~/.docextract)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "", "output format: yaml or json (default: output.format from config)",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "log debug output to stderr",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format := outputFormat
		if format == "" {
			if mgr, err := loadConfig(); err == nil {
				format = mgr.Get().Output.Format
			}
		}
		if _, err := api.ParseOutputFormat(format); err != nil {
			return err
		}
		api.SetOutputFormat(format)
		return nil
	}

	rootCmd.AddCommand(versionCmd)
}

func getHome() (*home.Dir, error) {
	return home.New(homeDir)
}

// loadConfig reads --config, or the home directory's config file when one
// exists, falling back to viper's search path.
func loadConfig() (*config.Manager, error) {
	path := cfgFile
	if path == "" {
		if h, err := getHome(); err == nil && h.ConfigExists() {
			path = h.ConfigPath()
		}
	}
	return config.NewManager(path)
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds an extraction client from cfg. A non-empty baseURL
// overrides service.base_url.
func newClient(cfg *config.Config, baseURL string, logger *slog.Logger) *extract.Client {
	if baseURL == "" {
		baseURL = cfg.Service.BaseURL
	}
	return extract.NewClient(extract.Config{
		BaseURL: baseURL,
		Token:   cfg.ServiceToken(),
		Timeout: cfg.ServiceTimeout(),
		Logger:  logger,
	})
}

func newRenderer(cfg *config.Config) *render.Renderer {
	if cfg.Output.Color {
		return &render.Renderer{Styler: render.NewTerminal()}
	}
	return &render.Renderer{Styler: render.Plain{}}
}

// loadSchema resolves a --schema value (a path or a name under the home
// schemas directory) and reads it.
func loadSchema(name string) (schema.Schema, error) {
	h, err := getHome()
	if err != nil {
		return nil, err
	}
	path, err := h.ResolveSchema(name)
	if err != nil {
		return nil, err
	}
	return schema.LoadFile(path)
}
