package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/config"
	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/tui"
	"github.com/jackzampolin/docextract/internal/upload"
)

var editSchema string

var editCmd = &cobra.Command{
	Use:   "edit [document]",
	Short: "Edit a schema and process documents interactively",
	Long: `Start an interactive session: edit the schema field by field, pick a
document, process it and browse the result in each view.

The schema lives only for the session. Edits to the config file are picked
up while the session runs.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger()

		var opts []schema.Option
		if editSchema != "" {
			fields, err := loadSchema(editSchema)
			if err != nil {
				return err
			}
			opts = append(opts, schema.WithFields(fields))
		}

		flow := extract.NewFlow(extract.FlowConfig{
			Extractor: newClient(cfg, "", logger),
			Logger:    logger,
		})
		if len(args) == 1 {
			file, err := upload.Select(args[0])
			if err != nil {
				return err
			}
			flow.SelectFile(file)
		}

		mgr.OnChange(func(c *config.Config) {
			flow.SetExtractor(newClient(c, "", logger))
		})
		if mgr.ConfigFile() != "" {
			mgr.WatchConfig()
		}

		view, err := render.ParseView(cfg.Output.View)
		if err != nil {
			logger.Warn("ignoring output.view", "error", err)
			view = render.ViewFormatted
		}

		session, err := tui.NewSession(tui.Config{
			Driver:   tui.NewSurveyDriver(cmd.OutOrStdout()),
			Flow:     flow,
			Editor:   schema.NewEditor(opts...),
			Renderer: newRenderer(cfg),
			View:     view,
			Logger:   logger,
		})
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		return session.Run(cmd.Context())
	},
}

func init() {
	editCmd.Flags().StringVarP(&editSchema, "schema", "s", "", "Schema file or name to start from")

	rootCmd.AddCommand(editCmd)
}
