package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/extract"
	"github.com/jackzampolin/docextract/internal/render"
	"github.com/jackzampolin/docextract/internal/schema"
	"github.com/jackzampolin/docextract/internal/upload"
)

var (
	extractSchema string
	extractView   string
)

var extractCmd = &cobra.Command{
	Use:   "extract <document>",
	Short: "Extract structured data from a document",
	Long: `Send a document to the extraction service and print the result.

Without --schema the starter invoice schema is used.

Examples:
  docextract extract invoice.pdf
  docextract extract receipt.png --schema receipt --view json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()
		logger := newLogger()

		viewName := extractView
		if viewName == "" {
			viewName = cfg.Output.View
		}
		view, err := render.ParseView(viewName)
		if err != nil {
			return err
		}

		fields := schema.NewEditor().Fields()
		if extractSchema != "" {
			if fields, err = loadSchema(extractSchema); err != nil {
				return err
			}
		}

		file, err := upload.Select(args[0])
		if err != nil {
			return err
		}

		flow := extract.NewFlow(extract.FlowConfig{
			Extractor: newClient(cfg, "", logger),
			Logger:    logger,
		})
		flow.SelectFile(file)

		res, err := flow.Submit(cmd.Context(), fields)
		if err != nil {
			return errors.New(extract.FailureMessage)
		}

		out := cmd.OutOrStdout()
		if err := newRenderer(cfg).Show(out, view, res.Render()); err != nil {
			return err
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractSchema, "schema", "s", "", "Schema file or name")
	extractCmd.Flags().StringVar(&extractView, "view", "", "Result view: formatted, json or raw (default: output.view from config)")

	rootCmd.AddCommand(extractCmd)
}
