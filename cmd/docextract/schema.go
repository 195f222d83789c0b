package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/docextract/internal/api"
	"github.com/jackzampolin/docextract/internal/schema"
)

var (
	schemaFile   string
	schemaFormat string
	schemaStrict bool
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Work with schema files",
	Long: `Work with schema files.

A schema file is a YAML or JSON list of fields:

  - key: vendor_name
    description: Name of the company issuing the invoice
    type: STRING
    required: true
  - key: items
    type: ARRAY
    items_structure:
      name: Item name
      qty: Item quantity

--file takes a path or the name of a file in ~/.docextract/schemas.`,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the starter schema or a schema file",
	RunE: func(cmd *cobra.Command, args []string) error {
		fields := schema.NewEditor().Fields()
		if schemaFile != "" {
			var err error
			if fields, err = loadSchema(schemaFile); err != nil {
				return err
			}
		}

		format := schema.Format(schemaFormat)
		if format != schema.FormatYAML && format != schema.FormatJSON {
			return fmt.Errorf("unknown schema format %q (want yaml or json)", schemaFormat)
		}
		return schema.Encode(cmd.OutOrStdout(), fields, format)
	},
}

// CheckResult is the output of schema check.
type CheckResult struct {
	Fields     int            `json:"fields" yaml:"fields"`
	Issues     []schema.Issue `json:"issues" yaml:"issues"`
	DataSchema map[string]any `json:"data_schema" yaml:"data_schema"`
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint a schema file and print the JSON Schema of its result",
	Long: `Lint a schema file and print the JSON Schema the returned data is
checked against. Issues are advisory; with --strict any issue is an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaFile == "" {
			return fmt.Errorf("--file is required")
		}
		fields, err := loadSchema(schemaFile)
		if err != nil {
			return err
		}

		issues := schema.Lint(fields)
		if issues == nil {
			issues = []schema.Issue{}
		}
		if err := api.Output(CheckResult{
			Fields:     len(fields),
			Issues:     issues,
			DataSchema: schema.ToJSONSchema(fields),
		}); err != nil {
			return err
		}
		if schemaStrict && len(issues) > 0 {
			return fmt.Errorf("%d schema issue(s)", len(issues))
		}
		return nil
	},
}

func init() {
	schemaCmd.PersistentFlags().StringVarP(&schemaFile, "file", "f", "", "Schema file or name")
	schemaShowCmd.Flags().StringVar(&schemaFormat, "format", "yaml", "Schema format: yaml or json")
	schemaCheckCmd.Flags().BoolVar(&schemaStrict, "strict", false, "Fail when the schema has issues")

	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaCheckCmd)

	rootCmd.AddCommand(schemaCmd)
}
