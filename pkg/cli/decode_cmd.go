package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fleet-dash/internal/fleet"
	"fleet-dash/internal/tabular"
)

type decodeOptions struct {
	schema     string
	schemaFile string
	orderBy    string
	direction  string
	limit      int
}

func newDecodeCmd(s *settings) *cobra.Command {
	var opts decodeOptions

	cmd := &cobra.Command{
		Use:   "decode <payload.json|->",
		Short: "Decode a columnar payload file offline",
		Long: "Decode a columnar warehouse payload with a named schema and print the records.\n" +
			"Reads from stdin when the argument is \"-\". No API access is needed.",
		Example: "  fleet decode --schema vehicle payload.json\n" +
			"  fleet decode --schema odometer --order-by end_timestamp --limit 1 history.json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := resolveSchema(s.schemaDir, opts)
			if err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			payload, err := tabular.ParsePayload(data)
			if err != nil {
				return fmt.Errorf("parse payload: %w", err)
			}
			records, err := tabular.DecodeAll(payload, schema)
			if err != nil {
				return fmt.Errorf("decode %s: %w", schema.Name, err)
			}
			if opts.orderBy != "" {
				policy, err := selectionPolicy(schema, opts)
				if err != nil {
					return err
				}
				if policy.Limit == 0 {
					policy.Limit = len(records)
				}
				records = tabular.SelectTop(records, policy)
			}

			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]any{
					"schema":  schema.Name,
					"records": records,
				})
			}
			columns := schema.FieldNames()
			rows := make([][]string, len(records))
			for i, rec := range records {
				row := make([]string, len(columns))
				for j, c := range columns {
					row[j] = formatCell(rec[c])
				}
				rows[i] = row
			}
			PrintTable(os.Stdout, columns, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.schema, "schema", "", "Schema name (see 'fleet schemas --local')")
	cmd.Flags().StringVar(&opts.schemaFile, "schema-file", "", "YAML file defining the schema")
	cmd.Flags().StringVar(&opts.orderBy, "order-by", "", "Field to select the top records by")
	cmd.Flags().StringVar(&opts.direction, "direction", "desc", "Selection direction (asc, desc)")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Maximum number of selected records (0 = all)")

	return cmd
}

// resolveSchema finds the named schema in the builtin registry, the
// configured schema directory or an explicit schema file.
func resolveSchema(schemaDir string, opts decodeOptions) (tabular.Schema, error) {
	if opts.schema == "" {
		return tabular.Schema{}, fmt.Errorf("--schema is required")
	}
	registry, err := fleet.LoadRegistryDir(schemaDir)
	if err != nil {
		return tabular.Schema{}, err
	}
	if opts.schemaFile != "" {
		schemas, err := tabular.LoadSchemaFile(opts.schemaFile)
		if err != nil {
			return tabular.Schema{}, err
		}
		for _, sc := range schemas {
			if sc.Name == opts.schema {
				return sc, nil
			}
		}
		return tabular.Schema{}, fmt.Errorf("schema %q not defined in %s", opts.schema, opts.schemaFile)
	}
	return registry.Get(opts.schema)
}

func selectionPolicy(schema tabular.Schema, opts decodeOptions) (tabular.SelectionPolicy, error) {
	if _, ok := schema.Field(opts.orderBy); !ok {
		return tabular.SelectionPolicy{}, fmt.Errorf("schema %q has no field %q", schema.Name, opts.orderBy)
	}
	if opts.limit < 0 {
		return tabular.SelectionPolicy{}, fmt.Errorf("--limit must not be negative")
	}
	policy := tabular.SelectionPolicy{OrderBy: opts.orderBy, Limit: opts.limit}
	switch strings.ToLower(opts.direction) {
	case "", "desc", "descending":
		policy.Direction = tabular.Descending
	case "asc", "ascending":
		policy.Direction = tabular.Ascending
	default:
		return tabular.SelectionPolicy{}, fmt.Errorf("invalid direction %q: use 'asc' or 'desc'", opts.direction)
	}
	return policy, nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is user-provided by design of the command
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}
