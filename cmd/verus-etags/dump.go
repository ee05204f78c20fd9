package main

import (
	"encoding/json"
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"verus-etags/internal/tags"
)

// OutputFormat represents the dump output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
	FormatTOML OutputFormat = "toml"
)

var dumpFormat string

var dumpCmd = &cobra.Command{
	Use:   "dump [tags-file]",
	Short: "Print the contents of a tags file",
	Long: `Read an etags table (default: TAGS) and print its entries.

Examples:
  verus-etags dump                  # one line per tag
  verus-etags dump --format json    # machine-readable
  verus-etags dump -F yaml out/TAGS`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpFormat, "format", "F", "text", "Output format (text, json, yaml, toml)")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, args []string) error {
	path := "TAGS"
	if len(args) == 1 {
		path = args[0]
	}
	table, err := tags.ReadFile(path)
	if err != nil {
		return err
	}
	return writeDump(cmd.OutOrStdout(), table, OutputFormat(dumpFormat))
}

// writeDump formats table according to format.
func writeDump(w io.Writer, table *tags.Table, format OutputFormat) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatText:
		for _, sec := range table.Sections {
			for _, tg := range sec.Tags {
				if _, err := fmt.Fprintf(w, "%s:%d: %s\t%s\n", sec.Path, tg.Line, tg.Name, tg.Pattern); err != nil {
					return err
				}
			}
		}
		return nil
	case FormatJSON:
		data, err = json.MarshalIndent(table, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(table)
	case FormatTOML:
		data, err = toml.Marshal(table)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", format, err)
	}
	_, err = w.Write(data)
	return err
}
