package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fsql/internal/exporter"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		outPath string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "export <sql>",
		Short: "Run a SELECT and write the result to a file",
		Long: `Exports query results as CSV, TSV, JSON or XLSX. The format is inferred
from the output file extension unless --format is given.`,
		Example: `  fsql -d ./sales export "SELECT * FROM sales_root.orders" --out orders.xlsx`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			var f exporter.Format
			if format != "" {
				parsed, err := exporter.ParseFormat(format)
				if err != nil {
					return err
				}
				f = parsed
			}

			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Query.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := exporter.WriteFile(outPath, res, f); err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, map[string]interface{}{
					"path": outPath,
					"rows": res.RowCount,
				})
			}
			fmt.Printf("wrote %d rows to %s\n", res.RowCount, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "Output file path")
	cmd.Flags().StringVar(&format, "format", "", "Output format (csv, tsv, json, xlsx); inferred from --out when empty")

	return cmd
}
