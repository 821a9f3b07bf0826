package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// splitTable parses a schema.table argument. Display names may contain
// dots, so only the first dot separates the schema.
func splitTable(arg string) (schema, table string, err error) {
	i := strings.Index(arg, ".")
	if i <= 0 || i == len(arg)-1 {
		return "", "", fmt.Errorf("expected schema.table, got %q", arg)
	}
	return arg[:i], arg[i+1:], nil
}

func newDescribeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "describe <schema.table>",
		Short:   "Show the columns and types of a table",
		Example: `  fsql -d ./sales describe sales_root.orders`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, table, err := splitTable(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			cols, err := s.Query.Describe(cmd.Context(), schema, table)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, cols)
			}
			rows := make([][]string, 0, len(cols))
			for _, c := range cols {
				rows = append(rows, []string{c.Name, c.Type, strconv.FormatBool(c.Nullable)})
			}
			printRows(os.Stdout, []string{"column", "type", "nullable"}, rows)
			return nil
		},
	}
}

func newPreviewCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <schema.table>",
		Short: "Show the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, table, err := splitTable(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Query.Preview(cmd.Context(), schema, table, limit)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, res)
			}
			printResult(os.Stdout, res)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Number of rows to show")

	return cmd
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "profile <schema.table>",
		Short: "Show per-column statistics for a table",
		Long:  "Computes null counts, distinct counts, min, max and numeric averages per column.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, table, err := splitTable(args[0])
			if err != nil {
				return err
			}
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			profile, err := s.Query.Profile(cmd.Context(), schema, table)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, profile)
			}
			rows := make([][]string, 0, len(profile))
			for _, c := range profile {
				rows = append(rows, []string{
					c.Column,
					c.Type,
					strconv.FormatInt(c.Count, 10),
					strconv.FormatInt(c.Nulls, 10),
					strconv.FormatInt(c.Distinct, 10),
					strOrEmpty(c.Min),
					strOrEmpty(c.Max),
					avgOrEmpty(c.Avg),
				})
			}
			printRows(os.Stdout, []string{"column", "type", "count", "nulls", "distinct", "min", "max", "avg"}, rows)
			return nil
		},
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func avgOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'g', 6, 64)
}
