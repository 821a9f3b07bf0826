package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newTablesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema]",
		Short: "List schemas and tables of the attached folders",
		Long: `Without an argument, lists every schema of every attached folder.
With a schema name, lists that schema's tables and their source files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if len(args) == 1 {
				tables, err := s.Workspace.Tables(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if opts.output == "json" {
					return printJSON(os.Stdout, tables)
				}
				rows := make([][]string, 0, len(tables))
				for _, t := range tables {
					rows = append(rows, []string{t.Display, string(t.Kind), t.Path})
				}
				printRows(os.Stdout, []string{"table", "kind", "source"}, rows)
				return nil
			}

			dbs := s.Workspace.Databases(cmd.Context())
			if opts.output == "json" {
				return printJSON(os.Stdout, dbs)
			}
			var rows [][]string
			for _, d := range dbs {
				for _, sch := range d.Schemas {
					rows = append(rows, []string{d.Alias, sch.Name, sch.Path})
				}
			}
			printRows(os.Stdout, []string{"database", "schema", "folder"}, rows)
			return nil
		},
	}
}
