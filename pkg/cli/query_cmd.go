package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fsql/internal/domain"
)

func newQueryCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run a SQL script against the attached folders",
		Long: `Runs one or more SQL statements separated by ';' or a line containing GO.
SELECT results are printed; INSERT, UPDATE and DELETE write the changes
back to the source files after taking a backup.`,
		Example: `  fsql -d ./sales query "SELECT region, sum(total) FROM sales_root.orders GROUP BY region"
  fsql -d ./sales query -f report.sql`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := scriptFromArgs(args, file)
			if err != nil {
				return err
			}

			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := s.Query.Execute(cmd.Context(), script)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, res)
			}
			printScriptResult(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the script from a file instead of the argument")

	return cmd
}

func scriptFromArgs(args []string, file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read script: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", fmt.Errorf("no SQL given: pass it as an argument or with --file")
	}
	return args[0], nil
}

func printScriptResult(res *domain.ScriptResult) {
	for i, stmt := range res.Statements {
		if len(res.Statements) > 1 {
			fmt.Printf("-- statement %d (%s)\n", i+1, stmt.Kind)
		}
		switch stmt.Kind {
		case domain.StmtSelect:
			printResult(os.Stdout, stmt.Result)
		case domain.StmtWriteBack:
			fmt.Printf("%d rows written back to %s\n", stmt.RowsAffected, stmt.Table)
		case domain.StmtCTAS:
			fmt.Printf("created %s at %s\n", stmt.Table, stmt.OutPath)
		default:
			fmt.Println("ok")
		}
	}
}
