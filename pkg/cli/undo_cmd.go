package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newUndoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Restore the file changed by the most recent write",
		Long: `Every write-back and CREATE TABLE AS takes a backup of the file it is
about to change. Undo restores the most recent backup over its source file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			entry, err := s.Query.UndoLastWrite(cmd.Context())
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, entry)
			}
			fmt.Printf("restored %s (%s from %s)\n", entry.SourcePath, entry.Operation,
				entry.CreatedAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently executed scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.Query.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.StartedAt.Local().Format(time.DateTime),
					e.Status,
					strconv.FormatInt(e.Rows, 10),
					truncate(e.SQL, 60),
				})
			}
			printRows(os.Stdout, []string{"started", "status", "rows", "sql"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}
