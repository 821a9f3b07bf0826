// Package cli implements the fsql command-line interface. It runs fully
// locally: folders named with --data are attached in-process and queried
// without a server.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// rootOptions holds the resolved persistent flag values shared by all
// commands.
type rootOptions struct {
	dataDirs []string
	metaPath string
	rowCap   int
	output   string
	profile  string
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			_ = printJSON(os.Stdout, map[string]interface{}{"error": err.Error()})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "fsql",
		Short:         "Query folders of CSV and Excel files with SQL",
		Long:          "fsql attaches folders of CSV, TSV and Excel files as SQL databases and queries them with DuckDB.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				// Config file is optional.
				cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}
			p := cfg.ActiveProfile(opts.profile)

			// Precedence: flag > env > profile > default.
			if !cmd.Flags().Changed("data") {
				if v := os.Getenv("FSQL_DATA_DIRS"); v != "" {
					opts.dataDirs = splitNonEmpty(v)
				} else if len(p.DataDirs) > 0 {
					opts.dataDirs = p.DataDirs
				}
			}
			if !cmd.Flags().Changed("meta") {
				if v := os.Getenv("FSQL_META"); v != "" {
					opts.metaPath = v
				} else if p.MetaPath != "" {
					opts.metaPath = p.MetaPath
				}
			}
			if !cmd.Flags().Changed("row-cap") && p.RowCap > 0 {
				opts.rowCap = p.RowCap
			}
			if !cmd.Flags().Changed("output") {
				if v := os.Getenv("FSQL_OUTPUT"); v != "" {
					opts.output = v
				} else if p.Output != "" {
					opts.output = p.Output
				}
			}
			if opts.output != "table" && opts.output != "json" {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", opts.output)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringArrayVarP(&opts.dataDirs, "data", "d", nil, "Folder to attach (repeatable)")
	rootCmd.PersistentFlags().StringVar(&opts.metaPath, "meta", "", "Metastore path (default ~/.fsql/meta.sqlite)")
	rootCmd.PersistentFlags().IntVar(&opts.rowCap, "row-cap", 10000, "Maximum rows returned per SELECT (0 disables)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table, json)")
	rootCmd.PersistentFlags().StringVarP(&opts.profile, "profile", "p", "", "Config profile to use")

	rootCmd.AddCommand(newQueryCmd(opts))
	rootCmd.AddCommand(newTablesCmd(opts))
	rootCmd.AddCommand(newDescribeCmd(opts))
	rootCmd.AddCommand(newPreviewCmd(opts))
	rootCmd.AddCommand(newProfileCmd(opts))
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newUndoCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCommandsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
