package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandEntry represents a single CLI command for introspection output.
type CommandEntry struct {
	Path    string      `json:"path"`
	Short   string      `json:"short"`
	Example string      `json:"example,omitempty"`
	Flags   []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry represents a single CLI flag for introspection output.
type FlagEntry struct {
	Name    string `json:"name"`
	Short   string `json:"shorthand,omitempty"`
	Type    string `json:"type"`
	Default string `json:"default,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

func newCommandsCmd(opts *rootOptions) *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List all available commands with their flags",
		Long:  "Introspects the command tree and lists every command with its flags. Works offline.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := walkCommands(cmd.Root(), "")
			if filter != "" {
				var kept []CommandEntry
				for _, e := range entries {
					if strings.Contains(e.Path, filter) || strings.Contains(e.Short, filter) {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			if opts.output == "json" {
				return printJSON(os.Stdout, entries)
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Path, e.Short})
			}
			printRows(os.Stdout, []string{"command", "description"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only show commands matching this substring")

	return cmd
}

func walkCommands(cmd *cobra.Command, prefix string) []CommandEntry {
	path := strings.TrimSpace(prefix + " " + cmd.Name())
	var entries []CommandEntry

	if cmd.Runnable() {
		entry := CommandEntry{
			Path:    path,
			Short:   cmd.Short,
			Example: cmd.Example,
		}
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Hidden {
				return
			}
			entry.Flags = append(entry.Flags, FlagEntry{
				Name:    f.Name,
				Short:   f.Shorthand,
				Type:    f.Value.Type(),
				Default: f.DefValue,
				Usage:   f.Usage,
			})
		})
		entries = append(entries, entry)
	}

	for _, sub := range cmd.Commands() {
		if sub.Hidden || sub.Name() == "help" {
			continue
		}
		entries = append(entries, walkCommands(sub, path)...)
	}
	return entries
}
