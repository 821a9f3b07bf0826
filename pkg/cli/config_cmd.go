package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "No configuration found at %s\n", ConfigPath())
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, _ = fmt.Fprint(os.Stdout, string(data))
			return nil
		},
	}
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		dataDirs []string
		metaPath string
		rowCap   int
		output   string
	)

	cmd := &cobra.Command{
		Use:   "set-profile <name>",
		Short: "Create or update a named profile",
		Example: `  fsql config set-profile sales --data ~/data/sales --data ~/data/archive
  fsql config use-profile sales`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{CurrentProfile: "default", Profiles: map[string]Profile{}}
			}

			p := cfg.Profiles[args[0]]
			if cmd.Flags().Changed("data") {
				p.DataDirs = dataDirs
			}
			if cmd.Flags().Changed("meta") {
				p.MetaPath = metaPath
			}
			if cmd.Flags().Changed("row-cap") {
				p.RowCap = rowCap
			}
			if cmd.Flags().Changed("output") {
				p.Output = output
			}
			cfg.Profiles[args[0]] = p

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("profile %q saved (%d folders, row cap %s)\n", args[0],
				len(p.DataDirs), rowCapLabel(p.RowCap))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&dataDirs, "data", nil, "Folder to attach (repeatable)")
	cmd.Flags().StringVar(&metaPath, "meta", "", "Metastore path")
	cmd.Flags().IntVar(&rowCap, "row-cap", 0, "Maximum rows returned per SELECT")
	cmd.Flags().StringVar(&output, "output", "", "Default output format (table, json)")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = &UserConfig{Profiles: map[string]Profile{}}
			}
			if _, ok := cfg.Profiles[args[0]]; !ok {
				return fmt.Errorf("profile %q does not exist, create it with 'fsql config set-profile %s'", args[0], args[0])
			}
			cfg.CurrentProfile = args[0]
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			fmt.Printf("current profile is now %q\n", args[0])
			return nil
		},
	}
}

func rowCapLabel(n int) string {
	if n <= 0 {
		return "default"
	}
	return strconv.Itoa(n)
}
