package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the launcher settings",
	Long: `Show the launcher settings.

Settings live in craftlaunch.yaml inside the game directory and can be
overridden per run through CRAFTLAUNCH_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("file: %s\n", store.Path())
		fmt.Printf("java: %s\n", emptyAs(cfg.Java, "(discovered)"))
		fmt.Printf("username: %s\n", cfg.Username)
		fmt.Printf("xmx: %dG\n", cfg.Xmx)
		fmt.Printf("xms: %dG\n", cfg.Xms)
		fmt.Printf("index_ttl_minutes: %d\n", cfg.IndexTTLMinutes)
		fmt.Printf("last_version: %s\n", emptyAs(cfg.LastVersion, "(none)"))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one launcher setting",
	Long: `Change one launcher setting.

Keys: java, username, xmx, xms, index_ttl_minutes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.Set(args[0], args[1]); err != nil {
			return err
		}
		return store.Save()
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSetCmd)
}

func emptyAs(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
