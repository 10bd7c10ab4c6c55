package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	releasesOnly  bool
	versionsLimit int
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List known game versions",
	Long: `List known game versions from the version index.

The index is cached locally and revalidated against the remote endpoint
when stale; with no network the cached listing is shown as-is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newVersionService()
		if err != nil {
			return err
		}

		list, err := svc.List(cmd.Context())
		if err != nil {
			return err
		}
		if releasesOnly {
			list, err = svc.Releases(cmd.Context())
			if err != nil {
				return err
			}
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.AppendHeader(table.Row{"ID", "Type", "Released"})
		for i, v := range list {
			if versionsLimit > 0 && i >= versionsLimit {
				break
			}
			tw.AppendRow(table.Row{v.ID, v.Type, v.ReleaseTime.Format("2006-01-02")})
		}
		tw.SetStyle(table.StyleLight)
		tw.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().BoolVarP(&releasesOnly, "releases", "r", false, "Only list release versions")
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "n", 20, "Maximum rows to print (0 for all)")
}
