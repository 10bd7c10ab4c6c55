package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"arvenne.fr/craftlaunch/pkg/game/assets"
	"arvenne.fr/craftlaunch/pkg/game/natives"
	"arvenne.fr/craftlaunch/pkg/game/resolver"
	"arvenne.fr/craftlaunch/pkg/game/rules"
)

var skipAssets bool

var resolveCmd = &cobra.Command{
	Use:   "resolve <version>",
	Short: "Download everything a version needs without launching it",
	Long: `Download everything a version needs without launching it.

Fetches the manifest (and its base manifest for loader versions), all
platform-applicable libraries, the asset index with its objects, and
extracts the native libraries. Version ids are either a vanilla id like
"1.21.4" or a composite loader id like "fabric-loader-0.16.10-1.21.4".`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newVersionService()
		if err != nil {
			return err
		}
		eval := rules.NewEvaluator(rules.CurrentPlatform())

		r := resolver.New(dir, svc, eval, nil)
		r.Progress = progressLine()
		out, err := r.ResolveForLaunch(cmd.Context(), args[0])
		progressDone()
		if err != nil {
			return err
		}

		if !skipAssets {
			ad := assets.NewDownloader(dir, nil)
			ad.Progress = progressLine()
			err = ad.Ensure(cmd.Context(), out.AssetIndex)
			progressDone()
			if err != nil {
				log.Warn("asset download incomplete", "err", err)
			}
		}

		natDir, err := natives.NewExtractor(nil).Extract(out, dir.NativesRoot())
		if err != nil {
			return err
		}

		log.Info("version resolved",
			"id", out.ID,
			"classpath", len(out.Classpath),
			"natives", natDir,
			"missing", len(out.Missing))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().BoolVar(&skipAssets, "skip-assets", false, "Do not download the asset objects")
}
