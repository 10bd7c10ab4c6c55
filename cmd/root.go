package cmd

import (
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"arvenne.fr/craftlaunch/pkg/config"
	"arvenne.fr/craftlaunch/pkg/connectors"
	"arvenne.fr/craftlaunch/pkg/game/folder"
	"arvenne.fr/craftlaunch/pkg/game/shared"
	"arvenne.fr/craftlaunch/pkg/game/versions"
)

var (
	debug    bool
	gameRoot string

	dir   folder.GameDir
	store *config.Store
	cfg   config.Config
)

var rootCmd = &cobra.Command{
	Use:   "craftlaunch",
	Short: "craftlaunch resolves and launches minecraft versions",
	Long: `craftlaunch resolves and launches minecraft versions.

It keeps a game directory with manifests, libraries, assets and natives,
supports vanilla and fabric-loader versions, and launches the game with a
locally discovered java runtime.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if debug {
			log.SetLevel(log.DebugLevel)
		}

		if gameRoot == "" {
			d, err := folder.Default("craftlaunch")
			if err != nil {
				return err
			}
			dir = d
		} else {
			dir = folder.At(gameRoot)
		}
		if err := dir.Ensure(); err != nil {
			return err
		}

		s, err := config.Open(filepath.Join(dir.Root, "craftlaunch.yaml"))
		if err != nil {
			return err
		}
		store = s
		cfg, err = s.Config()
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&gameRoot, "game-dir", "", "Game directory (defaults to the platform location)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionService wires the index cache and the fabric metadata client
// for the configured game directory.
func newVersionService() (*versions.Service, error) {
	f, err := connectors.ForURL(shared.VersionIndexURL)
	if err != nil {
		return nil, err
	}
	ttl := time.Duration(cfg.IndexTTLMinutes) * time.Minute
	cache := versions.NewCache(dir.IndexCachePath(), ttl, shared.VersionIndexURL, f, nil)
	return versions.NewService(cache, versions.NewFabricClient(), nil), nil
}

// progressLine reports long-running progress on one updating line.
func progressLine() shared.Progress {
	return func(msg string) {
		if debug {
			log.Debug(msg)
			return
		}
		os.Stdout.WriteString("\r\033[K" + msg)
	}
}

// progressDone ends the updating line started by progressLine.
func progressDone() {
	if !debug {
		os.Stdout.WriteString("\n")
	}
}
