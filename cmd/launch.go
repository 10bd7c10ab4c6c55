package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"arvenne.fr/craftlaunch/pkg/game/assets"
	"arvenne.fr/craftlaunch/pkg/game/launcher"
	"arvenne.fr/craftlaunch/pkg/game/natives"
	"arvenne.fr/craftlaunch/pkg/game/profile"
	"arvenne.fr/craftlaunch/pkg/game/resolver"
	"arvenne.fr/craftlaunch/pkg/game/rules"
	"arvenne.fr/craftlaunch/pkg/task"
)

var (
	launchXmx      int
	launchXms      int
	launchJava     string
	launchUsername string
	launchServer   string
)

var launchCmd = &cobra.Command{
	Use:   "launch [version]",
	Short: "Resolve and launch a version",
	Long: `Resolve and launch a version.

With no argument the last launched version is used. The process runs
under the launcher's supervision: its output is echoed here and an
interrupt stops the game before exiting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := cfg.LastVersion
		if len(args) > 0 {
			id = args[0]
		}
		if id == "" {
			return fmt.Errorf("no version given and no previous launch recorded")
		}

		svc, err := newVersionService()
		if err != nil {
			return err
		}
		eval := rules.NewEvaluator(rules.CurrentPlatform())

		r := resolver.New(dir, svc, eval, nil)
		r.Progress = progressLine()
		out, err := r.ResolveForLaunch(cmd.Context(), id)
		progressDone()
		if err != nil {
			return err
		}

		ad := assets.NewDownloader(dir, nil)
		ad.Progress = progressLine()
		err = ad.Ensure(cmd.Context(), out.AssetIndex)
		progressDone()
		if err != nil {
			log.Warn("asset download incomplete", "err", err)
		}

		natDir, err := natives.NewExtractor(nil).Extract(out, dir.NativesRoot())
		if err != nil {
			return err
		}

		prof := profile.NewProfile()
		prof.SetUser(pick(launchUsername, cfg.Username))
		prof.SetMemory(pickInt(launchXmx, cfg.Xmx), pickInt(launchXms, cfg.Xms))

		l := launcher.New(dir, prof, eval, nil)
		l.JavaPath = pick(launchJava, cfg.Java)
		if launchServer != "" {
			l.Features = []launcher.Feature{
				{Key: "has_quick_plays_support", Flag: "quickPlayPath", Value: filepath.Join(dir.Root, "quickPlay", "log.json")},
				{Key: "is_quick_play_multiplayer", Flag: "quickPlayMultiplayer", Value: launchServer},
			}
		}

		plan, err := l.Plan(cmd.Context(), out, natDir)
		if err != nil {
			return err
		}

		log.Info("launching", "version", out.ID, "java", plan.Java, "player", prof.Username)
		log.Debug("launch command", "line", plan.CommandLine())

		sup := launcher.NewSupervisor(nil)
		if err := sup.Start(plan.Command(), func(line string) { fmt.Println(line) }, plan.WorkDir); err != nil {
			return err
		}

		store.SetUsername(prof.Username)
		store.SetLastVersion(id)
		if err := store.Save(); err != nil {
			log.Warn("failed to save config", "err", err)
		}

		monitor := task.Go(func() (int, error) {
			werr := sup.Wait(context.Background())
			var exit *exec.ExitError
			if errors.As(werr, &exit) {
				return exit.ExitCode(), nil
			}
			if werr != nil {
				return -1, werr
			}
			return 0, nil
		})
		// Extracted natives are regenerated on every launch.
		monitor.OnComplete(func(int, error) { os.RemoveAll(natDir) })

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		select {
		case <-ctx.Done():
			log.Info("interrupt received, stopping game")
			if err := sup.Stop(); err != nil {
				return err
			}
		case <-monitor.Done():
		}

		code, err := monitor.Wait()
		if err != nil {
			return err
		}
		if code != 0 {
			log.Warn("game exited", "code", code)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().IntVarP(&launchXmx, "Xmx", "x", 0, "Maximum memory in GB (defaults to config)")
	launchCmd.Flags().IntVarP(&launchXms, "Xms", "s", 0, "Initial memory in GB (defaults to config)")
	launchCmd.Flags().StringVarP(&launchJava, "java", "j", "", "Path to the java executable (defaults to discovery)")
	launchCmd.Flags().StringVarP(&launchUsername, "username", "u", "", "Player name (defaults to config)")
	launchCmd.Flags().StringVar(&launchServer, "server", "", "Join this server directly after launch (e.g. mc.example.com)")
}

func pick(flag, fromConfig string) string {
	if flag != "" {
		return flag
	}
	return fromConfig
}

func pickInt(flag, fromConfig int) int {
	if flag > 0 {
		return flag
	}
	return fromConfig
}
