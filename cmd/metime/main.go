package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/adapters/repository"
	"github.com/comitanigiacomo/metime/internal/config"
	"github.com/comitanigiacomo/metime/internal/core/services"
	"github.com/comitanigiacomo/metime/internal/logger"
)

// session holds what every subcommand needs once flags are parsed.
type session struct {
	dataPath   string
	configPath string
	verbose    bool
	now        func() time.Time

	log       *zap.Logger
	habits    *services.HabitService
	analytics *services.AnalyticsService
}

func (s *session) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}
	if s.dataPath != "" {
		cfg.Storage.DataFile = s.dataPath
	}

	s.log = logger.NewCLI(s.verbose)

	repo, err := repository.NewJSONFileHabitRepository(cfg.Storage.DataFile, s.log)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", cfg.Storage.DataFile, err)
	}
	s.log.Debug("habit store ready", zap.String("path", repo.Path()))

	s.habits = services.NewHabitService(repo, nil, s.now)
	s.analytics = services.NewAnalyticsService(repo, s.now, cfg.Analytics.StrugglingWindow, nil)
	return nil
}

func newRootCmd(now func() time.Time) *cobra.Command {
	s := &session{now: now}

	root := &cobra.Command{
		Use:               "metime",
		Short:             "Track daily and weekly habits and analyze your streaks",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: s.open,
	}

	root.PersistentFlags().StringVar(&s.dataPath, "data", "", "habit data file (overrides config)")
	root.PersistentFlags().StringVar(&s.configPath, "config", "config.yaml", "YAML config file")
	root.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "verbose logging")

	root.AddCommand(
		newAddCmd(s),
		newDeleteCmd(s),
		newRenameCmd(s),
		newCompleteCmd(s),
		newListCmd(s),
		newStreakCmd(s),
		newAnalyzeCmd(s),
		newMenuCmd(s),
	)
	return root
}

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		red := color.New(color.FgRed).SprintFunc()
		fmt.Fprintf(os.Stderr, "%s %v\n", red("Error:"), err)
		os.Exit(1)
	}
}
