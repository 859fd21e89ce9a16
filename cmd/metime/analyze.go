package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/repl"
)

func asOfFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q, expected YYYY-MM-DD", raw)
	}
	return &t, nil
}

func newStreakCmd(s *session) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "streak NAME",
		Short: "Show the streaks and broken periods of one habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := asOfFlag(asOf)
			if err != nil {
				return err
			}

			summary, err := s.analytics.Streak(cmd.Context(), strings.Join(args, " "), date)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			r := summary.Streak
			cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
			fmt.Fprintf(out, "%s (%s, since %s)\n", cyan(summary.Name), summary.Periodicity, summary.CreatedAt)
			fmt.Fprintf(out, "  As of:          %s\n", r.AsOf.Format(domain.DateLayout))
			fmt.Fprintf(out, "  Current streak: %d\n", r.CurrentStreak)
			fmt.Fprintf(out, "  Longest streak: %d\n", r.LongestStreak)
			fmt.Fprintf(out, "  Completed:      %d of %d periods (%.0f%%)\n",
				r.CompletedPeriods, r.ElapsedPeriods+1, r.CompletionRate)
			if r.LastCompletion != nil {
				fmt.Fprintf(out, "  Last done:      %s\n", r.LastCompletion.Format("2006-01-02 15:04"))
			}
			if len(r.BrokenPeriods) > 0 {
				labels := make([]string, 0, len(r.BrokenPeriods))
				for _, p := range r.BrokenPeriods {
					labels = append(labels, p.Label())
				}
				fmt.Fprintf(out, "  Broken:         %s\n", strings.Join(labels, ", "))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default today)")
	return cmd
}

func newAnalyzeCmd(s *session) *cobra.Command {
	var (
		asOf   string
		window int
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Summarize every habit, the longest streak and the struggling habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := asOfFlag(asOf)
			if err != nil {
				return err
			}
			if window < 0 {
				return fmt.Errorf("%w: %d", domain.ErrInvalidWindow, window)
			}

			report, err := s.analytics.Overview(cmd.Context(), date, window)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

			fmt.Fprintf(out, "%s\n", cyan("Habits as of "+report.AsOf))
			repl.PrintSummaries(out, report.Habits)
			repl.PrintFailures(out, report.Failures)

			fmt.Fprintf(out, "\n%s\n", cyan("By periodicity"))
			repl.PrintGroups(out, report.ByPeriodicity)

			if report.Longest != nil {
				fmt.Fprintf(out, "\n%s %q with %d\n", cyan("Longest streak:"), report.Longest.Name, report.Longest.Length)
			}

			fmt.Fprintf(out, "\n%s\n", cyan(fmt.Sprintf("Struggling (last %d periods)", report.Window)))
			repl.PrintStruggling(out, report.Struggling)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVarP(&window, "window", "w", 0, "struggling window in periods (default from config)")
	return cmd
}

func newMenuCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Start the interactive habit menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := repl.New(&repl.Config{
				Habits:    s.habits,
				Analytics: s.analytics,
				Out:       cmd.OutOrStdout(),
			})
			if err != nil {
				return fmt.Errorf("failed to create menu: %w", err)
			}
			return r.Run(cmd.Context())
		},
	}
}
