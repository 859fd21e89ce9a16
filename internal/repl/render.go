package repl

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

// PrintSummaries renders one row per habit. Habits that are not on track are
// highlighted in red.
func PrintSummaries(w io.Writer, summaries []domain.HabitSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No habits yet.")
		return
	}

	red := color.New(color.FgRed).SprintFunc()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPERIODICITY\tCURRENT\tLONGEST\tLAST COMPLETION")
	for _, s := range summaries {
		last := "never"
		if s.Streak.LastCompletion != nil {
			last = s.Streak.LastCompletion.Format("2006-01-02 15:04")
		}
		name := s.Name
		if !s.Streak.OnTrack {
			name = red(name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n",
			name, s.Periodicity, s.Streak.CurrentStreak, s.Streak.LongestStreak, last)
	}
	tw.Flush()
}

func PrintFailures(w io.Writer, failures map[string]string) {
	if len(failures) == 0 {
		return
	}
	yellow := color.New(color.FgYellow).SprintFunc()
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "%s %s: %s\n", yellow("Skipped"), name, failures[name])
	}
}

func PrintGroups(w io.Writer, groups map[domain.Periodicity][]string) {
	for _, p := range []domain.Periodicity{domain.Daily, domain.Weekly} {
		fmt.Fprintf(w, "%s:\n", p)
		if len(groups[p]) == 0 {
			fmt.Fprintln(w, "  (none)")
			continue
		}
		for _, name := range groups[p] {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	}
}

func PrintStruggling(w io.Writer, ranking []domain.StrugglingHabit) {
	if len(ranking) == 0 {
		fmt.Fprintln(w, "Nothing to rank yet.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPERIODICITY\tBROKEN\tOF")
	for _, s := range ranking {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", s.Name, s.Periodicity, s.BrokenPeriods, s.WindowPeriods)
	}
	tw.Flush()
}
