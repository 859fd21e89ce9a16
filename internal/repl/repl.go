package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/comitanigiacomo/metime/internal/core/services"
)

// REPL is the interactive habit menu.
type REPL struct {
	habits    *services.HabitService
	analytics *services.AnalyticsService
	out       io.Writer
	ctx       context.Context
	commands  map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

type Config struct {
	Habits    *services.HabitService
	Analytics *services.AnalyticsService
	Out       io.Writer
}

func New(cfg *Config) (*REPL, error) {
	if cfg.Habits == nil || cfg.Analytics == nil {
		return nil, fmt.Errorf("habit and analytics services are required")
	}

	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		habits:    cfg.Habits,
		analytics: cfg.Analytics,
		out:       out,
		ctx:       context.Background(),
		commands:  make(map[string]CommandHandler),
	}
	r.registerCommands()

	return r, nil
}

// Run reads commands until exit, Ctrl+D, or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	cyan := color.New(color.FgCyan).SprintFunc()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("metime> "),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.printWelcome()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			} else if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	if handler, ok := r.commands[command]; ok {
		return handler(parts[1:])
	}

	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(r.out, "%s unknown command %q. Use 'help' for available commands.\n", yellow("Note:"), parts[0])
	return nil
}

func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["create"] = r.cmdCreate
	r.commands["delete"] = r.cmdDelete
	r.commands["complete"] = r.cmdComplete
	r.commands["habits"] = r.cmdHabits
	r.commands["analyze"] = r.cmdAnalyze
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("Welcome to the Habit Tracker - MeTime"))
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"create <daily|weekly> <name>", "Create a new habit"},
		{"delete <name>", "Delete a habit and its history"},
		{"complete <name>", "Mark a habit as done for the current period"},
		{"habits", "View habits with current and longest streaks"},
		{"analyze periodicity", "List habits grouped by periodicity"},
		{"analyze longest [name]", "Longest streak overall or of one habit"},
		{"analyze struggling [window]", "Habits with the most broken periods"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the menu"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-30s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *REPL) cmdCreate(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: create <daily|weekly> <name>")
	}

	habit, err := r.habits.Create(r.ctx, services.CreateHabitInput{
		Name:        strings.Join(args[1:], " "),
		Periodicity: args[0],
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Habit %q created (%s).\n", habit.Name, habit.Periodicity)
	return nil
}

func (r *REPL) cmdDelete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: delete <name>")
	}

	name := strings.Join(args, " ")
	if err := r.habits.Delete(r.ctx, name); err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Habit %q deleted.\n", name)
	return nil
}

func (r *REPL) cmdComplete(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: complete <name>")
	}

	habit, err := r.habits.Complete(r.ctx, strings.Join(args, " "), nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Habit %q completed.\n", habit.Name)
	return nil
}

func (r *REPL) cmdHabits(args []string) error {
	report, err := r.analytics.Overview(r.ctx, nil, 0)
	if err != nil {
		return err
	}

	PrintSummaries(r.out, report.Habits)
	PrintFailures(r.out, report.Failures)
	return nil
}

func (r *REPL) cmdAnalyze(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: analyze <periodicity|longest|struggling>")
	}

	switch strings.ToLower(args[0]) {
	case "periodicity":
		groups, err := r.analytics.ByPeriodicity(r.ctx)
		if err != nil {
			return err
		}
		PrintGroups(r.out, groups)

	case "longest":
		if len(args) > 1 {
			summary, err := r.analytics.Streak(r.ctx, strings.Join(args[1:], " "), nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(r.out, "Longest streak of %q: %d\n", summary.Name, summary.Streak.LongestStreak)
			return nil
		}
		longest, err := r.analytics.Longest(r.ctx, nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(r.out, "Longest streak: %q with %d\n", longest.Name, longest.Length)

	case "struggling":
		window := r.analytics.Window()
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("window must be a positive integer")
			}
			window = n
		}
		ranking, err := r.analytics.Struggling(r.ctx, nil, window)
		if err != nil {
			return err
		}
		PrintStruggling(r.out, ranking)

	default:
		return fmt.Errorf("unknown analysis %q", args[0])
	}
	return nil
}

func (r *REPL) cmdExit(args []string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	return io.EOF
}
