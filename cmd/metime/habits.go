package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/services"
)

func newAddCmd(s *session) *cobra.Command {
	var (
		periodicity string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a new habit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			habit, err := s.habits.Create(cmd.Context(), services.CreateHabitInput{
				Name:        strings.Join(args, " "),
				Description: description,
				Periodicity: periodicity,
			})
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s habit %q (%s)\n", green("Created"), habit.Name, habit.Periodicity)
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodicity, "periodicity", "p", string(domain.Daily), "daily or weekly")
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	return cmd
}

func newDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a habit and its history",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			if err := s.habits.Delete(cmd.Context(), name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted habit %q\n", name)
			return nil
		},
	}
}

func newRenameCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "rename OLD NEW",
		Short: "Rename a habit, keeping its history",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			habit, err := s.habits.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], habit.Name)
			return nil
		},
	}
}

func newCompleteCmd(s *session) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "complete NAME",
		Short: "Mark a habit as done for the current period",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var when *time.Time
			if at != "" {
				t, err := parseWhen(at)
				if err != nil {
					return err
				}
				when = &t
			}

			habit, err := s.habits.Complete(cmd.Context(), strings.Join(args, " "), when)
			if err != nil {
				return err
			}

			green := color.New(color.FgGreen).SprintFunc()
			fmt.Fprintf(cmd.OutOrStdout(), "%s %q\n", green("Completed"), habit.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "completion time, RFC 3339 or YYYY-MM-DD (default now)")
	return cmd
}

func newListCmd(s *session) *cobra.Command {
	var periodicity string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List habits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				habits []*domain.Habit
				err    error
			)
			if periodicity != "" {
				habits, err = s.habits.ListByPeriodicity(cmd.Context(), periodicity)
			} else {
				habits, err = s.habits.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(habits) == 0 {
				fmt.Fprintln(out, "No habits yet.")
				return nil
			}
			for _, h := range habits {
				fmt.Fprintf(out, "%s (%s, since %s)\n", h.Name, h.Periodicity, h.CreatedAt.Format(domain.DateLayout))
				if h.Description != "" {
					fmt.Fprintf(out, "  %s\n", h.Description)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&periodicity, "periodicity", "p", "", "only show daily or weekly habits")
	return cmd
}

func parseWhen(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(domain.DateLayout, raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, expected RFC 3339 or YYYY-MM-DD", raw)
}
