// Package analytics aggregates streak results across a collection of habits.
//
// All habits in one call are evaluated against the same as-of date. Results are
// new values; the input habits are only read.
package analytics

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/period"
	"github.com/comitanigiacomo/metime/internal/core/streak"
)

// Batch holds the streak results of one fan-out. A habit that fails to compute
// is reported in Failures and left out of every ranking.
type Batch struct {
	AsOf     time.Time
	Results  map[string]domain.StreakResult
	Failures map[string]error

	habits map[string]domain.Habit
}

// ComputeAll runs the streak engine for every habit in parallel. The error is
// only non-nil when ctx is cancelled.
func ComputeAll(ctx context.Context, habits []domain.Habit, asOf time.Time) (*Batch, error) {
	results := make([]domain.StreakResult, len(habits))
	errs := make([]error, len(habits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i := range habits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = streak.Compute(habits[i], asOf)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Batch{
		AsOf:     domain.CivilDate(asOf),
		Results:  make(map[string]domain.StreakResult, len(habits)),
		Failures: make(map[string]error),
		habits:   make(map[string]domain.Habit, len(habits)),
	}
	for i, h := range habits {
		b.habits[h.Name] = h
		if errs[i] != nil {
			b.Failures[h.Name] = errs[i]
			continue
		}
		b.Results[h.Name] = results[i]
	}
	return b, nil
}

// Err returns the failure of the alphabetically first failing habit, if any.
func (b *Batch) Err() error {
	if len(b.Failures) == 0 {
		return nil
	}
	names := make([]string, 0, len(b.Failures))
	for name := range b.Failures {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Errorf("habit %q: %w", names[0], b.Failures[names[0]])
}

// LongestStreak returns the habit with the longest streak, ties going to the
// lexicographically smallest name. ok is false when no habit computed.
func (b *Batch) LongestStreak() (name string, length int, ok bool) {
	for n, r := range b.Results {
		if !ok || r.LongestStreak > length || (r.LongestStreak == length && n < name) {
			name, length, ok = n, r.LongestStreak, true
		}
	}
	return name, length, ok
}

// Struggling ranks habits by broken periods among their window most recent
// elapsed periods, most broken first, then by name. Habits created in the
// current period have nothing elapsed and are skipped.
func (b *Batch) Struggling(window int) ([]domain.StrugglingHabit, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWindow, window)
	}

	ranking := make([]domain.StrugglingHabit, 0, len(b.Results))
	for name, r := range b.Results {
		if r.ElapsedPeriods == 0 {
			continue
		}

		calc, err := period.For(b.habits[name].Periodicity)
		if err != nil {
			return nil, err
		}
		span := min(window, r.ElapsedPeriods)
		cutoff := calc.Bounds(calc.Index(r.AsOf) - span).Start

		broken := 0
		for _, p := range r.BrokenPeriods {
			if !p.Start.Before(cutoff) {
				broken++
			}
		}

		ranking = append(ranking, domain.StrugglingHabit{
			Name:          name,
			Periodicity:   b.habits[name].Periodicity,
			BrokenPeriods: broken,
			WindowPeriods: span,
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].BrokenPeriods != ranking[j].BrokenPeriods {
			return ranking[i].BrokenPeriods > ranking[j].BrokenPeriods
		}
		return ranking[i].Name < ranking[j].Name
	})
	return ranking, nil
}

func (b *Batch) Summaries() []domain.HabitSummary {
	summaries := make([]domain.HabitSummary, 0, len(b.Results))
	for name, r := range b.Results {
		h := b.habits[name]
		summaries = append(summaries, domain.HabitSummary{
			Name:        h.Name,
			Description: h.Description,
			Periodicity: h.Periodicity,
			CreatedAt:   h.CreatedAt.Format(domain.DateLayout),
			Streak:      r,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries
}

func GroupByPeriodicity(habits []domain.Habit) map[domain.Periodicity][]string {
	groups := map[domain.Periodicity][]string{
		domain.Daily:  {},
		domain.Weekly: {},
	}
	for _, h := range habits {
		if !h.Periodicity.Valid() {
			continue
		}
		groups[h.Periodicity] = append(groups[h.Periodicity], h.Name)
	}
	for _, names := range groups {
		sort.Strings(names)
	}
	return groups
}

func LongestStreakOverall(habits []domain.Habit, asOf time.Time) (string, int, error) {
	if len(habits) == 0 {
		return "", 0, domain.ErrNoHabits
	}
	b, err := ComputeAll(context.Background(), habits, asOf)
	if err != nil {
		return "", 0, err
	}
	if err := b.Err(); err != nil {
		return "", 0, err
	}
	name, length, _ := b.LongestStreak()
	return name, length, nil
}

func LongestStreakFor(h domain.Habit, asOf time.Time) (int, error) {
	r, err := streak.Compute(h, asOf)
	if err != nil {
		return 0, err
	}
	return r.LongestStreak, nil
}

func RankStruggling(habits []domain.Habit, asOf time.Time, window int) ([]domain.StrugglingHabit, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidWindow, window)
	}
	b, err := ComputeAll(context.Background(), habits, asOf)
	if err != nil {
		return nil, err
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	return b.Struggling(window)
}

func StrugglingHabits(habits []domain.Habit, asOf time.Time, window int) ([]string, error) {
	ranking, err := RankStruggling(habits, asOf, window)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ranking))
	for _, s := range ranking {
		names = append(names, s.Name)
	}
	return names, nil
}
