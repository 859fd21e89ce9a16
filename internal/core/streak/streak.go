// Package streak computes current and longest streaks and the broken periods of a
// habit from its completion history. Every function is a pure derivation of its
// arguments: nothing reads the clock and the habit is never modified.
package streak

import (
	"time"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/period"
)

// Compute evaluates h as of the calendar date of asOf. The period containing asOf
// is still open: leaving it uncompleted neither breaks the current streak nor
// counts as a broken period.
func Compute(h domain.Habit, asOf time.Time) (domain.StreakResult, error) {
	calc, err := period.For(h.Periodicity)
	if err != nil {
		return domain.StreakResult{}, err
	}

	hits, last, err := collectHits(h, calc, asOf)
	if err != nil {
		return domain.StreakResult{}, err
	}

	result := domain.StreakResult{
		AsOf:          domain.CivilDate(asOf),
		BrokenPeriods: []domain.Period{},
	}

	first := calc.Index(h.CreatedAt)
	current := calc.Index(asOf)
	if current < first {
		return result, nil
	}

	run := 0
	for idx := first; idx <= current; idx++ {
		if _, ok := hits[idx]; ok {
			run++
			result.CompletedPeriods++
			if run > result.LongestStreak {
				result.LongestStreak = run
			}
			continue
		}

		run = 0
		if idx < current {
			result.BrokenPeriods = append(result.BrokenPeriods, calc.Bounds(idx))
		}
	}

	_, currentHit := hits[current]
	_, previousHit := hits[current-1]
	previousHit = previousHit && current-1 >= first

	switch {
	case currentHit:
		result.CurrentStreak = run
	case previousHit:
		result.CurrentStreak = runEndingAt(hits, current-1, first)
	}

	result.ElapsedPeriods = current - first
	result.OnTrack = currentHit || previousHit || result.ElapsedPeriods == 0
	result.CompletionRate = float64(result.CompletedPeriods) / float64(current-first+1) * 100
	if !last.IsZero() {
		result.LastCompletion = &last
	}

	return result, nil
}

// collectHits maps completions to their distinct period indexes. Completions in a
// period after asOf are ignored; a completion dated before the habit's creation
// fails the whole computation.
func collectHits(h domain.Habit, calc period.Calculator, asOf time.Time) (map[int]struct{}, time.Time, error) {
	created := domain.CivilDate(h.CreatedAt)
	current := calc.Index(asOf)

	hits := make(map[int]struct{}, len(h.Completions))
	var last time.Time

	for _, c := range h.Completions {
		if domain.CivilDate(c).Before(created) {
			return nil, time.Time{}, &domain.TimestampError{Habit: h.Name, Timestamp: c, CreatedAt: created}
		}

		idx := calc.Index(c)
		if idx > current {
			continue
		}
		hits[idx] = struct{}{}
		if c.After(last) {
			last = c
		}
	}

	return hits, last, nil
}

func runEndingAt(hits map[int]struct{}, end, first int) int {
	n := 0
	for idx := end; idx >= first; idx-- {
		if _, ok := hits[idx]; !ok {
			break
		}
		n++
	}
	return n
}

// WasBroken reports whether any period overlapping the calendar dates [from, to]
// has no completion. Periods outside the habit's lifetime are not considered.
func WasBroken(h domain.Habit, from, to time.Time) (bool, error) {
	calc, err := period.For(h.Periodicity)
	if err != nil {
		return false, err
	}

	hits, _, err := collectHits(h, calc, to)
	if err != nil {
		return false, err
	}

	start := calc.Index(from)
	if created := calc.Index(h.CreatedAt); created > start {
		start = created
	}

	for idx := start; idx <= calc.Index(to); idx++ {
		if _, ok := hits[idx]; !ok {
			return true, nil
		}
	}
	return false, nil
}
