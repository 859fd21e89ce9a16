package streak_test

import (
	"errors"
	"testing"
	"time"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/streak"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func habit(p domain.Periodicity, created time.Time, completions ...time.Time) domain.Habit {
	return domain.Habit{
		Name:        "Test",
		Periodicity: p,
		CreatedAt:   created,
		Completions: completions,
	}
}

func labels(periods []domain.Period) []string {
	out := make([]string, 0, len(periods))
	for _, p := range periods {
		out = append(out, p.Label())
	}
	return out
}

func TestCompute_Daily(t *testing.T) {
	created := day(2024, 1, 1)
	daysAfter := func(n int) time.Time { return created.AddDate(0, 0, n) }

	tests := []struct {
		name        string
		completions []time.Time
		asOf        time.Time
		wantCurrent int
		wantLongest int
		wantBroken  []string
	}{
		{
			name:        "Empty history breaks every elapsed day",
			completions: nil,
			asOf:        daysAfter(3),
			wantCurrent: 0,
			wantLongest: 0,
			wantBroken:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
		{
			name:        "Created today with no completion is not broken",
			completions: nil,
			asOf:        created,
			wantBroken:  []string{},
		},
		{
			name:        "Single entry today",
			completions: []time.Time{created},
			asOf:        created,
			wantCurrent: 1,
			wantLongest: 1,
			wantBroken:  []string{},
		},
		{
			name:        "Gap on the second day",
			completions: []time.Time{day(2024, 1, 1), day(2024, 1, 3)},
			asOf:        day(2024, 1, 3),
			wantCurrent: 1,
			wantLongest: 1,
			wantBroken:  []string{"2024-01-02"},
		},
		{
			name:        "Yesterday keeps the streak alive",
			completions: []time.Time{daysAfter(0), daysAfter(1), daysAfter(2)},
			asOf:        daysAfter(3),
			wantCurrent: 3,
			wantLongest: 3,
			wantBroken:  []string{},
		},
		{
			name:        "Two days ago breaks the current streak",
			completions: []time.Time{daysAfter(0), daysAfter(1)},
			asOf:        daysAfter(3),
			wantCurrent: 0,
			wantLongest: 2,
			wantBroken:  []string{"2024-01-03"},
		},
		{
			name:        "Longest streak in the past",
			completions: []time.Time{daysAfter(0), daysAfter(1), daysAfter(2), daysAfter(6)},
			asOf:        daysAfter(6),
			wantCurrent: 1,
			wantLongest: 3,
			wantBroken:  []string{"2024-01-04", "2024-01-05", "2024-01-06"},
		},
		{
			name:        "Unsorted completions",
			completions: []time.Time{daysAfter(2), daysAfter(0), daysAfter(1)},
			asOf:        daysAfter(2),
			wantCurrent: 3,
			wantLongest: 3,
			wantBroken:  []string{},
		},
		{
			name: "Duplicates in one day count once",
			completions: []time.Time{
				daysAfter(0),
				daysAfter(1),
				daysAfter(1).Add(9 * time.Hour),
				daysAfter(1).Add(21 * time.Hour),
			},
			asOf:        daysAfter(1),
			wantCurrent: 2,
			wantLongest: 2,
			wantBroken:  []string{},
		},
		{
			name:        "Completions after as_of are ignored",
			completions: []time.Time{daysAfter(0), daysAfter(5), daysAfter(6)},
			asOf:        daysAfter(1),
			wantCurrent: 1,
			wantLongest: 1,
			wantBroken:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := streak.Compute(habit(domain.Daily, created, tt.completions...), tt.asOf)

			require.NoError(t, err)
			assert.Equal(t, tt.wantCurrent, got.CurrentStreak, "Current Streak mismatch")
			assert.Equal(t, tt.wantLongest, got.LongestStreak, "Longest Streak mismatch")
			assert.Equal(t, tt.wantBroken, labels(got.BrokenPeriods), "Broken periods mismatch")
			assert.GreaterOrEqual(t, got.LongestStreak, got.CurrentStreak)
		})
	}
}

func TestCompute_DailyPerfectRun(t *testing.T) {
	created := day(2024, 3, 1)
	for n := 1; n <= 40; n++ {
		var completions []time.Time
		for i := 0; i < n; i++ {
			completions = append(completions, created.AddDate(0, 0, i).Add(7*time.Hour))
		}

		got, err := streak.Compute(habit(domain.Daily, created, completions...), created.AddDate(0, 0, n-1))

		require.NoError(t, err)
		assert.Equal(t, n, got.CurrentStreak)
		assert.Equal(t, n, got.LongestStreak)
		assert.Empty(t, got.BrokenPeriods)
		assert.InDelta(t, 100.0, got.CompletionRate, 0.001)
	}
}

func TestCompute_MissingTodayKeepsYesterdaysValue(t *testing.T) {
	created := day(2024, 5, 1)
	h := habit(domain.Daily, created, day(2024, 5, 1), day(2024, 5, 2), day(2024, 5, 3), day(2024, 5, 4))

	yesterday, err := streak.Compute(h, day(2024, 5, 4))
	require.NoError(t, err)
	today, err := streak.Compute(h, time.Date(2024, 5, 5, 23, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, yesterday.CurrentStreak, today.CurrentStreak)
	assert.Equal(t, 4, today.CurrentStreak)
	assert.True(t, today.OnTrack)
	assert.Empty(t, today.BrokenPeriods)
}

func TestCompute_Weekly(t *testing.T) {
	t.Run("Yoga scenario: one missing week", func(t *testing.T) {
		h := habit(domain.Weekly, day(2024, 1, 1), day(2024, 1, 3), day(2024, 1, 10), day(2024, 1, 24))
		h.Name = "Yoga"

		got, err := streak.Compute(h, day(2024, 1, 24))

		require.NoError(t, err)
		assert.Equal(t, 1, got.CurrentStreak)
		assert.Equal(t, 2, got.LongestStreak)
		require.Len(t, got.BrokenPeriods, 1)
		assert.Equal(t, day(2024, 1, 15), got.BrokenPeriods[0].Start)
		assert.Equal(t, day(2024, 1, 22), got.BrokenPeriods[0].End)
		assert.Equal(t, 3, got.ElapsedPeriods)
		assert.Equal(t, 3, got.CompletedPeriods)
	})

	t.Run("Week 52 and next week 1 are not adjacent in a 53-week year", func(t *testing.T) {
		h := habit(domain.Weekly, day(2020, 12, 21), day(2020, 12, 22), day(2021, 1, 5))

		got, err := streak.Compute(h, day(2021, 1, 5))

		require.NoError(t, err)
		assert.Equal(t, 1, got.LongestStreak)
		assert.Equal(t, 1, got.CurrentStreak)
		assert.Equal(t, []string{"2020-W53"}, labels(got.BrokenPeriods))
	})

	t.Run("Week 53 and next week 1 are adjacent", func(t *testing.T) {
		h := habit(domain.Weekly, day(2020, 12, 28), day(2020, 12, 31), day(2021, 1, 4))

		got, err := streak.Compute(h, day(2021, 1, 4))

		require.NoError(t, err)
		assert.Equal(t, 2, got.LongestStreak)
		assert.Equal(t, 2, got.CurrentStreak)
	})

	t.Run("Week 52 and week 1 are adjacent in a 52-week year", func(t *testing.T) {
		h := habit(domain.Weekly, day(2023, 12, 25), day(2023, 12, 27), day(2024, 1, 2))

		got, err := streak.Compute(h, day(2024, 1, 2))

		require.NoError(t, err)
		assert.Equal(t, 2, got.CurrentStreak)
	})

	t.Run("Open week does not reset last week's streak", func(t *testing.T) {
		h := habit(domain.Weekly, day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 9))

		got, err := streak.Compute(h, day(2024, 1, 15))

		require.NoError(t, err)
		assert.Equal(t, 2, got.CurrentStreak)
		assert.Empty(t, got.BrokenPeriods)
	})

	t.Run("Two completions in one week count once", func(t *testing.T) {
		h := habit(domain.Weekly, day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 7))

		got, err := streak.Compute(h, day(2024, 1, 7))

		require.NoError(t, err)
		assert.Equal(t, 1, got.LongestStreak)
		assert.Equal(t, 1, got.CompletedPeriods)
	})
}

func TestCompute_Errors(t *testing.T) {
	t.Run("Invalid periodicity", func(t *testing.T) {
		_, err := streak.Compute(habit(domain.Periodicity("monthly"), day(2024, 1, 1)), day(2024, 1, 2))
		assert.ErrorIs(t, err, domain.ErrInvalidPeriodicity)
	})

	t.Run("Completion before creation", func(t *testing.T) {
		h := habit(domain.Daily, day(2024, 1, 10), day(2024, 1, 9))
		h.Name = "Read"

		_, err := streak.Compute(h, day(2024, 1, 12))

		require.ErrorIs(t, err, domain.ErrInvalidTimestamp)
		var tsErr *domain.TimestampError
		require.True(t, errors.As(err, &tsErr))
		assert.Equal(t, "Read", tsErr.Habit)
		assert.Equal(t, day(2024, 1, 9), tsErr.Timestamp)
	})
}

func TestCompute_AsOfBeforeCreation(t *testing.T) {
	got, err := streak.Compute(habit(domain.Daily, day(2024, 1, 10), day(2024, 1, 10)), day(2024, 1, 1))

	require.NoError(t, err)
	assert.Zero(t, got.CurrentStreak)
	assert.Zero(t, got.LongestStreak)
	assert.Empty(t, got.BrokenPeriods)
}

func TestCompute_IsPureAndIdempotent(t *testing.T) {
	completions := []time.Time{day(2024, 1, 3), day(2024, 1, 1), day(2024, 1, 1)}
	h := habit(domain.Daily, day(2024, 1, 1), completions...)
	snapshot := append([]time.Time(nil), completions...)

	first, err := streak.Compute(h, day(2024, 1, 4))
	require.NoError(t, err)
	second, err := streak.Compute(h, day(2024, 1, 4))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, h.Completions, "input must not be reordered or deduplicated")
}

func TestCompute_Metadata(t *testing.T) {
	last := time.Date(2024, 1, 3, 20, 15, 0, 0, time.UTC)
	h := habit(domain.Daily, day(2024, 1, 1), day(2024, 1, 1), last)

	got, err := streak.Compute(h, time.Date(2024, 1, 4, 9, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 4), got.AsOf)
	require.NotNil(t, got.LastCompletion)
	assert.Equal(t, last, *got.LastCompletion)
	assert.Equal(t, 3, got.ElapsedPeriods)
	assert.Equal(t, 2, got.CompletedPeriods)
	assert.InDelta(t, 50.0, got.CompletionRate, 0.001)
	assert.True(t, got.OnTrack)
}

func TestWasBroken(t *testing.T) {
	h := habit(domain.Daily, day(2024, 1, 1), day(2024, 1, 1), day(2024, 1, 2), day(2024, 1, 4))

	broken, err := streak.WasBroken(h, day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, err)
	assert.False(t, broken)

	broken, err = streak.WasBroken(h, day(2024, 1, 1), day(2024, 1, 4))
	require.NoError(t, err)
	assert.True(t, broken)

	weekly := habit(domain.Weekly, day(2024, 1, 1), day(2024, 1, 3), day(2024, 1, 8))
	broken, err = streak.WasBroken(weekly, day(2023, 12, 1), day(2024, 1, 14))
	require.NoError(t, err)
	assert.False(t, broken, "weeks before creation are not broken")
}
