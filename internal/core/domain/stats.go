package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidWindow = errors.New("struggling window must be positive")
	ErrNoHabits      = errors.New("no habits to analyze")
)

// StreakResult is derived on demand and never persisted.
type StreakResult struct {
	AsOf             time.Time  `json:"as_of"`
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	BrokenPeriods    []Period   `json:"broken_periods"`
	ElapsedPeriods   int        `json:"elapsed_periods"`
	CompletedPeriods int        `json:"completed_periods"`
	CompletionRate   float64    `json:"completion_rate"`
	LastCompletion   *time.Time `json:"last_completion,omitempty"`
	OnTrack          bool       `json:"on_track"`
}

type HabitSummary struct {
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Periodicity Periodicity  `json:"periodicity"`
	CreatedAt   string       `json:"created_at"`
	Streak      StreakResult `json:"streak"`
}

type StrugglingHabit struct {
	Name          string      `json:"name"`
	Periodicity   Periodicity `json:"periodicity"`
	BrokenPeriods int         `json:"broken_periods"`
	WindowPeriods int         `json:"window_periods"`
}

type LongestStreak struct {
	Name   string `json:"name"`
	Length int    `json:"length"`
}

type AnalyticsReport struct {
	AsOf          string                   `json:"as_of"`
	TotalHabits   int                      `json:"total_habits"`
	Window        int                      `json:"window"`
	Habits        []HabitSummary           `json:"habits"`
	ByPeriodicity map[Periodicity][]string `json:"by_periodicity"`
	Longest       *LongestStreak           `json:"longest,omitempty"`
	Struggling    []StrugglingHabit        `json:"struggling"`
	Failures      map[string]string        `json:"failures,omitempty"`
}
