package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/metime/internal/core/analytics"
	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/streak"
)

const DefaultStrugglingWindow = 30

// ComputationRecorder counts streak computations by outcome.
type ComputationRecorder interface {
	RecordComputation(source string, failed bool)
}

type AnalyticsService struct {
	repo     domain.HabitRepository
	now      func() time.Time
	window   int
	recorder ComputationRecorder
}

func NewAnalyticsService(repo domain.HabitRepository, now func() time.Time, window int, recorder ComputationRecorder) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = DefaultStrugglingWindow
	}
	return &AnalyticsService{
		repo:     repo,
		now:      now,
		window:   window,
		recorder: recorder,
	}
}

func (s *AnalyticsService) asOf(asOf *time.Time) time.Time {
	if asOf != nil {
		return domain.CivilDate(*asOf)
	}
	return domain.CivilDate(s.now())
}

func (s *AnalyticsService) resolveWindow(window int) (int, error) {
	switch {
	case window == 0:
		return s.window, nil
	case window < 0:
		return 0, fmt.Errorf("%w: %d", domain.ErrInvalidWindow, window)
	default:
		return window, nil
	}
}

func (s *AnalyticsService) snapshot(ctx context.Context) ([]domain.Habit, error) {
	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	values := make([]domain.Habit, 0, len(habits))
	for _, h := range habits {
		values = append(values, *h.Clone())
	}
	return values, nil
}

func (s *AnalyticsService) batch(ctx context.Context, asOf time.Time) (*analytics.Batch, []domain.Habit, error) {
	habits, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	b, err := analytics.ComputeAll(ctx, habits, asOf)
	if err != nil {
		return nil, nil, err
	}

	if s.recorder != nil {
		for range b.Results {
			s.recorder.RecordComputation("analytics", false)
		}
		for range b.Failures {
			s.recorder.RecordComputation("analytics", true)
		}
	}
	return b, habits, nil
}

// Overview evaluates every habit against one as-of date. Habits that fail to
// compute are listed in Failures instead of aborting the report.
func (s *AnalyticsService) Overview(ctx context.Context, asOf *time.Time, window int) (*domain.AnalyticsReport, error) {
	w, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	date := s.asOf(asOf)
	b, habits, err := s.batch(ctx, date)
	if err != nil {
		return nil, err
	}

	struggling, err := b.Struggling(w)
	if err != nil {
		return nil, err
	}

	report := &domain.AnalyticsReport{
		AsOf:          date.Format(domain.DateLayout),
		TotalHabits:   len(habits),
		Window:        w,
		Habits:        b.Summaries(),
		ByPeriodicity: analytics.GroupByPeriodicity(habits),
		Struggling:    struggling,
	}

	if name, length, ok := b.LongestStreak(); ok {
		report.Longest = &domain.LongestStreak{Name: name, Length: length}
	}

	if len(b.Failures) > 0 {
		report.Failures = make(map[string]string, len(b.Failures))
		for name, ferr := range b.Failures {
			report.Failures[name] = ferr.Error()
		}
	}

	return report, nil
}

func (s *AnalyticsService) Streak(ctx context.Context, name string, asOf *time.Time) (*domain.HabitSummary, error) {
	habit, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	result, err := streak.Compute(*habit, s.asOf(asOf))
	if s.recorder != nil {
		s.recorder.RecordComputation("streak", err != nil)
	}
	if err != nil {
		return nil, err
	}

	return &domain.HabitSummary{
		Name:        habit.Name,
		Description: habit.Description,
		Periodicity: habit.Periodicity,
		CreatedAt:   habit.CreatedAt.Format(domain.DateLayout),
		Streak:      result,
	}, nil
}

func (s *AnalyticsService) Struggling(ctx context.Context, asOf *time.Time, window int) ([]domain.StrugglingHabit, error) {
	w, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}

	b, _, err := s.batch(ctx, s.asOf(asOf))
	if err != nil {
		return nil, err
	}
	return b.Struggling(w)
}

// Longest fails with ErrNoHabits when no habit could be evaluated.
func (s *AnalyticsService) Longest(ctx context.Context, asOf *time.Time) (*domain.LongestStreak, error) {
	b, _, err := s.batch(ctx, s.asOf(asOf))
	if err != nil {
		return nil, err
	}

	name, length, ok := b.LongestStreak()
	if !ok {
		return nil, domain.ErrNoHabits
	}
	return &domain.LongestStreak{Name: name, Length: length}, nil
}

func (s *AnalyticsService) ByPeriodicity(ctx context.Context) (map[domain.Periodicity][]string, error) {
	habits, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return analytics.GroupByPeriodicity(habits), nil
}

// Window is the struggling window used when callers pass zero.
func (s *AnalyticsService) Window() int {
	return s.window
}
