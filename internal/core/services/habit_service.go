package services

import (
	"context"
	"fmt"
	"time"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/period"
)

// StreakQueue receives the names of habits whose streaks need recomputing.
type StreakQueue interface {
	Enqueue(name string)
	Forget(name string)
}

type noopQueue struct{}

func (noopQueue) Enqueue(string) {}
func (noopQueue) Forget(string)  {}

type HabitService struct {
	repo  domain.HabitRepository
	queue StreakQueue
	now   func() time.Time
}

func NewHabitService(repo domain.HabitRepository, queue StreakQueue, now func() time.Time) *HabitService {
	if queue == nil {
		queue = noopQueue{}
	}
	if now == nil {
		now = time.Now
	}
	return &HabitService{
		repo:  repo,
		queue: queue,
		now:   now,
	}
}

type CreateHabitInput struct {
	Name        string
	Description string
	Periodicity string
}

// UpdateHabitInput changes the fields that are non-nil.
type UpdateHabitInput struct {
	Name        string
	NewName     *string
	Description *string
}

func (s *HabitService) Create(ctx context.Context, input CreateHabitInput) (*domain.Habit, error) {
	p, err := domain.ParsePeriodicity(input.Periodicity)
	if err != nil {
		return nil, err
	}

	habit, err := domain.NewHabit(input.Name, input.Description, p, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		return nil, err
	}

	s.queue.Enqueue(habit.Name)

	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, name string) (*domain.Habit, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *HabitService) List(ctx context.Context) ([]*domain.Habit, error) {
	return s.repo.List(ctx)
}

func (s *HabitService) ListByPeriodicity(ctx context.Context, periodicity string) ([]*domain.Habit, error) {
	p, err := domain.ParsePeriodicity(periodicity)
	if err != nil {
		return nil, err
	}

	habits, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.Habit, 0, len(habits))
	for _, h := range habits {
		if h.Periodicity == p {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

func (s *HabitService) Update(ctx context.Context, input UpdateHabitInput) (*domain.Habit, error) {
	habit, err := s.repo.GetByName(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if input.Description != nil {
		if err := habit.Describe(*input.Description, now); err != nil {
			return nil, err
		}
	}

	oldName := habit.Name
	if input.NewName != nil {
		if err := habit.Rename(*input.NewName, now); err != nil {
			return nil, err
		}
	}

	if habit.Name == oldName {
		if err := s.repo.Update(ctx, habit); err != nil {
			return nil, err
		}
		return habit, nil
	}

	if err := s.repo.Rename(ctx, oldName, habit); err != nil {
		return nil, err
	}

	s.queue.Forget(oldName)
	s.queue.Enqueue(habit.Name)

	return habit, nil
}

func (s *HabitService) Rename(ctx context.Context, oldName, newName string) (*domain.Habit, error) {
	return s.Update(ctx, UpdateHabitInput{Name: oldName, NewName: &newName})
}

func (s *HabitService) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}

	s.queue.Forget(name)

	return nil
}

// Complete records a completion at the given time, or now when at is nil. Only one
// completion per period is accepted.
func (s *HabitService) Complete(ctx context.Context, name string, at *time.Time) (*domain.Habit, error) {
	habit, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	ts := s.now()
	if at != nil {
		ts = *at
	}

	calc, err := period.For(habit.Periodicity)
	if err != nil {
		return nil, err
	}

	target := calc.Index(ts)
	for _, c := range habit.Completions {
		if calc.Index(c) == target {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyCompleted, calc.Bounds(target).Label())
		}
	}

	if err := habit.AddCompletion(ts); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, habit); err != nil {
		return nil, err
	}

	s.queue.Enqueue(habit.Name)

	return habit, nil
}
