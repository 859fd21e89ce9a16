package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

var _ domain.HabitRepository = (*InMemoryHabitRepository)(nil)

// InMemoryHabitRepository keeps habits in a map keyed by name. Stored values are
// copies, so callers can mutate what they get back.
type InMemoryHabitRepository struct {
	store map[string]*domain.Habit

	mu sync.RWMutex
}

func NewInMemoryHabitRepository() *InMemoryHabitRepository {
	return &InMemoryHabitRepository{
		store: make(map[string]*domain.Habit),
	}
}

func (r *InMemoryHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store[habit.Name]; exists {
		return domain.ErrHabitExists
	}

	r.store[habit.Name] = habit.Clone()
	return nil
}

func (r *InMemoryHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habit, ok := r.store[name]
	if !ok {
		return nil, domain.ErrHabitNotFound
	}
	return habit.Clone(), nil
}

func (r *InMemoryHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	habits := make([]*domain.Habit, 0, len(r.store))
	for _, h := range r.store {
		habits = append(habits, h.Clone())
	}

	sortHabits(habits)
	return habits, nil
}

func (r *InMemoryHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[habit.Name]; !ok {
		return domain.ErrHabitNotFound
	}

	r.store[habit.Name] = habit.Clone()
	return nil
}

func (r *InMemoryHabitRepository) Rename(ctx context.Context, oldName string, habit *domain.Habit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[oldName]; !ok {
		return domain.ErrHabitNotFound
	}
	if _, taken := r.store[habit.Name]; taken && habit.Name != oldName {
		return domain.ErrHabitExists
	}

	delete(r.store, oldName)
	r.store[habit.Name] = habit.Clone()
	return nil
}

func (r *InMemoryHabitRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[name]; !ok {
		return domain.ErrHabitNotFound
	}

	delete(r.store, name)
	return nil
}

// sortHabits orders by creation date, then name.
func sortHabits(habits []*domain.Habit) {
	sort.Slice(habits, func(i, j int) bool {
		if !habits[i].CreatedAt.Equal(habits[j].CreatedAt) {
			return habits[i].CreatedAt.Before(habits[j].CreatedAt)
		}
		return habits[i].Name < habits[j].Name
	})
}
