package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound = errors.New("habit not found")
	ErrHabitExists   = errors.New("habit with this name already exists")
)

type HabitRepository interface {
	// Create persists a new habit. Names are unique within the collection.
	Create(ctx context.Context, habit *Habit) error

	// GetByName retrieves a habit by its unique name.
	GetByName(ctx context.Context, name string) (*Habit, error)

	// List returns every habit ordered by creation date, then name.
	List(ctx context.Context) ([]*Habit, error)

	// Update replaces the stored habit with the same name.
	Update(ctx context.Context, habit *Habit) error

	// Rename replaces the habit stored under oldName with habit, which carries
	// the new unique name.
	Rename(ctx context.Context, oldName string, habit *Habit) error

	// Delete permanently removes a habit from the collection.
	Delete(ctx context.Context, name string) error
}
