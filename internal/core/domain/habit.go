package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	ErrHabitNameEmpty     = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong   = errors.New("habit name is too long (max 100 chars)")
	ErrHabitDescTooLong   = errors.New("habit description is too long (max 500 chars)")
	ErrInvalidPeriodicity = errors.New("invalid periodicity (must be daily or weekly)")
	ErrInvalidTimestamp   = errors.New("completion predates habit creation")
	ErrAlreadyCompleted   = errors.New("habit already completed in this period")
)

const (
	MaxNameLen = 100
	MaxDescLen = 500
	DateLayout = "2006-01-02"
)

type Periodicity string

const (
	Daily  Periodicity = "daily"
	Weekly Periodicity = "weekly"
)

func (p Periodicity) Valid() bool {
	return p == Daily || p == Weekly
}

func (p Periodicity) String() string {
	return string(p)
}

// ParsePeriodicity accepts the persisted spelling, case-insensitively.
func ParsePeriodicity(s string) (Periodicity, error) {
	p := Periodicity(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriodicity, s)
	}
	return p, nil
}

type Habit struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Periodicity Periodicity `json:"periodicity"`
	CreatedAt   time.Time   `json:"created_at"`
	Completions []time.Time `json:"completions"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TimestampError reports a completion recorded before its habit existed.
type TimestampError struct {
	Habit     string
	Timestamp time.Time
	CreatedAt time.Time
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("habit %q: completion %s predates creation date %s",
		e.Habit, e.Timestamp.Format(time.RFC3339), e.CreatedAt.Format(DateLayout))
}

func (e *TimestampError) Unwrap() error {
	return ErrInvalidTimestamp
}

// CivilDate drops the time of day, keeping the wall-clock date of t as a UTC midnight.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validate(name, desc string, p Periodicity) error {
	if name == "" {
		return ErrHabitNameEmpty
	}
	if len(name) > MaxNameLen {
		return ErrHabitNameTooLong
	}
	if len(desc) > MaxDescLen {
		return ErrHabitDescTooLong
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPeriodicity, p)
	}
	return nil
}

func NewHabit(name, description string, periodicity Periodicity, createdAt time.Time) (*Habit, error) {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)

	if err := validate(name, description, periodicity); err != nil {
		return nil, err
	}

	return &Habit{
		Name:        name,
		Description: description,
		Periodicity: periodicity,
		CreatedAt:   CivilDate(createdAt),
		Completions: []time.Time{},
		UpdatedAt:   createdAt.UTC(),
	}, nil
}

func (h *Habit) Validate() error {
	if err := validate(strings.TrimSpace(h.Name), strings.TrimSpace(h.Description), h.Periodicity); err != nil {
		return err
	}
	for _, c := range h.Completions {
		if err := h.checkTimestamp(c); err != nil {
			return err
		}
	}
	return nil
}

func (h *Habit) checkTimestamp(at time.Time) error {
	if CivilDate(at).Before(CivilDate(h.CreatedAt)) {
		return &TimestampError{Habit: h.Name, Timestamp: at, CreatedAt: h.CreatedAt}
	}
	return nil
}

// AddCompletion inserts at in chronological order. Same-period duplicates are the
// caller's concern since detecting them needs a period calculator.
func (h *Habit) AddCompletion(at time.Time) error {
	if err := h.checkTimestamp(at); err != nil {
		return err
	}

	i := sort.Search(len(h.Completions), func(i int) bool {
		return h.Completions[i].After(at)
	})
	h.Completions = append(h.Completions, time.Time{})
	copy(h.Completions[i+1:], h.Completions[i:])
	h.Completions[i] = at
	h.UpdatedAt = at.UTC()
	return nil
}

func (h *Habit) Rename(name string, at time.Time) error {
	name = strings.TrimSpace(name)
	if err := validate(name, h.Description, h.Periodicity); err != nil {
		return err
	}
	h.Name = name
	h.UpdatedAt = at.UTC()
	return nil
}

func (h *Habit) Describe(description string, at time.Time) error {
	description = strings.TrimSpace(description)
	if err := validate(h.Name, description, h.Periodicity); err != nil {
		return err
	}
	h.Description = description
	h.UpdatedAt = at.UTC()
	return nil
}

// LastCompletion returns the latest completion regardless of insertion order.
func (h *Habit) LastCompletion() (time.Time, bool) {
	var last time.Time
	for _, c := range h.Completions {
		if c.After(last) {
			last = c
		}
	}
	return last, !last.IsZero()
}

func (h *Habit) Clone() *Habit {
	clone := *h
	clone.Completions = append([]time.Time(nil), h.Completions...)
	return &clone
}
