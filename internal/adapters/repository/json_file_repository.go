package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

var _ domain.HabitRepository = (*JSONFileHabitRepository)(nil)

// Layouts accepted for completion timestamps written by older versions, which
// stored naive local times without an offset.
var legacyTimestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	domain.DateLayout,
}

type habitRecord struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Periodicity   string   `json:"periodicity"`
	CreatedAt     string   `json:"created_at,omitempty"`
	CreationDate  string   `json:"creation_date,omitempty"`
	LastCompleted *string  `json:"last_completed"`
	Completions   []string `json:"completions"`
}

// JSONFileHabitRepository keeps the whole collection in memory and rewrites the
// file after every change.
type JSONFileHabitRepository struct {
	path   string
	logger *zap.Logger
	mem    *InMemoryHabitRepository

	mu sync.Mutex
}

// NewJSONFileHabitRepository opens path, creating it with an empty collection when
// missing. An empty or corrupted file is reported and treated as no habits.
func NewJSONFileHabitRepository(path string, logger *zap.Logger) (*JSONFileHabitRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &JSONFileHabitRepository{
		path:   path,
		logger: logger.With(zap.String("file", path)),
		mem:    NewInMemoryHabitRepository(),
	}

	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONFileHabitRepository) Path() string {
	return r.path
}

func (r *JSONFileHabitRepository) ensureFile() error {
	_, err := os.Stat(r.path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat data file: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if err := os.WriteFile(r.path, []byte("[]\n"), 0o644); err != nil {
		return fmt.Errorf("failed to create data file: %w", err)
	}
	r.logger.Info("created empty data file")
	return nil
}

func (r *JSONFileHabitRepository) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read data file: %w", err)
	}

	var records []habitRecord
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn("data file is empty or corrupted, starting with no habits", zap.Error(err))
		return nil
	}

	ctx := context.Background()
	for i, rec := range records {
		habit, err := rec.toDomain()
		if err != nil {
			r.logger.Warn("skipping unreadable habit record",
				zap.Int("index", i),
				zap.String("habit", rec.Name),
				zap.Error(err),
			)
			continue
		}
		if err := r.mem.Create(ctx, habit); err != nil {
			r.logger.Warn("skipping duplicate habit record", zap.String("habit", habit.Name))
		}
	}

	r.logger.Debug("habits loaded", zap.Int("count", len(r.mem.store)))
	return nil
}

// save writes to a temporary file in the same directory and renames it over the
// data file.
func (r *JSONFileHabitRepository) save(ctx context.Context) error {
	habits, err := r.mem.List(ctx)
	if err != nil {
		return err
	}

	records := make([]habitRecord, 0, len(habits))
	for _, h := range habits {
		records = append(records, fromDomain(h))
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode habits: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), r.path); err != nil {
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

// mutate applies fn to the in-memory collection and persists the result. A failed
// write restores the previous state.
func (r *JSONFileHabitRepository) mutate(ctx context.Context, fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.snapshot()
	if err := fn(); err != nil {
		return err
	}

	if err := r.save(ctx); err != nil {
		r.mem.mu.Lock()
		r.mem.store = snapshot
		r.mem.mu.Unlock()
		r.logger.Error("failed to persist habits", zap.Error(err))
		return err
	}
	return nil
}

func (r *JSONFileHabitRepository) snapshot() map[string]*domain.Habit {
	r.mem.mu.RLock()
	defer r.mem.mu.RUnlock()

	snap := make(map[string]*domain.Habit, len(r.mem.store))
	for k, v := range r.mem.store {
		snap[k] = v.Clone()
	}
	return snap
}

func (r *JSONFileHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	return r.mutate(ctx, func() error { return r.mem.Create(ctx, habit) })
}

func (r *JSONFileHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	return r.mem.GetByName(ctx, name)
}

func (r *JSONFileHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	return r.mem.List(ctx)
}

func (r *JSONFileHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	return r.mutate(ctx, func() error { return r.mem.Update(ctx, habit) })
}

func (r *JSONFileHabitRepository) Rename(ctx context.Context, oldName string, habit *domain.Habit) error {
	return r.mutate(ctx, func() error { return r.mem.Rename(ctx, oldName, habit) })
}

func (r *JSONFileHabitRepository) Delete(ctx context.Context, name string) error {
	return r.mutate(ctx, func() error { return r.mem.Delete(ctx, name) })
}

func fromDomain(h *domain.Habit) habitRecord {
	rec := habitRecord{
		Name:        h.Name,
		Description: h.Description,
		Periodicity: h.Periodicity.String(),
		CreatedAt:   h.CreatedAt.Format(domain.DateLayout),
		Completions: make([]string, 0, len(h.Completions)),
	}
	for _, c := range h.Completions {
		rec.Completions = append(rec.Completions, c.Format(time.RFC3339Nano))
	}
	if last, ok := h.LastCompletion(); ok {
		s := last.Format(time.RFC3339Nano)
		rec.LastCompleted = &s
	}
	return rec
}

func (rec habitRecord) toDomain() (*domain.Habit, error) {
	p, err := domain.ParsePeriodicity(rec.Periodicity)
	if err != nil {
		return nil, err
	}

	createdRaw := rec.CreatedAt
	if createdRaw == "" {
		createdRaw = rec.CreationDate
	}
	created, err := parseTimestamp(createdRaw)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}

	habit, err := domain.NewHabit(rec.Name, rec.Description, p, created)
	if err != nil {
		return nil, err
	}

	for _, raw := range rec.Completions {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return nil, fmt.Errorf("completion: %w", err)
		}
		if err := habit.AddCompletion(ts); err != nil {
			return nil, err
		}
	}

	if last, ok := habit.LastCompletion(); ok {
		habit.UpdatedAt = last.UTC()
	}
	return habit, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	for _, layout := range legacyTimestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}
