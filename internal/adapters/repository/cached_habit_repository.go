package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

const (
	habitsCacheKey  = "metime:habits"
	DefaultCacheTTL = 30 * time.Minute
)

// CachedHabitRepository serves List from Redis and drops the cached collection on
// every write.
type CachedHabitRepository struct {
	next   domain.HabitRepository
	cache  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client, logger *zap.Logger, ttl time.Duration) *CachedHabitRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedHabitRepository{
		next:   next,
		cache:  cache,
		logger: logger,
		ttl:    ttl,
	}
}

func (r *CachedHabitRepository) invalidate(ctx context.Context) {
	if err := r.cache.Del(ctx, habitsCacheKey).Err(); err != nil {
		r.logger.Warn("cache invalidation failed", zap.String("key", habitsCacheKey), zap.Error(err))
	}
}

func (r *CachedHabitRepository) List(ctx context.Context) ([]*domain.Habit, error) {
	val, err := r.cache.Get(ctx, habitsCacheKey).Result()
	if err == nil {
		var habits []*domain.Habit
		if err := json.Unmarshal([]byte(val), &habits); err == nil {
			return habits, nil
		}

		r.logger.Warn("corrupted cache entry, cleaning up key", zap.String("key", habitsCacheKey))
		r.cache.Del(ctx, habitsCacheKey)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("cache read failed", zap.Error(err))
	}

	habits, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(habits); err == nil {
		if setErr := r.cache.Set(ctx, habitsCacheKey, data, r.ttl).Err(); setErr != nil {
			r.logger.Warn("cache write failed", zap.Error(setErr))
		}
	}

	return habits, nil
}

func (r *CachedHabitRepository) GetByName(ctx context.Context, name string) (*domain.Habit, error) {
	return r.next.GetByName(ctx, name)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Rename(ctx context.Context, oldName string, habit *domain.Habit) error {
	if err := r.next.Rename(ctx, oldName, habit); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, name string) error {
	if err := r.next.Delete(ctx, name); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}
