package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/metime/internal/core/domain"
)

func TestInMemoryHabitRepository(t *testing.T) {
	ctx := context.Background()
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success: List orders by creation date then name", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		require.NoError(t, repo.Create(ctx, newHabit(t, "Walk", domain.Daily, jan1.AddDate(0, 0, 1))))
		require.NoError(t, repo.Create(ctx, newHabit(t, "Read", domain.Daily, jan1)))
		require.NoError(t, repo.Create(ctx, newHabit(t, "Cook", domain.Weekly, jan1.AddDate(0, 0, 1))))

		habits, err := repo.List(ctx)

		require.NoError(t, err)
		names := []string{habits[0].Name, habits[1].Name, habits[2].Name}
		assert.Equal(t, []string{"Read", "Cook", "Walk"}, names)
	})

	t.Run("Success: Returned habits are copies", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		require.NoError(t, repo.Create(ctx, newHabit(t, "Read", domain.Daily, jan1)))

		got, _ := repo.GetByName(ctx, "Read")
		require.NoError(t, got.AddCompletion(jan1.Add(time.Hour)))

		again, _ := repo.GetByName(ctx, "Read")
		assert.Empty(t, again.Completions)
	})

	t.Run("Fail: Rename onto a taken name", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		require.NoError(t, repo.Create(ctx, newHabit(t, "Read", domain.Daily, jan1)))
		require.NoError(t, repo.Create(ctx, newHabit(t, "Walk", domain.Daily, jan1)))

		h, _ := repo.GetByName(ctx, "Read")
		h.Name = "Walk"

		assert.ErrorIs(t, repo.Rename(ctx, "Read", h), domain.ErrHabitExists)
		assert.ErrorIs(t, repo.Rename(ctx, "Ghost", h), domain.ErrHabitNotFound)
	})

	t.Run("Concurrency: Parallel completions do not race", func(t *testing.T) {
		repo := NewInMemoryHabitRepository()
		for i := 0; i < 20; i++ {
			require.NoError(t, repo.Create(ctx, newHabit(t, string(rune('a'+i)), domain.Daily, jan1)))
		}

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				h, err := repo.GetByName(ctx, name)
				if !assert.NoError(t, err) {
					return
				}
				assert.NoError(t, h.AddCompletion(jan1))
				assert.NoError(t, repo.Update(ctx, h))
				_, _ = repo.List(ctx)
			}(string(rune('a' + i)))
		}
		wg.Wait()

		habits, _ := repo.List(ctx)
		for _, h := range habits {
			assert.Len(t, h.Completions, 1, h.Name)
		}
	})
}
