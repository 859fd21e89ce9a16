package workers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/metime/internal/core/domain"
	"github.com/comitanigiacomo/metime/internal/core/streak"
)

const DefaultQueueSize = 100

type HabitRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Habit, error)
}

// StreakRecorder publishes the latest streak figures of a habit.
type StreakRecorder interface {
	RecordStreak(name string, periodicity domain.Periodicity, result domain.StreakResult)
	ForgetStreak(name string)
	RecordComputation(source string, failed bool)
}

type StreakJob struct {
	Name   string
	Forget bool
}

type StreakWorker struct {
	habitRepo HabitRepository
	recorder  StreakRecorder
	logger    *zap.Logger
	now       func() time.Time
	jobs      chan StreakJob
}

func NewStreakWorker(repo HabitRepository, recorder StreakRecorder, logger *zap.Logger, now func() time.Time, queueSize int) *StreakWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &StreakWorker{
		habitRepo: repo,
		recorder:  recorder,
		logger:    logger,
		now:       now,
		jobs:      make(chan StreakJob, queueSize),
	}
}

func (w *StreakWorker) Start(ctx context.Context) {
	go func() {
		w.logger.Info("streak worker started", zap.Int("queue_size", cap(w.jobs)))
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				w.logger.Info("streak worker shutting down", zap.Int("pending", len(w.jobs)))
				return
			}
		}
	}()
}

func (w *StreakWorker) Enqueue(name string) {
	w.push(StreakJob{Name: name})
}

// Forget drops the published figures of a deleted or renamed habit.
func (w *StreakWorker) Forget(name string) {
	w.push(StreakJob{Name: name, Forget: true})
}

func (w *StreakWorker) push(job StreakJob) {
	select {
	case w.jobs <- job:
	default:
		w.logger.Warn("streak worker queue full, dropping job",
			zap.String("habit", job.Name),
			zap.Bool("forget", job.Forget),
		)
	}
}

func (w *StreakWorker) processJob(ctx context.Context, job StreakJob) {
	if job.Forget {
		w.recorder.ForgetStreak(job.Name)
		w.logger.Debug("streak figures removed", zap.String("habit", job.Name))
		return
	}

	habit, err := w.habitRepo.GetByName(ctx, job.Name)
	if errors.Is(err, domain.ErrHabitNotFound) {
		w.recorder.ForgetStreak(job.Name)
		return
	}
	if err != nil {
		w.logger.Error("failed to load habit", zap.String("habit", job.Name), zap.Error(err))
		return
	}

	result, err := streak.Compute(*habit, w.now())
	w.recorder.RecordComputation("worker", err != nil)
	if err != nil {
		w.logger.Warn("streak computation failed", zap.String("habit", job.Name), zap.Error(err))
		return
	}

	w.recorder.RecordStreak(habit.Name, habit.Periodicity, result)
	w.logger.Debug("streak updated",
		zap.String("habit", habit.Name),
		zap.Int("current", result.CurrentStreak),
		zap.Int("longest", result.LongestStreak),
		zap.Int("broken", len(result.BrokenPeriods)),
	)
}
