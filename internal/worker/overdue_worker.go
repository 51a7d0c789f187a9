package worker

import (
	"context"
	"fmt"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"

	"go.uber.org/zap"
)

type TaskLister interface {
	ListTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error)
}

// OverdueWorker периодически пишет в лог сводку по просроченным
// незавершённым задачам. Только чтение: хранилище он не меняет.
type OverdueWorker struct {
	store    TaskLister
	interval time.Duration
}

func NewOverdueWorker(store TaskLister, interval *time.Duration) *OverdueWorker {
	var intervalToSet time.Duration
	if interval == nil {
		intervalToSet = 5 * time.Minute
	} else {
		intervalToSet = *interval
	}
	return &OverdueWorker{
		store:    store,
		interval: intervalToSet,
	}
}

func (w *OverdueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Проверка задач на просроченность", zap.Time("started_at", time.Now()))
			w.Check(ctx)
		case <-ctx.Done():
			logger.Info("Worker: Фоновая проверка останавливается")
			return
		}
	}
}

func (w *OverdueWorker) Check(ctx context.Context) {
	start := time.Now()

	tasks, err := w.openTasks(ctx)
	if err != nil {
		logger.Warn("Worker: ошибка получения задач", zap.Error(err))
		return
	}

	overdueCount := 0
	now := time.Now()

	for _, t := range tasks {
		if t.DueDate.Before(now) {
			overdueCount++
		}
	}

	logger.Info(
		"Worker: Завершение проверки задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("open", len(tasks)),
		zap.Int("overdue", overdueCount),
	)
}

func (w *OverdueWorker) openTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error) {
	tasks, err := w.store.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	open := []*models.TaskWithSubtasks{}
	for _, t := range tasks {
		if t.Completed {
			continue
		}
		open = append(open, t)
	}
	return open, nil
}
