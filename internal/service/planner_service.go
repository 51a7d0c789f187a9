package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"
	"dayplanner/internal/repository"

	"go.uber.org/zap"
)

// PlannerService переводит бизнес-нормальные исходы хранилища
// (не найдено, категория занята) в BusinessError и отсекает
// некорректные значения frequency/priority до обращения к хранилищу.

type PlannerService struct {
	store repository.Storage
}

func NewPlannerService(store repository.Storage) PlannerService {
	return PlannerService{
		store: store,
	}
}

func (s *PlannerService) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

// ---- категории ----

func (s *PlannerService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	return categories, nil
}

func (s *PlannerService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.store.GetCategory(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Категория не найдена", zap.String("slug", slug))
			return nil, NewNotFound(ResourceCategory, slug)
		}
		return nil, fmt.Errorf("получение категории: %w", err)
	}
	return category, nil
}

func (s *PlannerService) CreateCategory(ctx context.Context, slug, name, color string) (*models.Category, error) {
	category, err := s.store.CreateCategory(ctx, &models.Category{
		Slug:  slug,
		Name:  name,
		Color: color,
	})
	if err != nil {
		return nil, fmt.Errorf("создание категории: %w", err)
	}
	return category, nil
}

func (s *PlannerService) UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error) {
	category, err := s.store.UpdateCategory(ctx, slug, name, color)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Категория не найдена", zap.String("slug", slug))
			return nil, NewNotFound(ResourceCategory, slug)
		}
		return nil, fmt.Errorf("обновление категории: %w", err)
	}
	return category, nil
}

func (s *PlannerService) DeleteCategory(ctx context.Context, slug string) error {
	err := s.store.DeleteCategory(ctx, slug)
	if err != nil {
		// два разных исхода, различимых для клиента: 404 и 409
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound(ResourceCategory, slug)
		}
		if errors.Is(err, repository.ErrCategoryInUse) {
			return NewCategoryInUse(slug)
		}
		return fmt.Errorf("удаление категории: %w", err)
	}
	return nil
}

// ---- задачи ----

type CreateTaskInput struct {
	Name                string
	BriefDescription    string
	DetailedDescription *string
	CategorySlug        string
	Frequency           string
	DueDate             time.Time
	Priority            string
	Subtasks            []string
}

type UpdateTaskInput struct {
	Name                *string
	BriefDescription    *string
	DetailedDescription *string
	CategorySlug        *string
	Frequency           *string
	DueDate             *time.Time
	Priority            *string
	Completed           *bool
}

// ListTasks отдаёт все задачи либо отфильтрованные по периодичности,
// если frequency непустая. Любая строка кроме daily/weekly — ошибка
// валидации, до хранилища она не доходит.
func (s *PlannerService) ListTasks(ctx context.Context, frequency string) ([]*models.TaskWithSubtasks, error) {
	if frequency == "" {
		tasks, err := s.store.ListTasks(ctx)
		if err != nil {
			return nil, fmt.Errorf("получение задач: %w", err)
		}
		return tasks, nil
	}

	freq := models.Frequency(frequency)
	if !freq.Valid() {
		return nil, NewValidationError("frequency", "допустимы только daily и weekly")
	}

	tasks, err := s.store.ListTasksByFrequency(ctx, freq)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *PlannerService) GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", id))
			return nil, NewNotFound(ResourceTask, strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return task, nil
}

func (s *PlannerService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.TaskWithSubtasks, error) {
	freq := models.Frequency(in.Frequency)
	if !freq.Valid() {
		return nil, NewValidationError("frequency", "допустимы только daily и weekly")
	}

	priority := models.Priority(in.Priority)
	if in.Priority == "" {
		priority = models.DefaultPriority
	} else if !priority.Valid() {
		return nil, NewValidationError("priority", "допустимы только low, medium и high")
	}

	task := &models.Task{
		Name:                in.Name,
		BriefDescription:    in.BriefDescription,
		DetailedDescription: in.DetailedDescription,
		CategorySlug:        in.CategorySlug,
		Frequency:           freq,
		DueDate:             in.DueDate,
		Priority:            priority,
	}

	created, err := s.store.CreateTask(ctx, task, in.Subtasks)
	if err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}
	return created, nil
}

func (s *PlannerService) UpdateTask(ctx context.Context, id int64, in UpdateTaskInput) (*models.TaskWithSubtasks, error) {
	options := []models.TaskOption{}

	if in.Name != nil {
		options = append(options, models.WithName(*in.Name))
	}
	if in.BriefDescription != nil {
		options = append(options, models.WithBriefDescription(*in.BriefDescription))
	}
	if in.DetailedDescription != nil {
		options = append(options, models.WithDetailedDescription(*in.DetailedDescription))
	}
	if in.CategorySlug != nil {
		options = append(options, models.WithCategorySlug(*in.CategorySlug))
	}
	if in.Frequency != nil {
		freq := models.Frequency(*in.Frequency)
		if !freq.Valid() {
			return nil, NewValidationError("frequency", "допустимы только daily и weekly")
		}
		options = append(options, models.WithFrequency(freq))
	}
	if in.DueDate != nil {
		if in.DueDate.IsZero() {
			return nil, NewValidationError("due_date", "срок выполнения должен быть задан")
		}
		options = append(options, models.WithDueDate(*in.DueDate))
	}
	if in.Priority != nil {
		priority := models.Priority(*in.Priority)
		if !priority.Valid() {
			return nil, NewValidationError("priority", "допустимы только low, medium и high")
		}
		options = append(options, models.WithPriority(priority))
	}
	if in.Completed != nil {
		options = append(options, models.WithCompleted(*in.Completed))
	}

	task, err := s.store.UpdateTask(ctx, id, options...)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.Int64("task_id", id))
			return nil, NewNotFound(ResourceTask, strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	return task, nil
}

func (s *PlannerService) DeleteTask(ctx context.Context, id int64) error {
	err := s.store.DeleteTask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound(ResourceTask, strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}

// ---- подзадачи ----

func (s *PlannerService) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	subtasks, err := s.store.ListSubtasks(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	return subtasks, nil
}

func (s *PlannerService) CreateSubtask(ctx context.Context, taskID int64, description string) (*models.Subtask, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, NewValidationError("description", "описание не может быть пустым")
	}

	// подзадача строго принадлежит задаче: без владельца не создаём
	if _, err := s.store.GetTask(ctx, taskID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound(ResourceTask, strconv.FormatInt(taskID, 10))
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	subtask, err := s.store.CreateSubtask(ctx, &models.Subtask{
		TaskID:      taskID,
		Description: description,
	})
	if err != nil {
		return nil, fmt.Errorf("создание подзадачи: %w", err)
	}
	return subtask, nil
}

func (s *PlannerService) UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error) {
	subtask, err := s.store.UpdateSubtask(ctx, id, completed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFound(ResourceSubtask, strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("обновление подзадачи: %w", err)
	}
	return subtask, nil
}

func (s *PlannerService) DeleteSubtask(ctx context.Context, id int64) error {
	err := s.store.DeleteSubtask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFound(ResourceSubtask, strconv.FormatInt(id, 10))
		}
		return fmt.Errorf("удаление подзадачи: %w", err)
	}
	return nil
}
