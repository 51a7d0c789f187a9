package handlers

import (
	"context"

	"dayplanner/internal/models"
	"dayplanner/internal/service"
)

type Service interface {
	HealthCheck(ctx context.Context) error

	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	CreateCategory(ctx context.Context, slug, name, color string) (*models.Category, error)
	UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, slug string) error

	ListTasks(ctx context.Context, frequency string) ([]*models.TaskWithSubtasks, error)
	GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error)
	CreateTask(ctx context.Context, in service.CreateTaskInput) (*models.TaskWithSubtasks, error)
	UpdateTask(ctx context.Context, id int64, in service.UpdateTaskInput) (*models.TaskWithSubtasks, error)
	DeleteTask(ctx context.Context, id int64) error

	ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	CreateSubtask(ctx context.Context, taskID int64, description string) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error)
	DeleteSubtask(ctx context.Context, id int64) error
}
