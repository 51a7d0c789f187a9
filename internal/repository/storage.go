package repository

import (
	"context"

	"dayplanner/internal/models"
)

// Storage — единый контракт хранилища, который реализуют оба бэкенда
// (in-memory и postgres). Бэкенд выбирается один раз при старте процесса
// конфигом и не переключается на лету.
//
// Гарантия для всех операций: чтение после записи в рамках одного
// процесса видит эту запись. Изоляции между конкурентными писателями
// сверх того, что даёт сам бэкенд, нет.
type Storage interface {
	HealthCheck(ctx context.Context) error

	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, slug string) (*models.Category, error)
	// CreateCategory сохраняет категорию; при коллизии slug подбирает
	// свободный вариант с суффиксом ("work" -> "work-2") вместо отказа.
	CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error)
	// UpdateCategory меняет только переданные поля; nil-поле не трогается.
	UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error)
	// DeleteCategory возвращает ErrNotFound либо ErrCategoryInUse, если на
	// категорию ещё ссылается хотя бы одна задача. Частичного удаления нет.
	DeleteCategory(ctx context.Context, slug string) error

	ListTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error)
	ListTasksByFrequency(ctx context.Context, frequency models.Frequency) ([]*models.TaskWithSubtasks, error)
	GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error)
	// CreateTask создаёт задачу и по одной подзадаче на каждое непустое
	// (после trim) описание, в порядке входного списка.
	CreateTask(ctx context.Context, task *models.Task, subtaskDescriptions []string) (*models.TaskWithSubtasks, error)
	// UpdateTask накладывает опции на существующую задачу (merge, не replace).
	UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.TaskWithSubtasks, error)
	// DeleteTask каскадно удаляет подзадачи, затем саму задачу.
	DeleteTask(ctx context.Context, id int64) error

	ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	CreateSubtask(ctx context.Context, subtask *models.Subtask) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error)
	DeleteSubtask(ctx context.Context, id int64) error

	// Seed идемпотентно создаёт шесть категорий по умолчанию:
	// повторный вызов не дублирует ни одной.
	Seed(ctx context.Context) error
}
