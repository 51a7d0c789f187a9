package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"
	"dayplanner/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config — параметры подключения; значения приходят из config.yml.
type Config struct {
	URL         string
	MaxConns    int32
	MinConns    int32
	IdleTimeout time.Duration
}

// Storage — долговечный бэкенд контракта repository.Storage поверх pgxpool.
// Внешних ключей в схеме нет: каскад и защиту "категория используется"
// выполняет код, причём каждая многошаговая мутация идёт в одной транзакции,
// чтобы сбой посередине не оставлял частичное состояние.
type Storage struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg Config) (*Storage, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		logger.Error("Repository: Ошибка разбора строки подключения", err)
		return nil, fmt.Errorf("разбор строки подключения: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.IdleTimeout > 0 {
		poolConfig.MaxConnIdleTime = cfg.IdleTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное подключение к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

// ---- категории ----

func (s *Storage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	start := time.Now()

	query := `SELECT slug, name, color
				FROM categories
				ORDER BY position`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		logger.Error("Repository: Не удалось получить категории", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение категорий: %w", err)
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		category := &models.Category{}
		if err := rows.Scan(&category.Slug, &category.Name, &category.Color); err != nil {
			return nil, fmt.Errorf("сканирование категории: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	s.warnIfSlow(start, "list_categories")
	return categories, nil
}

func (s *Storage) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	query := `SELECT slug, name, color
				FROM categories
				WHERE slug = $1`

	category := &models.Category{}
	err := s.pool.QueryRow(ctx, query, slug).Scan(&category.Slug, &category.Name, &category.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить категорию", err)
		return nil, fmt.Errorf("получение категории: %w", err)
	}
	return category, nil
}

func (s *Storage) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// занятый slug — не отказ, а подбор свободного варианта с суффиксом
	slug := category.Slug
	for i := 2; ; i++ {
		var taken bool
		err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)`, slug).Scan(&taken)
		if err != nil {
			return nil, fmt.Errorf("проверка slug: %w", err)
		}
		if !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", category.Slug, i)
	}

	query := `INSERT INTO categories (slug, name, color)
				VALUES ($1, $2, $3)`

	if _, err := tx.Exec(ctx, query, slug, category.Name, category.Color); err != nil {
		logger.Error("Repository: Не удалось создать категорию", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("создание категории: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow(start, "create_category")
	return &models.Category{Slug: slug, Name: category.Name, Color: category.Color}, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error) {
	query := `UPDATE categories
				SET name  = COALESCE($2, name),
					color = COALESCE($3, color)
				WHERE slug = $1
				RETURNING slug, name, color`

	category := &models.Category{}
	err := s.pool.QueryRow(ctx, query, slug, name, color).Scan(&category.Slug, &category.Name, &category.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить категорию", err)
		return nil, fmt.Errorf("обновление категории: %w", err)
	}
	return category, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, slug string) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Сначала существование, потом занятость: висячая ссылка из задачи
	// на несуществующую категорию не должна превращать 404 в 409.
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка категории: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}

	var inUse bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE category_slug = $1)`, slug).Scan(&inUse)
	if err != nil {
		return fmt.Errorf("проверка использования категории: %w", err)
	}
	if inUse {
		logger.Warn("Repository: Категория ещё используется, удаление отклонено",
			zap.String("slug", slug))
		return repository.ErrCategoryInUse
	}

	res, err := tx.Exec(ctx, `DELETE FROM categories WHERE slug = $1`, slug)
	if err != nil {
		logger.Error("Repository: Не удалось удалить категорию", err)
		return fmt.Errorf("удаление категории: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow(start, "delete_category")
	return nil
}

// ---- задачи ----

const taskColumns = `id, name, brief_description, detailed_description,
			category_slug, frequency, due_date, priority, completed, created_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.Name,
		&task.BriefDescription,
		&task.DetailedDescription,
		&task.CategorySlug,
		&task.Frequency,
		&task.DueDate,
		&task.Priority,
		&task.Completed,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Storage) ListTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks ORDER BY id`)
}

func (s *Storage) ListTasksByFrequency(ctx context.Context, frequency models.Frequency) ([]*models.TaskWithSubtasks, error) {
	return s.listTasks(ctx, `SELECT `+taskColumns+` FROM tasks WHERE frequency = $1 ORDER BY id`, frequency)
}

func (s *Storage) listTasks(ctx context.Context, query string, args ...any) ([]*models.TaskWithSubtasks, error) {
	start := time.Now()

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	res, err := s.attach(ctx, tasks)
	if err != nil {
		return nil, err
	}

	s.warnIfSlow(start, "list_tasks")
	return res, nil
}

// attach обогащает список задач одной пачкой: один запрос по всем
// подзадачам и один по категориям вместо O(n) точечных запросов.
func (s *Storage) attach(ctx context.Context, tasks []*models.Task) ([]*models.TaskWithSubtasks, error) {
	res := make([]*models.TaskWithSubtasks, 0, len(tasks))
	if len(tasks) == 0 {
		return res, nil
	}

	ids := make([]int64, 0, len(tasks))
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, description, completed
			FROM subtasks
			WHERE task_id = ANY($1)
			ORDER BY id`, ids)
	if err != nil {
		logger.Error("Repository: Не удалось получить подзадачи", err)
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	defer rows.Close()

	subtasksByTask := make(map[int64][]*models.Subtask)
	for rows.Next() {
		subtask := &models.Subtask{}
		if err := rows.Scan(&subtask.ID, &subtask.TaskID, &subtask.Description, &subtask.Completed); err != nil {
			return nil, fmt.Errorf("сканирование подзадачи: %w", err)
		}
		subtasksByTask[subtask.TaskID] = append(subtasksByTask[subtask.TaskID], subtask)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	categoryBySlug := make(map[string]*models.Category, len(categories))
	for _, category := range categories {
		categoryBySlug[category.Slug] = category
	}

	for _, task := range tasks {
		subtasks := subtasksByTask[task.ID]
		if subtasks == nil {
			subtasks = []*models.Subtask{}
		}
		res = append(res, &models.TaskWithSubtasks{
			Task:     *task,
			Subtasks: subtasks,
			Category: categoryBySlug[task.CategorySlug],
		})
	}
	return res, nil
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error) {
	start := time.Now()

	task, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	subtasks, err := s.ListSubtasks(ctx, id)
	if err != nil {
		return nil, err
	}

	res := &models.TaskWithSubtasks{Task: *task, Subtasks: subtasks}

	category, err := s.GetCategory(ctx, task.CategorySlug)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	// висячая ссылка на категорию допустима: задача отдаётся без неё
	res.Category = category

	s.warnIfSlow(start, "get_task")
	return res, nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task, subtaskDescriptions []string) (*models.TaskWithSubtasks, error) {
	start := time.Now()

	stored := *task
	stored.Completed = false
	if stored.Priority == "" {
		stored.Priority = models.DefaultPriority
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO tasks
				(name, brief_description, detailed_description, category_slug,
				frequency, due_date, priority, completed, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
				RETURNING id, created_at`

	err = tx.QueryRow(ctx, query,
		stored.Name,
		stored.BriefDescription,
		stored.DetailedDescription,
		stored.CategorySlug,
		stored.Frequency,
		stored.DueDate,
		stored.Priority,
		stored.Completed,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		logger.Error("Repository: Не удалось создать задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	subtasks := []*models.Subtask{}
	for _, description := range subtaskDescriptions {
		description = strings.TrimSpace(description)
		if description == "" {
			continue
		}
		subtask := &models.Subtask{TaskID: stored.ID, Description: description}
		err := tx.QueryRow(ctx,
			`INSERT INTO subtasks (task_id, description) VALUES ($1, $2) RETURNING id`,
			subtask.TaskID, subtask.Description,
		).Scan(&subtask.ID)
		if err != nil {
			logger.Error("Repository: Не удалось создать подзадачу", err)
			return nil, fmt.Errorf("создание подзадачи: %w", err)
		}
		subtasks = append(subtasks, subtask)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	res := &models.TaskWithSubtasks{Task: stored, Subtasks: subtasks}

	category, err := s.GetCategory(ctx, stored.CategorySlug)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	res.Category = category

	s.warnIfSlow(start, "create_task")
	return res, nil
}

func (s *Storage) UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.TaskWithSubtasks, error) {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// читаем-меняем-пишем под блокировкой строки, merge вместо replace
	task, err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	for _, opt := range options {
		opt(task)
	}

	query := `UPDATE tasks
				SET name = $2,
					brief_description = $3,
					detailed_description = $4,
					category_slug = $5,
					frequency = $6,
					due_date = $7,
					priority = $8,
					completed = $9
				WHERE id = $1`

	_, err = tx.Exec(ctx, query,
		task.ID,
		task.Name,
		task.BriefDescription,
		task.DetailedDescription,
		task.CategorySlug,
		task.Frequency,
		task.DueDate,
		task.Priority,
		task.Completed,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err)
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow(start, "update_task")
	return s.GetTask(ctx, id)
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	start := time.Now()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// каскад вручную: сначала зависимые подзадачи, затем владелец,
	// и обязательно в одной транзакции
	if _, err := tx.Exec(ctx, `DELETE FROM subtasks WHERE task_id = $1`, id); err != nil {
		logger.Error("Repository: Не удалось удалить подзадачи", err)
		return fmt.Errorf("удаление подзадач: %w", err)
	}

	res, err := tx.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить задачу", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	s.warnIfSlow(start, "delete_task")
	return nil
}

// ---- подзадачи ----

func (s *Storage) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, task_id, description, completed
			FROM subtasks
			WHERE task_id = $1
			ORDER BY id`, taskID)
	if err != nil {
		logger.Error("Repository: Не удалось получить подзадачи", err)
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	defer rows.Close()

	subtasks := []*models.Subtask{}
	for rows.Next() {
		subtask := &models.Subtask{}
		if err := rows.Scan(&subtask.ID, &subtask.TaskID, &subtask.Description, &subtask.Completed); err != nil {
			return nil, fmt.Errorf("сканирование подзадачи: %w", err)
		}
		subtasks = append(subtasks, subtask)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	return subtasks, nil
}

func (s *Storage) CreateSubtask(ctx context.Context, subtask *models.Subtask) (*models.Subtask, error) {
	stored := &models.Subtask{TaskID: subtask.TaskID, Description: subtask.Description}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO subtasks (task_id, description) VALUES ($1, $2) RETURNING id`,
		stored.TaskID, stored.Description,
	).Scan(&stored.ID)
	if err != nil {
		logger.Error("Repository: Не удалось создать подзадачу", err)
		return nil, fmt.Errorf("создание подзадачи: %w", err)
	}
	return stored, nil
}

func (s *Storage) UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error) {
	query := `UPDATE subtasks
				SET completed = $2
				WHERE id = $1
				RETURNING id, task_id, description, completed`

	subtask := &models.Subtask{}
	err := s.pool.QueryRow(ctx, query, id, completed).Scan(
		&subtask.ID, &subtask.TaskID, &subtask.Description, &subtask.Completed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить подзадачу", err)
		return nil, fmt.Errorf("обновление подзадачи: %w", err)
	}
	return subtask, nil
}

func (s *Storage) DeleteSubtask(ctx context.Context, id int64) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM subtasks WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось удалить подзадачу", err)
		return fmt.Errorf("удаление подзадачи: %w", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ---- сидирование ----

func (s *Storage) Seed(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("начало транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("проверка категорий: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, category := range repository.DefaultCategories() {
		_, err := tx.Exec(ctx,
			`INSERT INTO categories (slug, name, color) VALUES ($1, $2, $3)
				ON CONFLICT (slug) DO NOTHING`,
			category.Slug, category.Name, category.Color)
		if err != nil {
			logger.Error("Repository: Не удалось создать категорию по умолчанию", err)
			return fmt.Errorf("сидирование категорий: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("фиксация транзакции: %w", err)
	}

	logger.Info("Repository: Категории по умолчанию созданы")
	return nil
}

func (s *Storage) warnIfSlow(start time.Time, operation string) {
	if time.Since(start) > time.Millisecond*100 {
		logger.Warn("Repository: Медленная операция",
			zap.String("operation", operation),
			zap.Duration("ms", time.Since(start)))
	}
}
