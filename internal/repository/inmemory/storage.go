package inmemory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"
	"dayplanner/internal/repository"
)

// Storage — энергозависимый бэкенд на map-ах: всё состояние живёт до
// перезапуска процесса. Используется по умолчанию, когда в конфиге не
// задана база. Обогащение задач считается сканом на каждое чтение —
// без вторичных индексов, объём данных одного пользователя это позволяет.
type Storage struct {
	mtx *sync.RWMutex

	categories map[string]*models.Category
	catSlugs   []string // порядок вставки категорий

	tasks   map[int64]*models.Task
	taskIDs []int64

	subtasks   map[int64]*models.Subtask
	subtaskIDs []int64

	// счётчики монотонные, id не переиспользуются даже после удаления
	taskSeq    int64
	subtaskSeq int64
}

func New() *Storage {
	return &Storage{
		mtx:        &sync.RWMutex{},
		categories: make(map[string]*models.Category),
		catSlugs:   []string{},
		tasks:      make(map[int64]*models.Task),
		taskIDs:    []int64{},
		subtasks:   make(map[int64]*models.Subtask),
		subtaskIDs: []int64{},
	}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Хранилище in-memory доступно")
	return nil
}

// ---- категории ----

func (s *Storage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*models.Category, 0, len(s.catSlugs))
	for _, slug := range s.catSlugs {
		category := *s.categories[slug]
		res = append(res, &category)
	}
	return res, nil
}

func (s *Storage) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	category, ok := s.categories[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *category
	return &copied, nil
}

func (s *Storage) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	slug := category.Slug
	// коллизия slug не ошибка: подбираем свободный вариант с суффиксом
	for i := 2; ; i++ {
		if _, taken := s.categories[slug]; !taken {
			break
		}
		slug = fmt.Sprintf("%s-%d", category.Slug, i)
	}

	stored := &models.Category{
		Slug:  slug,
		Name:  category.Name,
		Color: category.Color,
	}
	s.categories[slug] = stored
	s.catSlugs = append(s.catSlugs, slug)

	copied := *stored
	return &copied, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	category, ok := s.categories[slug]
	if !ok {
		return nil, repository.ErrNotFound
	}

	if name != nil {
		category.Name = *name
	}
	if color != nil {
		category.Color = *color
	}

	copied := *category
	return &copied, nil
}

func (s *Storage) DeleteCategory(ctx context.Context, slug string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.categories[slug]; !ok {
		return repository.ErrNotFound
	}

	for _, id := range s.taskIDs {
		if s.tasks[id].CategorySlug == slug {
			logger.Warn("Repository: Категория ещё используется, удаление отклонено")
			return repository.ErrCategoryInUse
		}
	}

	delete(s.categories, slug)
	for ind, val := range s.catSlugs {
		if val == slug {
			s.catSlugs = append(s.catSlugs[:ind], s.catSlugs[ind+1:]...)
			break
		}
	}
	return nil
}

// ---- задачи ----

func (s *Storage) ListTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*models.TaskWithSubtasks, 0, len(s.taskIDs))
	for _, id := range s.taskIDs {
		res = append(res, s.enrich(s.tasks[id]))
	}
	return res, nil
}

func (s *Storage) ListTasksByFrequency(ctx context.Context, frequency models.Frequency) ([]*models.TaskWithSubtasks, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*models.TaskWithSubtasks{}
	for _, id := range s.taskIDs {
		task := s.tasks[id]
		if task.Frequency != frequency {
			continue
		}
		res = append(res, s.enrich(task))
	}
	return res, nil
}

func (s *Storage) GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.enrich(task), nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task, subtaskDescriptions []string) (*models.TaskWithSubtasks, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.taskSeq++
	stored := *task
	stored.ID = s.taskSeq
	stored.CreatedAt = time.Now()
	stored.Completed = false
	if stored.Priority == "" {
		stored.Priority = models.DefaultPriority
	}

	s.tasks[stored.ID] = &stored
	s.taskIDs = append(s.taskIDs, stored.ID)

	// пустые после trim описания молча пропускаются, порядок входа сохраняется
	for _, description := range subtaskDescriptions {
		description = strings.TrimSpace(description)
		if description == "" {
			continue
		}
		s.subtaskSeq++
		subtask := &models.Subtask{
			ID:          s.subtaskSeq,
			TaskID:      stored.ID,
			Description: description,
		}
		s.subtasks[subtask.ID] = subtask
		s.subtaskIDs = append(s.subtaskIDs, subtask.ID)
	}

	return s.enrich(&stored), nil
}

func (s *Storage) UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.TaskWithSubtasks, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}

	for _, opt := range options {
		opt(task)
	}
	return s.enrich(task), nil
}

func (s *Storage) DeleteTask(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return repository.ErrNotFound
	}

	// сначала зависимые подзадачи, потом владелец
	kept := s.subtaskIDs[:0]
	for _, subID := range s.subtaskIDs {
		if s.subtasks[subID].TaskID == id {
			delete(s.subtasks, subID)
			continue
		}
		kept = append(kept, subID)
	}
	s.subtaskIDs = kept

	delete(s.tasks, id)
	for ind, val := range s.taskIDs {
		if val == id {
			s.taskIDs = append(s.taskIDs[:ind], s.taskIDs[ind+1:]...)
			break
		}
	}
	return nil
}

// ---- подзадачи ----

func (s *Storage) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	return s.subtasksOf(taskID), nil
}

func (s *Storage) CreateSubtask(ctx context.Context, subtask *models.Subtask) (*models.Subtask, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.subtaskSeq++
	stored := &models.Subtask{
		ID:          s.subtaskSeq,
		TaskID:      subtask.TaskID,
		Description: subtask.Description,
	}
	s.subtasks[stored.ID] = stored
	s.subtaskIDs = append(s.subtaskIDs, stored.ID)

	copied := *stored
	return &copied, nil
}

func (s *Storage) UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	subtask, ok := s.subtasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	subtask.Completed = completed

	copied := *subtask
	return &copied, nil
}

func (s *Storage) DeleteSubtask(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.subtasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.subtasks, id)
	for ind, val := range s.subtaskIDs {
		if val == id {
			s.subtaskIDs = append(s.subtaskIDs[:ind], s.subtaskIDs[ind+1:]...)
			break
		}
	}
	return nil
}

// ---- сидирование ----

func (s *Storage) Seed(ctx context.Context) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	// уже есть хотя бы одна категория — сидирование не требуется
	if len(s.categories) > 0 {
		return nil
	}

	for _, category := range repository.DefaultCategories() {
		copied := *category
		s.categories[copied.Slug] = &copied
		s.catSlugs = append(s.catSlugs, copied.Slug)
	}

	logger.Info("Repository: Категории по умолчанию созданы")
	return nil
}

// enrich собирает модель чтения: копия задачи + её подзадачи в порядке
// вставки + категория (nil, если ссылка никуда не указывает — висячие
// ссылки здесь допустимы). Вызывается только под блокировкой.
func (s *Storage) enrich(task *models.Task) *models.TaskWithSubtasks {
	res := &models.TaskWithSubtasks{
		Task:     *task,
		Subtasks: s.subtasksOf(task.ID),
	}

	if category, ok := s.categories[task.CategorySlug]; ok {
		copied := *category
		res.Category = &copied
	}
	return res
}

func (s *Storage) subtasksOf(taskID int64) []*models.Subtask {
	res := []*models.Subtask{}
	for _, id := range s.subtaskIDs {
		subtask := s.subtasks[id]
		if subtask.TaskID != taskID {
			continue
		}
		copied := *subtask
		res = append(res, &copied)
	}
	return res
}
