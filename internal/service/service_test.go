package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"
	"dayplanner/internal/repository"
	"dayplanner/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.Init(true)
	m.Run()
}

// MockStorage - мок хранилища
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) ListCategories(ctx context.Context) ([]*models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Category), args.Error(1)
}

func (m *MockStorage) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStorage) CreateCategory(ctx context.Context, category *models.Category) (*models.Category, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStorage) UpdateCategory(ctx context.Context, slug string, name, color *string) (*models.Category, error) {
	args := m.Called(ctx, slug, name, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockStorage) DeleteCategory(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

func (m *MockStorage) ListTasks(ctx context.Context) ([]*models.TaskWithSubtasks, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TaskWithSubtasks), args.Error(1)
}

func (m *MockStorage) ListTasksByFrequency(ctx context.Context, frequency models.Frequency) ([]*models.TaskWithSubtasks, error) {
	args := m.Called(ctx, frequency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TaskWithSubtasks), args.Error(1)
}

func (m *MockStorage) GetTask(ctx context.Context, id int64) (*models.TaskWithSubtasks, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskWithSubtasks), args.Error(1)
}

func (m *MockStorage) CreateTask(ctx context.Context, task *models.Task, subtaskDescriptions []string) (*models.TaskWithSubtasks, error) {
	args := m.Called(ctx, task, subtaskDescriptions)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskWithSubtasks), args.Error(1)
}

func (m *MockStorage) UpdateTask(ctx context.Context, id int64, options ...models.TaskOption) (*models.TaskWithSubtasks, error) {
	args := m.Called(ctx, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TaskWithSubtasks), args.Error(1)
}

func (m *MockStorage) DeleteTask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Subtask), args.Error(1)
}

func (m *MockStorage) CreateSubtask(ctx context.Context, subtask *models.Subtask) (*models.Subtask, error) {
	args := m.Called(ctx, subtask)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subtask), args.Error(1)
}

func (m *MockStorage) UpdateSubtask(ctx context.Context, id int64, completed bool) (*models.Subtask, error) {
	args := m.Called(ctx, id, completed)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subtask), args.Error(1)
}

func (m *MockStorage) DeleteSubtask(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStorage) Seed(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ repository.Storage = (*MockStorage)(nil)

func businessCode(t *testing.T, err error) string {
	t.Helper()
	var businessErr *service.BusinessError
	require.ErrorAs(t, err, &businessErr)
	return businessErr.Code
}

// TestPlannerService_CreateTask тестирует валидацию и значения по умолчанию
func TestPlannerService_CreateTask(t *testing.T) {
	dueDate := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name        string
		input       service.CreateTaskInput
		setupMock   func(*MockStorage)
		expectCode  string
		expectError bool
	}{
		{
			name: "success - valid task",
			input: service.CreateTaskInput{
				Name:         "Ship spec",
				CategorySlug: "work",
				Frequency:    "weekly",
				DueDate:      dueDate,
				Subtasks:     []string{"Draft", "Review"},
			},
			setupMock: func(m *MockStorage) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.Priority == models.PriorityMedium && task.Frequency == models.FrequencyWeekly
				}), []string{"Draft", "Review"}).Return(&models.TaskWithSubtasks{
					Task: models.Task{ID: 1, Name: "Ship spec"},
				}, nil)
			},
		},
		{
			name: "error - invalid frequency",
			input: service.CreateTaskInput{
				Name:      "Broken",
				Frequency: "monthly",
				DueDate:   dueDate,
			},
			setupMock:   func(m *MockStorage) {},
			expectError: true,
			expectCode:  service.CodeValidation,
		},
		{
			name: "error - invalid priority",
			input: service.CreateTaskInput{
				Name:      "Broken",
				Frequency: "daily",
				Priority:  "urgent",
				DueDate:   dueDate,
			},
			setupMock:   func(m *MockStorage) {},
			expectError: true,
			expectCode:  service.CodeValidation,
		},
		{
			name: "success - explicit priority kept",
			input: service.CreateTaskInput{
				Name:      "Important",
				Frequency: "daily",
				Priority:  "high",
				DueDate:   dueDate,
			},
			setupMock: func(m *MockStorage) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(task *models.Task) bool {
					return task.Priority == models.PriorityHigh
				}), mock.Anything).Return(&models.TaskWithSubtasks{
					Task: models.Task{ID: 2, Name: "Important"},
				}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(MockStorage)
			tt.setupMock(storage)
			svc := service.NewPlannerService(storage)

			task, err := svc.CreateTask(context.Background(), tt.input)
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, tt.expectCode, businessCode(t, err))
			} else {
				require.NoError(t, err)
				assert.NotNil(t, task)
			}
			storage.AssertExpectations(t)
		})
	}
}

// TestPlannerService_ListTasks тестирует фильтр по периодичности
func TestPlannerService_ListTasks(t *testing.T) {
	tests := []struct {
		name        string
		frequency   string
		setupMock   func(*MockStorage)
		expectError bool
	}{
		{
			name:      "success - all tasks",
			frequency: "",
			setupMock: func(m *MockStorage) {
				m.On("ListTasks", mock.Anything).Return([]*models.TaskWithSubtasks{}, nil)
			},
		},
		{
			name:      "success - daily filter",
			frequency: "daily",
			setupMock: func(m *MockStorage) {
				m.On("ListTasksByFrequency", mock.Anything, models.FrequencyDaily).
					Return([]*models.TaskWithSubtasks{}, nil)
			},
		},
		{
			name:        "error - unknown frequency never reaches storage",
			frequency:   "hourly",
			setupMock:   func(m *MockStorage) {},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(MockStorage)
			tt.setupMock(storage)
			svc := service.NewPlannerService(storage)

			_, err := svc.ListTasks(context.Background(), tt.frequency)
			if tt.expectError {
				require.Error(t, err)
				assert.Equal(t, service.CodeValidation, businessCode(t, err))
			} else {
				require.NoError(t, err)
			}
			storage.AssertExpectations(t)
		})
	}
}

// TestPlannerService_GetTask тестирует перевод ErrNotFound в бизнес-ошибку
func TestPlannerService_GetTask(t *testing.T) {
	storage := new(MockStorage)
	storage.On("GetTask", mock.Anything, int64(42)).Return(nil, repository.ErrNotFound)
	svc := service.NewPlannerService(storage)

	_, err := svc.GetTask(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, service.CodeNotFound, businessCode(t, err))
	storage.AssertExpectations(t)
}

// TestPlannerService_DeleteCategory тестирует различимые исходы удаления
func TestPlannerService_DeleteCategory(t *testing.T) {
	tests := []struct {
		name       string
		setupMock  func(*MockStorage)
		expectCode string
	}{
		{
			name: "success",
			setupMock: func(m *MockStorage) {
				m.On("DeleteCategory", mock.Anything, "idle").Return(nil)
			},
		},
		{
			name: "error - not found",
			setupMock: func(m *MockStorage) {
				m.On("DeleteCategory", mock.Anything, "idle").Return(repository.ErrNotFound)
			},
			expectCode: service.CodeNotFound,
		},
		{
			name: "error - in use",
			setupMock: func(m *MockStorage) {
				m.On("DeleteCategory", mock.Anything, "idle").Return(repository.ErrCategoryInUse)
			},
			expectCode: service.CodeCategoryInUse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(MockStorage)
			tt.setupMock(storage)
			svc := service.NewPlannerService(storage)

			err := svc.DeleteCategory(context.Background(), "idle")
			if tt.expectCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.expectCode, businessCode(t, err))
			}
			storage.AssertExpectations(t)
		})
	}
}

// TestPlannerService_UpdateTask тестирует сборку опций из частичного ввода
func TestPlannerService_UpdateTask(t *testing.T) {
	completed := true
	badFrequency := "yearly"

	t.Run("success - only completed option built", func(t *testing.T) {
		storage := new(MockStorage)
		storage.On("UpdateTask", mock.Anything, int64(1), mock.MatchedBy(func(options []models.TaskOption) bool {
			return len(options) == 1
		})).Return(&models.TaskWithSubtasks{Task: models.Task{ID: 1, Completed: true}}, nil)
		svc := service.NewPlannerService(storage)

		task, err := svc.UpdateTask(context.Background(), 1, service.UpdateTaskInput{Completed: &completed})
		require.NoError(t, err)
		assert.True(t, task.Completed)
		storage.AssertExpectations(t)
	})

	t.Run("error - invalid frequency never reaches storage", func(t *testing.T) {
		storage := new(MockStorage)
		svc := service.NewPlannerService(storage)

		_, err := svc.UpdateTask(context.Background(), 1, service.UpdateTaskInput{Frequency: &badFrequency})
		require.Error(t, err)
		assert.Equal(t, service.CodeValidation, businessCode(t, err))
		storage.AssertExpectations(t)
	})

	t.Run("error - explicit zero due date rejected", func(t *testing.T) {
		storage := new(MockStorage)
		svc := service.NewPlannerService(storage)

		var zero time.Time
		_, err := svc.UpdateTask(context.Background(), 1, service.UpdateTaskInput{DueDate: &zero})
		require.Error(t, err)
		assert.Equal(t, service.CodeValidation, businessCode(t, err))
		storage.AssertExpectations(t)
	})

	t.Run("success - due date option passed through", func(t *testing.T) {
		newDue := time.Now().Add(48 * time.Hour)
		storage := new(MockStorage)
		storage.On("UpdateTask", mock.Anything, int64(1), mock.MatchedBy(func(options []models.TaskOption) bool {
			if len(options) != 1 || options[0] == nil {
				return false
			}
			var applied models.Task
			options[0](&applied)
			return applied.DueDate.Equal(newDue)
		})).Return(&models.TaskWithSubtasks{Task: models.Task{ID: 1, DueDate: newDue}}, nil)
		svc := service.NewPlannerService(storage)

		task, err := svc.UpdateTask(context.Background(), 1, service.UpdateTaskInput{DueDate: &newDue})
		require.NoError(t, err)
		assert.True(t, task.DueDate.Equal(newDue))
		storage.AssertExpectations(t)
	})
}

// TestPlannerService_CreateSubtask тестирует trim описания и проверку владельца
func TestPlannerService_CreateSubtask(t *testing.T) {
	t.Run("success - description trimmed", func(t *testing.T) {
		storage := new(MockStorage)
		storage.On("GetTask", mock.Anything, int64(7)).Return(&models.TaskWithSubtasks{
			Task: models.Task{ID: 7},
		}, nil)
		storage.On("CreateSubtask", mock.Anything, &models.Subtask{
			TaskID:      7,
			Description: "полить цветы",
		}).Return(&models.Subtask{ID: 1, TaskID: 7, Description: "полить цветы"}, nil)
		svc := service.NewPlannerService(storage)

		subtask, err := svc.CreateSubtask(context.Background(), 7, "  полить цветы  ")
		require.NoError(t, err)
		assert.Equal(t, "полить цветы", subtask.Description)
		storage.AssertExpectations(t)
	})

	t.Run("error - blank description", func(t *testing.T) {
		storage := new(MockStorage)
		svc := service.NewPlannerService(storage)

		_, err := svc.CreateSubtask(context.Background(), 7, "   ")
		require.Error(t, err)
		assert.Equal(t, service.CodeValidation, businessCode(t, err))
	})

	t.Run("error - owner task missing", func(t *testing.T) {
		storage := new(MockStorage)
		storage.On("GetTask", mock.Anything, int64(404)).Return(nil, repository.ErrNotFound)
		svc := service.NewPlannerService(storage)

		_, err := svc.CreateSubtask(context.Background(), 404, "без хозяина")
		require.Error(t, err)
		assert.Equal(t, service.CodeNotFound, businessCode(t, err))
		storage.AssertExpectations(t)
	})
}

// TestPlannerService_HealthCheck тестирует проброс ошибок соединения
func TestPlannerService_HealthCheck(t *testing.T) {
	storage := new(MockStorage)
	storage.On("HealthCheck", mock.Anything).Return(errors.New("db connection failed"))
	svc := service.NewPlannerService(storage)

	err := svc.HealthCheck(context.Background())
	assert.Error(t, err)
	storage.AssertExpectations(t)
}
