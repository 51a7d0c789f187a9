package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"dayplanner/internal/logger"
	"dayplanner/internal/models"
	"dayplanner/internal/repository"
	"dayplanner/internal/repository/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite — интеграционные тесты бэкенда на реальном PostgreSQL
type PostgresTestSuite struct {
	suite.Suite
	container  testcontainers.Container
	storage    *postgres.Storage
	ctx        context.Context
	connString string
}

// SetupSuite запускается один раз перед всеми тестами
func (s *PostgresTestSuite) SetupSuite() {
	s.ctx = context.Background()
	logger.Init(true)

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(30 * time.Second),
	}

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(s.ctx)
	require.NoError(s.T(), err)

	port, err := container.MappedPort(s.ctx, "5432")
	require.NoError(s.T(), err)

	s.connString = fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	err = postgres.Migrate(s.connString)
	require.NoError(s.T(), err)

	s.storage, err = postgres.New(s.ctx, postgres.Config{URL: s.connString})
	require.NoError(s.T(), err)
}

// TearDownSuite очищает после всех тестов
func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		s.container.Terminate(s.ctx)
	}
}

// SetupTest очищает таблицы перед каждым тестом
func (s *PostgresTestSuite) SetupTest() {
	conn, err := pgx.Connect(s.ctx, s.connString)
	require.NoError(s.T(), err)
	defer conn.Close(s.ctx)

	_, err = conn.Exec(s.ctx, "DELETE FROM subtasks; DELETE FROM tasks; DELETE FROM categories")
	require.NoError(s.T(), err)
}

func (s *PostgresTestSuite) newTask(name, category string, frequency models.Frequency) *models.Task {
	return &models.Task{
		Name:             name,
		BriefDescription: "описание " + name,
		CategorySlug:     category,
		Frequency:        frequency,
		DueDate:          time.Now().Add(24 * time.Hour),
	}
}

func (s *PostgresTestSuite) TestHealthCheck() {
	s.Require().NoError(s.storage.HealthCheck(s.ctx))
}

// сидирование идемпотентно: дважды по пустой базе — шесть категорий
func (s *PostgresTestSuite) TestSeedIdempotent() {
	s.Require().NoError(s.storage.Seed(s.ctx))
	s.Require().NoError(s.storage.Seed(s.ctx))

	categories, err := s.storage.ListCategories(s.ctx)
	s.Require().NoError(err)
	s.Len(categories, 6)
	s.Equal("work", categories[0].Slug)
	s.Equal("reflection", categories[5].Slug)
}

func (s *PostgresTestSuite) TestCategoryRoundTrip() {
	created, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "x", Name: "X", Color: "#112233"})
	s.Require().NoError(err)
	s.Equal("x", created.Slug)

	retrieved, err := s.storage.GetCategory(s.ctx, "x")
	s.Require().NoError(err)
	s.Equal("X", retrieved.Name)
	s.Equal("#112233", retrieved.Color)
}

// занятый slug получает суффикс, а не ошибку
func (s *PostgresTestSuite) TestCategorySlugCollision() {
	_, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "work", Name: "Work", Color: "#5E81AC"})
	s.Require().NoError(err)

	second, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "work", Name: "Work Too", Color: "#000000"})
	s.Require().NoError(err)
	s.Equal("work-2", second.Slug)
}

func (s *PostgresTestSuite) TestUpdateCategoryPartial() {
	_, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "health", Name: "Health", Color: "#A3BE8C"})
	s.Require().NoError(err)

	newColor := "#FF0000"
	updated, err := s.storage.UpdateCategory(s.ctx, "health", nil, &newColor)
	s.Require().NoError(err)
	s.Equal("#FF0000", updated.Color)
	// имя не передавали — не тронуто
	s.Equal("Health", updated.Name)
}

// удаление категории: занято задачей / не найдено / успех
func (s *PostgresTestSuite) TestDeleteCategoryOutcomes() {
	_, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "work", Name: "Work", Color: "#5E81AC"})
	s.Require().NoError(err)

	_, err = s.storage.CreateTask(s.ctx, s.newTask("Отчёт", "work", models.FrequencyWeekly), nil)
	s.Require().NoError(err)

	err = s.storage.DeleteCategory(s.ctx, "work")
	s.Require().ErrorIs(err, repository.ErrCategoryInUse)

	stillThere, err := s.storage.GetCategory(s.ctx, "work")
	s.Require().NoError(err)
	s.Equal("Work", stillThere.Name)

	err = s.storage.DeleteCategory(s.ctx, "missing")
	s.Require().ErrorIs(err, repository.ErrNotFound)

	_, err = s.storage.CreateCategory(s.ctx, &models.Category{Slug: "idle", Name: "Idle", Color: "#FFFFFF"})
	s.Require().NoError(err)
	s.Require().NoError(s.storage.DeleteCategory(s.ctx, "idle"))

	// задача висит на несуществующей категории: это не занятость,
	// а отсутствие — ErrNotFound, не ErrCategoryInUse
	_, err = s.storage.CreateTask(s.ctx, s.newTask("Призрак", "ghost", models.FrequencyDaily), nil)
	s.Require().NoError(err)

	err = s.storage.DeleteCategory(s.ctx, "ghost")
	s.Require().ErrorIs(err, repository.ErrNotFound)
}

// сценарий из жизни: задача с подзадачами, пустые описания отброшены,
// категория разрешена, значения по умолчанию выставлены
func (s *PostgresTestSuite) TestCreateTaskWithSubtasks() {
	_, err := s.storage.CreateCategory(s.ctx, &models.Category{Slug: "work", Name: "Work Projects", Color: "#5E81AC"})
	s.Require().NoError(err)

	created, err := s.storage.CreateTask(s.ctx, s.newTask("Ship spec", "work", models.FrequencyWeekly),
		[]string{"Draft", "", "Review"})
	s.Require().NoError(err)

	s.NotZero(created.ID)
	s.False(created.CreatedAt.IsZero())
	s.False(created.Completed)
	s.Equal(models.PriorityMedium, created.Priority)

	s.Require().Len(created.Subtasks, 2)
	s.Equal("Draft", created.Subtasks[0].Description)
	s.Equal("Review", created.Subtasks[1].Description)

	s.Require().NotNil(created.Category)
	s.Equal("Work Projects", created.Category.Name)

	retrieved, err := s.storage.GetTask(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Require().Len(retrieved.Subtasks, 2)
	s.Equal("Draft", retrieved.Subtasks[0].Description)
}

// висячая ссылка на категорию не мешает чтению задачи
func (s *PostgresTestSuite) TestDanglingCategory() {
	created, err := s.storage.CreateTask(s.ctx, s.newTask("Сирота", "ghost", models.FrequencyDaily), nil)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetTask(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Nil(retrieved.Category)
}

func (s *PostgresTestSuite) TestUpdateTaskMerge() {
	created, err := s.storage.CreateTask(s.ctx, s.newTask("Оригинал", "work", models.FrequencyDaily), []string{"шаг"})
	s.Require().NoError(err)

	updated, err := s.storage.UpdateTask(s.ctx, created.ID, models.WithCompleted(true))
	s.Require().NoError(err)

	s.True(updated.Completed)
	s.Equal(created.Name, updated.Name)
	s.Equal(created.BriefDescription, updated.BriefDescription)
	s.Equal(created.CategorySlug, updated.CategorySlug)
	s.Equal(created.Frequency, updated.Frequency)
	s.Equal(created.Priority, updated.Priority)
	s.Require().Len(updated.Subtasks, 1)

	_, err = s.storage.UpdateTask(s.ctx, 404, models.WithCompleted(true))
	s.Require().ErrorIs(err, repository.ErrNotFound)
}

// каскад: подзадачи уходят вместе с задачей, чужие не задеты
func (s *PostgresTestSuite) TestDeleteTaskCascade() {
	created, err := s.storage.CreateTask(s.ctx, s.newTask("На удаление", "work", models.FrequencyDaily),
		[]string{"первая", "вторая"})
	s.Require().NoError(err)

	other, err := s.storage.CreateTask(s.ctx, s.newTask("Соседняя", "work", models.FrequencyDaily),
		[]string{"чужая"})
	s.Require().NoError(err)

	s.Require().NoError(s.storage.DeleteTask(s.ctx, created.ID))

	_, err = s.storage.GetTask(s.ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrNotFound)

	subtasks, err := s.storage.ListSubtasks(s.ctx, created.ID)
	s.Require().NoError(err)
	s.Empty(subtasks)

	otherSubtasks, err := s.storage.ListSubtasks(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Len(otherSubtasks, 1)

	err = s.storage.DeleteTask(s.ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrNotFound)
}

func (s *PostgresTestSuite) TestListTasksByFrequency() {
	_, err := s.storage.CreateTask(s.ctx, s.newTask("Зарядка", "health", models.FrequencyDaily), nil)
	s.Require().NoError(err)
	_, err = s.storage.CreateTask(s.ctx, s.newTask("Отчёт", "work", models.FrequencyWeekly), nil)
	s.Require().NoError(err)
	_, err = s.storage.CreateTask(s.ctx, s.newTask("Чтение", "reading", models.FrequencyDaily), nil)
	s.Require().NoError(err)

	daily, err := s.storage.ListTasksByFrequency(s.ctx, models.FrequencyDaily)
	s.Require().NoError(err)
	s.Require().Len(daily, 2)
	s.Equal("Зарядка", daily[0].Name)
	s.Equal("Чтение", daily[1].Name)

	weekly, err := s.storage.ListTasksByFrequency(s.ctx, models.FrequencyWeekly)
	s.Require().NoError(err)
	s.Require().Len(weekly, 1)
	s.Equal("Отчёт", weekly[0].Name)
}

func (s *PostgresTestSuite) TestSubtaskCRUD() {
	task, err := s.storage.CreateTask(s.ctx, s.newTask("Хозяйка", "personal", models.FrequencyDaily), nil)
	s.Require().NoError(err)

	created, err := s.storage.CreateSubtask(s.ctx, &models.Subtask{
		TaskID:      task.ID,
		Description: "полить цветы",
	})
	s.Require().NoError(err)
	s.NotZero(created.ID)
	s.False(created.Completed)

	updated, err := s.storage.UpdateSubtask(s.ctx, created.ID, true)
	s.Require().NoError(err)
	s.True(updated.Completed)

	s.Require().NoError(s.storage.DeleteSubtask(s.ctx, created.ID))

	_, err = s.storage.UpdateSubtask(s.ctx, created.ID, false)
	s.Require().ErrorIs(err, repository.ErrNotFound)

	err = s.storage.DeleteSubtask(s.ctx, created.ID)
	s.Require().ErrorIs(err, repository.ErrNotFound)
}

func TestPostgresTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционный тест пропущен в -short режиме")
	}
	suite.Run(t, new(PostgresTestSuite))
}
