package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"dayplanner/internal/config"
	"dayplanner/internal/handlers"
	"dayplanner/internal/logger"
	"dayplanner/internal/middleware"
	"dayplanner/internal/repository"
	"dayplanner/internal/repository/inmemory"
	"dayplanner/internal/repository/postgres"
	"dayplanner/internal/service"
	"dayplanner/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	storage   repository.Storage
	service   handlers.Service
	worker    *worker.OverdueWorker
	shutdowns []func() // функции для graceful shutdown, в порядке регистрации
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if err := a.initStorage(ctx); err != nil {
		return err
	}

	plannerService := service.NewPlannerService(a.storage)
	a.service = &plannerService

	interval := a.config.Worker.Interval
	if interval > 0 {
		a.worker = worker.NewOverdueWorker(a.storage, &interval)
	} else {
		a.worker = worker.NewOverdueWorker(a.storage, nil)
	}

	a.initRouter()

	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	return nil
}

// initStorage выбирает бэкенд по конфигу; выбор делается один раз
// на старте, переключения на лету нет. Оба бэкенда сидируются
// категориями по умолчанию.
func (a *App) initStorage(ctx context.Context) error {
	switch a.config.Repository.Type {
	case config.RepositoryPostgres:
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return fmt.Errorf("миграции: %w", err)
		}

		storage, err := postgres.New(ctx, postgres.Config{
			URL:         a.config.Database.URL,
			MaxConns:    int32(a.config.Database.MaxConnections),
			MinConns:    int32(a.config.Database.MinConnections),
			IdleTimeout: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return fmt.Errorf("подключение к postgres: %w", err)
		}

		a.shutdowns = append(a.shutdowns, storage.Close)
		a.storage = storage

	case config.RepositoryInMemory:
		a.storage = inmemory.New()

	default:
		return fmt.Errorf("неизвестный тип хранилища: %q", a.config.Repository.Type)
	}

	if err := a.storage.Seed(ctx); err != nil {
		return fmt.Errorf("сидирование категорий: %w", err)
	}
	return nil
}

func (a *App) initRouter() {
	handler := handlers.NewPlannerHandler(a.service)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.RateLimit(100))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
	}))

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", handler.GetCategories)    // GET /categories
		r.Post("/", handler.PostCategory)    // POST /categories

		r.Route("/{slug}", func(r chi.Router) {
			r.Get("/", handler.GetCategoryBySlug)       // GET /categories/{slug}
			r.Patch("/", handler.UpdateCategoryBySlug)  // PATCH /categories/{slug}
			r.Delete("/", handler.DeleteCategoryBySlug) // DELETE /categories/{slug}
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", handler.GetTasks) // GET /tasks?frequency=daily|weekly
		r.Post("/", handler.PostTask)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handler.GetTaskByID)       // GET /tasks/{id}
			r.Patch("/", handler.UpdateTaskByID)  // PATCH /tasks/{id}
			r.Delete("/", handler.DeleteTaskByID) // DELETE /tasks/{id}

			r.Get("/subtasks", handler.GetSubtasks)  // GET /tasks/{id}/subtasks
			r.Post("/subtasks", handler.PostSubtask) // POST /tasks/{id}/subtasks
		})
	})

	r.Route("/subtasks/{id}", func(r chi.Router) {
		r.Patch("/", handler.UpdateSubtaskByID)  // PATCH /subtasks/{id}
		r.Delete("/", handler.DeleteSubtaskByID) // DELETE /subtasks/{id}
	})

	r.Get("/health", handler.HealthCheck)

	a.router = r
}

// Run блокируется до отмены контекста, затем гасит сервер и
// выполняет shutdown-функции в обратном порядке.
func (a *App) Run(ctx context.Context) error {
	go a.worker.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен: " + a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.runShutdowns()
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", err)
	}

	a.runShutdowns()
	return nil
}

func (a *App) runShutdowns() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}
