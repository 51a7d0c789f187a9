package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"dayplanner/internal/handlers/dto"
	"dayplanner/internal/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func (h *PlannerHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Категории получены",
		zap.Int("count", len(categories)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, categories)
}

func (h *PlannerHandler) GetCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		logger.Warn("HTTP: Неверное значение slug",
			zap.String("error", "empty slug"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "slug не может быть пустым")
		return
	}

	category, err := h.service.GetCategory(r.Context(), slug)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err)
		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Категория получена",
		zap.String("slug", category.Slug),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, category)
}

func (h *PlannerHandler) PostCategory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	if !checkContentType(r, "application/json") {
		logger.Warn("HTTP: Неверный тип контента",
			zap.String("expected", "application/json"),
			zap.String("received", r.Header.Get("Content-Type")),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type должен быть application/json")
		return
	}

	var request dto.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return
	}

	if request.Slug == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "slug"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "slug не может быть пустым")
		return
	}

	if request.Name == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "name"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "название не может быть пустым")
		return
	}

	category, err := h.service.CreateCategory(r.Context(), request.Slug, request.Name, request.Color)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "create_category"),
			zap.Duration("ms", time.Since(start)))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Категория создана",
		zap.String("slug", category.Slug),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, category)
}

func (h *PlannerHandler) UpdateCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		responseWithError(w, http.StatusBadRequest, "slug не может быть пустым")
		return
	}

	var request dto.UpdateCategoryRequest
	decoder := json.NewDecoder(r.Body)
	defer r.Body.Close()

	if err := decoder.Decode(&request); err != nil {
		logger.Warn("HTTP: ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "неверно переданы параметры обновления: "+err.Error())
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), slug, request.Name, request.Color)
	if err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "update_category"))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Категория обновлена",
		zap.String("slug", category.Slug),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, category)
}

func (h *PlannerHandler) DeleteCategoryBySlug(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	slug := chi.URLParam(r, "slug")
	if slug == "" {
		responseWithError(w, http.StatusBadRequest, "slug не может быть пустым")
		return
	}

	if err := h.service.DeleteCategory(r.Context(), slug); err != nil {
		if handleBusinessError(w, err) {
			return
		}
		logger.Error("HTTP: ошибка в Service", err,
			zap.String("operation", "delete_category"))

		responseWithError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("HTTP_OUT: Категория удалена",
		zap.String("slug", slug),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
