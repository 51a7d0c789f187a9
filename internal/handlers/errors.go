package handlers

import (
	"errors"
	"net/http"

	"dayplanner/internal/logger"
	"dayplanner/internal/service"

	"go.uber.org/zap"
)

// handleBusinessError переводит BusinessError в HTTP-ответ; возвращает
// true, если ошибка была бизнес-ошибкой и ответ уже отправлен.
func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeCategoryInUse:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
