package handlers

import (
	"net/http"

	"dayplanner/internal/logger"
)

type PlannerHandler struct {
	service Service
}

func NewPlannerHandler(service Service) PlannerHandler {
	return PlannerHandler{
		service: service,
	}
}

func (h *PlannerHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := h.service.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable, toPayload("status", "unhealthy"))
		return
	}
	responseWithJSON(w, http.StatusOK, toPayload("status", "ok"))
}
