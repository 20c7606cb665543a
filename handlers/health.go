package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"pagseguro-payment-api/models"
	"pagseguro-payment-api/utils"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health handles GET /api/health. Any failing check turns the response
// into a 503 listing each dependency's state.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	components := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			components[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "healthy"
	}

	resp := models.APIResponse{
		Status:  "success",
		Message: "healthy",
		Data:    components,
	}
	if status != http.StatusOK {
		resp.Status = "error"
		resp.Message = "unhealthy"
	}
	utils.SendJSON(w, status, resp)
}
