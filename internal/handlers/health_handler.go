package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dairy-backend/pkg/utils"
)

type HealthHandler struct {
	db *pgxpool.Pool
}

func NewHealthHandler(db *pgxpool.Pool) *HealthHandler {
	return &HealthHandler{db: db}
}

// BasicHealth - liveness probe
func (h *HealthHandler) BasicHealth(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessHealth - readiness probe, checks the database
func (h *HealthHandler) ReadinessHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		utils.JSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": err.Error(),
		})
		return
	}
	utils.JSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
