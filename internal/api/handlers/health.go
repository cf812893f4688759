package handlers

import (
	"database/sql"
	"net/http"
	"time"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	code := http.StatusOK

	if err := h.db.Ping(); err != nil {
		checks["db"] = "unhealthy: " + err.Error()
		status = "degraded"
		code = http.StatusServiceUnavailable
	} else {
		checks["db"] = "healthy"
	}

	writeJSON(w, code, struct {
		Status    string            `json:"status"`
		Timestamp int64             `json:"timestamp"`
		Checks    map[string]string `json:"checks"`
	}{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	})
}
