package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"sponsorops/internal/engine/notify"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/config"
)

type NotificationHandler struct {
	notify *notify.Service
	authz  *authz.Service
	cfg    config.NotificationsConfig
}

func NewNotificationHandler(notifySvc *notify.Service, authzSvc *authz.Service, cfg config.NotificationsConfig) *NotificationHandler {
	return &NotificationHandler{notify: notifySvc, authz: authzSvc, cfg: cfg}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(user, orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	notifications, err := h.notify.Repo().ListByUser(orgID, user.ID, limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) Sync(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(user, orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	created, err := h.notify.Sync(orgID, user.ID, h.cfg.DueSoonWindowDays)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

type MarkReadRequest struct {
	IDs []string `json:"ids"`
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(user, orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := h.notify.Repo().MarkRead(orgID, user.ID, req.IDs)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "updated": updated})
}
