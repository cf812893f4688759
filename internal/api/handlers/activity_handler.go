package handlers

import (
	"net/http"
	"strconv"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/authz"
)

type ActivityHandler struct {
	audit *audit.Logger
	authz *authz.Service
}

func NewActivityHandler(auditLog *audit.Logger, authzSvc *authz.Service) *ActivityHandler {
	return &ActivityHandler{audit: auditLog, authz: authzSvc}
}

// List returns the org's activity feed, newest first, optionally narrowed
// to one deal.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(currentUser(r), orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	limit := 200
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	entries, err := h.audit.List(orgID, r.URL.Query().Get("deal_id"), limit)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
