package handlers

import (
	"encoding/json"
	"net/http"

	"sponsorops/internal/engine/claims"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
)

type ClaimHandler struct {
	claims *claims.Service
	authz  *authz.Service
}

func NewClaimHandler(claimSvc *claims.Service, authzSvc *authz.Service) *ClaimHandler {
	return &ClaimHandler{claims: claimSvc, authz: authzSvc}
}

func (h *ClaimHandler) load(r *http.Request, minRole string) (*models.Claim, error) {
	c, err := h.claims.Repo().GetByID(pathParam(r, "claim_id"))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.ErrNotFound
	}
	if _, err := h.authz.RequireRole(currentUser(r), c.OrganizationID, minRole); err != nil {
		return nil, err
	}
	return c, nil
}

func (h *ClaimHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(currentUser(r), orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "1" || r.URL.Query().Get("include_archived") == "true"
	claimList, err := h.claims.Repo().ListByOrg(orgID, includeArchived)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, claimList)
}

func (h *ClaimHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req claims.ClaimUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := h.claims.Update(c, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ClaimHandler) Decide(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req claims.ClaimDecision
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	decided, err := h.claims.Decide(c, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, decided)
}

func (h *ClaimHandler) Archive(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.claims.Archive(c, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *ClaimHandler) Restore(w http.ResponseWriter, r *http.Request) {
	c, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.claims.Restore(c, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}
