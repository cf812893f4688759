package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/portal"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type SponsorHandler struct {
	sponsors *repositories.SponsorRepository
	deals    *deals.Repository
	portal   *portal.Service
	authz    *authz.Service
	audit    *audit.Logger
}

func NewSponsorHandler(sponsors *repositories.SponsorRepository, dealRepo *deals.Repository,
	portalSvc *portal.Service, authzSvc *authz.Service, auditLog *audit.Logger) *SponsorHandler {
	return &SponsorHandler{sponsors: sponsors, deals: dealRepo, portal: portalSvc, authz: authzSvc, audit: auditLog}
}

// load fetches a sponsor and checks the caller's role in its org. Cross-org
// lookups come back as NotFound.
func (h *SponsorHandler) load(r *http.Request, minRole string) (*models.Sponsor, error) {
	sponsor, err := h.sponsors.GetByID(pathParam(r, "sponsor_id"))
	if err != nil {
		return nil, err
	}
	if sponsor == nil {
		return nil, errors.ErrNotFound
	}
	if _, err := h.authz.RequireRole(currentUser(r), sponsor.OrganizationID, minRole); err != nil {
		return nil, err
	}
	return sponsor, nil
}

func (h *SponsorHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(currentUser(r), orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "1" || r.URL.Query().Get("include_archived") == "true"
	sponsors, err := h.sponsors.ListByOrg(orgID, includeArchived)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, sponsors)
}

type SponsorCreateRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
}

func (h *SponsorHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(user, orgID, authz.RoleEditor); err != nil {
		errors.Write(w, err)
		return
	}

	var req SponsorCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Sponsor name is required", nil)
		return
	}

	now := time.Now()
	expiry := portal.SponsorTokenExpiry(now)
	sponsor := &models.Sponsor{
		ID:                   "spn_" + uuid.NewString(),
		OrganizationID:       orgID,
		Name:                 strings.TrimSpace(req.Name),
		ContactEmail:         strings.TrimSpace(req.ContactEmail),
		PortalToken:          portal.NewToken(),
		PortalTokenExpiresAt: &expiry,
		CreatedAt:            now.Unix(),
	}
	if err := h.sponsors.Create(sponsor); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: orgID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "created",
		Summary: "Sponsor created: " + sponsor.Name, Actor: user.Email,
	})
	writeJSON(w, http.StatusCreated, sponsor)
}

func (h *SponsorHandler) Get(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sponsor)
}

type SponsorUpdateRequest struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
}

func (h *SponsorHandler) Update(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req SponsorUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Name != nil {
		sponsor.Name = strings.TrimSpace(*req.Name)
	}
	if req.ContactEmail != nil {
		sponsor.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if err := h.sponsors.Update(sponsor); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: sponsor.OrganizationID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "updated",
		Summary: "Sponsor updated: " + sponsor.Name, Actor: currentUser(r).Email,
	})
	writeJSON(w, http.StatusOK, sponsor)
}

func (h *SponsorHandler) Archive(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	if sponsor.ArchivedAt == nil {
		ts := time.Now().Unix()
		sponsor.ArchivedAt = &ts
		if err := h.sponsors.Update(sponsor); err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		h.audit.Record(audit.Entry{
			OrgID: sponsor.OrganizationID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "archived",
			Summary: "Sponsor archived: " + sponsor.Name, Actor: currentUser(r).Email,
		})
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *SponsorHandler) Restore(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	if sponsor.ArchivedAt != nil {
		sponsor.ArchivedAt = nil
		if err := h.sponsors.Update(sponsor); err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		h.audit.Record(audit.Entry{
			OrgID: sponsor.OrganizationID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "restored",
			Summary: "Sponsor restored: " + sponsor.Name, Actor: currentUser(r).Email,
		})
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *SponsorHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "1" || r.URL.Query().Get("include_archived") == "true"
	dealList, err := h.deals.ListBySponsor(sponsor.ID, includeArchived)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, dealList)
}

// RevokePortal kills the sponsor's portal token without issuing a new one.
func (h *SponsorHandler) RevokePortal(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.portal.RevokeSponsor(sponsor); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: sponsor.OrganizationID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "portal_revoked",
		Summary: "Sponsor portal token revoked: " + sponsor.Name, Actor: currentUser(r).Email,
	})
	writeJSON(w, http.StatusOK, ok)
}

// RotatePortal replaces the token; the old one stops working immediately.
func (h *SponsorHandler) RotatePortal(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.portal.RotateSponsor(sponsor); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: sponsor.OrganizationID, EntityType: "sponsor", EntityID: sponsor.ID, Action: "portal_rotated",
		Summary: "Sponsor portal token rotated: " + sponsor.Name, Actor: currentUser(r).Email,
	})
	writeJSON(w, http.StatusOK, sponsor)
}
