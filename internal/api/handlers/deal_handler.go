package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"sponsorops/internal/engine/claims"
	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/portal"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/pkg/report"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type DealHandler struct {
	deals    *deals.Service
	claims   *claims.Repository
	sponsors *repositories.SponsorRepository
	portal   *portal.Service
	authz    *authz.Service
	audit    *audit.Logger
}

func NewDealHandler(dealSvc *deals.Service, claimRepo *claims.Repository, sponsors *repositories.SponsorRepository,
	portalSvc *portal.Service, authzSvc *authz.Service, auditLog *audit.Logger) *DealHandler {
	return &DealHandler{deals: dealSvc, claims: claimRepo, sponsors: sponsors, portal: portalSvc, authz: authzSvc, audit: auditLog}
}

func (h *DealHandler) load(r *http.Request, minRole string) (*models.Deal, error) {
	deal, err := h.deals.Repo().GetDeal(pathParam(r, "deal_id"))
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, errors.ErrNotFound
	}
	if _, err := h.authz.RequireRole(currentUser(r), deal.OrganizationID, minRole); err != nil {
		return nil, err
	}
	return deal, nil
}

func (h *DealHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req deals.DealCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.SponsorID == "" || req.Name == "" || req.StartDate == "" || req.EndDate == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "sponsor_id, name, start_date and end_date are required", nil)
		return
	}

	sponsor, err := h.sponsors.GetByID(req.SponsorID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if sponsor == nil {
		errors.Write(w, errors.ErrNotFound)
		return
	}
	if _, err := h.authz.RequireRole(user, sponsor.OrganizationID, authz.RoleEditor); err != nil {
		errors.WriteMasked(w, err)
		return
	}

	deal, err := h.deals.CreateDeal(sponsor, req, user.Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, deal)
}

func (h *DealHandler) Get(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}

func (h *DealHandler) Update(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req deals.DealUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	// archival via status change is gated like the archive endpoint
	if req.RequiresManager() {
		if _, err := h.authz.RequireRole(currentUser(r), deal.OrganizationID, authz.RoleManager); err != nil {
			errors.Write(w, err)
			return
		}
	}

	updated, err := h.deals.UpdateDeal(deal, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *DealHandler) Archive(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.deals.ArchiveDeal(deal, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *DealHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.deals.UnarchiveDeal(deal, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *DealHandler) ListDeliverables(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "1" || r.URL.Query().Get("include_archived") == "true"
	deliverables, err := h.deals.Repo().ListDeliverables(deal.ID, includeArchived)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, deliverables)
}

func (h *DealHandler) CreateDeliverable(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req deals.DeliverableCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" || req.DueDate == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "title and due_date are required", nil)
		return
	}

	d, err := h.deals.CreateDeliverable(deal, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DealHandler) GetBrandKit(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	bk, err := h.deals.GetOrCreateBrandKit(deal)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, bk)
}

func (h *DealHandler) UpdateBrandKit(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req deals.BrandKitUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	bk, err := h.deals.UpdateBrandKit(deal, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bk)
}

type ApplyTemplateRequest struct {
	Template string `json:"template"`
}

func (h *DealHandler) ApplyTemplate(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req ApplyTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Template == "" {
		req.Template = deals.TemplateValorantStandard
	}

	created, err := h.deals.ApplyTemplate(deal, req.Template, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"created": created})
}

func (h *DealHandler) ListClaims(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	claimList, err := h.claims.ListByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, claimList)
}

func (h *DealHandler) RevokePortal(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.portal.RevokeDeal(deal); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "portal_revoked",
		Summary: "Deal portal token revoked: " + deal.Name, Actor: currentUser(r).Email,
	})
	writeJSON(w, http.StatusOK, ok)
}

func (h *DealHandler) RotatePortal(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleManager)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.portal.RotateDeal(deal); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	h.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "portal_rotated",
		Summary: "Deal portal token rotated: " + deal.Name, Actor: currentUser(r).Email,
	})
	writeJSON(w, http.StatusOK, deal)
}

// ReportPDF renders the printable summary. Access failures are masked so
// the route cannot be used to probe for deal ids.
func (h *DealHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	deliverables, err := h.deals.Repo().ListDeliverables(deal.ID, true)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	counts := make(map[string]int, len(deliverables))
	for _, d := range deliverables {
		n, err := h.deals.Repo().CountProofs(d.ID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		counts[d.ID] = n
	}
	claimList, err := h.claims.ListByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	pdf, err := report.RenderDeal(report.DealReport{
		Deal:         deal,
		Deliverables: deliverables,
		ProofCounts:  counts,
		Claims:       claimList,
	})
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to render report", nil)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=deal_%s.pdf", deal.ID))
	w.Write(pdf)
}
