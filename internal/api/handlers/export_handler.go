package handlers

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"sponsorops/internal/engine/claims"
	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/tickets"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type ExportHandler struct {
	orgs        *repositories.OrganizationRepository
	memberships *repositories.MembershipRepository
	sponsors    *repositories.SponsorRepository
	deals       *deals.Repository
	tickets     *tickets.Repository
	claims      *claims.Repository
	authz       *authz.Service
}

func NewExportHandler(orgs *repositories.OrganizationRepository, memberships *repositories.MembershipRepository,
	sponsors *repositories.SponsorRepository, dealRepo *deals.Repository, ticketRepo *tickets.Repository,
	claimRepo *claims.Repository, authzSvc *authz.Service) *ExportHandler {
	return &ExportHandler{
		orgs: orgs, memberships: memberships, sponsors: sponsors,
		deals: dealRepo, tickets: ticketRepo, claims: claimRepo, authz: authzSvc,
	}
}

type orgExport struct {
	ExportedAt     string                  `json:"exported_at"`
	Org            *models.Organization    `json:"org"`
	Memberships    []*models.Membership    `json:"memberships"`
	Sponsors       []*models.Sponsor       `json:"sponsors"`
	Deals          []*models.Deal          `json:"deals"`
	Deliverables   []*models.Deliverable   `json:"deliverables"`
	Proofs         []*models.Proof         `json:"proofs"`
	Tickets        []*models.Ticket        `json:"tickets"`
	TicketMessages []*models.TicketMessage `json:"ticket_messages"`
	Claims         []*models.Claim         `json:"claims"`
}

// OrgZip streams a full JSON dump of the tenant's data as a zip archive.
func (h *ExportHandler) OrgZip(w http.ResponseWriter, r *http.Request) {
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(currentUser(r), orgID, authz.RoleManager); err != nil {
		errors.Write(w, err)
		return
	}

	org, err := h.orgs.GetByID(orgID)
	if err != nil || org == nil {
		errors.WriteMasked(w, errors.ErrNotFound)
		return
	}

	export := orgExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Org:        org,
	}
	if export.Memberships, err = h.memberships.ListByOrg(orgID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if export.Sponsors, err = h.sponsors.ListByOrg(orgID, true); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	export.Deals = []*models.Deal{}
	export.Deliverables = []*models.Deliverable{}
	export.Proofs = []*models.Proof{}
	for _, s := range export.Sponsors {
		dealList, err := h.deals.ListBySponsor(s.ID, true)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		export.Deals = append(export.Deals, dealList...)
		for _, deal := range dealList {
			deliverables, err := h.deals.ListDeliverables(deal.ID, true)
			if err != nil {
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
				return
			}
			export.Deliverables = append(export.Deliverables, deliverables...)
			proofs, err := h.deals.ListProofsByDeal(deal.ID)
			if err != nil {
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
				return
			}
			export.Proofs = append(export.Proofs, proofs...)
		}
	}

	if export.Tickets, err = h.tickets.ListByOrg(orgID, true); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	export.TicketMessages = []*models.TicketMessage{}
	for _, t := range export.Tickets {
		messages, err := h.tickets.ListMessages(t.ID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		export.TicketMessages = append(export.TicketMessages, messages...)
	}
	if export.Claims, err = h.claims.ListByOrg(orgID, true); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	payload, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to encode export", nil)
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("org_export.json")
	if err == nil {
		_, err = f.Write(payload)
	}
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to build archive", nil)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename=org_"+orgID+"_export.zip")
	w.Write(buf.Bytes())
}
