package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sponsorops/internal/engine/tickets"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type TicketHandler struct {
	tickets  *tickets.Service
	sponsors *repositories.SponsorRepository
	authz    *authz.Service
}

func NewTicketHandler(ticketSvc *tickets.Service, sponsors *repositories.SponsorRepository, authzSvc *authz.Service) *TicketHandler {
	return &TicketHandler{tickets: ticketSvc, sponsors: sponsors, authz: authzSvc}
}

// load checks both the caller's role and the ticket's sponsor binding; a
// ticket whose sponsor drifted to another org reads as missing.
func (h *TicketHandler) load(r *http.Request, minRole string) (*models.Ticket, error) {
	t, err := h.tickets.Repo().GetByID(pathParam(r, "ticket_id"))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.ErrNotFound
	}
	if _, err := h.authz.RequireRole(currentUser(r), t.OrganizationID, minRole); err != nil {
		return nil, err
	}
	sponsor, err := h.sponsors.GetByID(t.SponsorID)
	if err != nil {
		return nil, err
	}
	if sponsor == nil || sponsor.OrganizationID != t.OrganizationID {
		return nil, errors.ErrNotFound
	}
	return t, nil
}

func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := currentOrg(r)
	if _, err := h.authz.RequireRole(currentUser(r), orgID, authz.RoleViewer); err != nil {
		errors.Write(w, err)
		return
	}

	includeArchived := r.URL.Query().Get("include_archived") == "1" || r.URL.Query().Get("include_archived") == "true"
	ticketList, err := h.tickets.Repo().ListByOrg(orgID, includeArchived)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, ticketList)
}

type TicketThreadResponse struct {
	Ticket   *models.Ticket          `json:"ticket"`
	Messages []*models.TicketMessage `json:"messages"`
}

func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	messages, err := h.tickets.Repo().ListMessages(t.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, TicketThreadResponse{Ticket: t, Messages: messages})
}

func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req tickets.TicketUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := h.tickets.Update(t, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type TicketReplyRequest struct {
	Message string `json:"message"`
}

func (h *TicketHandler) Reply(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req TicketReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "message is required", nil)
		return
	}

	msg, err := h.tickets.ReplyStaff(t, strings.TrimSpace(req.Message), currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *TicketHandler) Archive(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.tickets.Archive(t, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *TicketHandler) Restore(w http.ResponseWriter, r *http.Request) {
	t, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.tickets.Restore(t, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}
