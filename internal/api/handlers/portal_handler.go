package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sponsorops/internal/engine/claims"
	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/portal"
	"sponsorops/internal/engine/tickets"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/uploads"
)

// PortalHandler serves the unauthenticated sponsor surface. Every lookup
// failure, including bad tokens, reads as a 404.
type PortalHandler struct {
	portal  *portal.Service
	deals   *deals.Service
	claims  *claims.Service
	tickets *tickets.Service
	uploads *uploads.Store
}

func NewPortalHandler(portalSvc *portal.Service, dealSvc *deals.Service, claimSvc *claims.Service,
	ticketSvc *tickets.Service, store *uploads.Store) *PortalHandler {
	return &PortalHandler{portal: portalSvc, deals: dealSvc, claims: claimSvc, tickets: ticketSvc, uploads: store}
}

type SponsorPortalResponse struct {
	Sponsor *models.Sponsor `json:"sponsor"`
	Deals   []*models.Deal  `json:"deals"`
}

func (h *PortalHandler) SponsorView(w http.ResponseWriter, r *http.Request) {
	sponsor, err := h.portal.ValidateSponsor(pathParam(r, "token"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	dealList, err := h.deals.Repo().ListBySponsor(sponsor.ID, false)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, SponsorPortalResponse{Sponsor: sponsor, Deals: dealList})
}

type DealPortalResponse struct {
	Deal           *models.Deal                 `json:"deal"`
	Deliverables   []*models.Deliverable        `json:"deliverables"`
	Proofs         []*models.Proof              `json:"proofs"`
	Comments       []*models.DeliverableComment `json:"comments"`
	BrandKit       *models.BrandKit             `json:"brandkit"`
	Claims         []*models.Claim              `json:"claims"`
	Tickets        []*models.Ticket             `json:"tickets"`
	TicketMessages []*models.TicketMessage      `json:"ticket_messages"`
}

// DealView aggregates everything the portal UI renders in one response.
func (h *PortalHandler) DealView(w http.ResponseWriter, r *http.Request) {
	deal, err := h.portal.ValidateDeal(pathParam(r, "token"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	deliverables, err := h.deals.Repo().ListDeliverables(deal.ID, true)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	proofs, err := h.deals.Repo().ListProofsByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	comments, err := h.deals.Repo().ListCommentsByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	bk, err := h.deals.Repo().GetBrandKit(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	claimList, err := h.claims.Repo().ListByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	ticketList, err := h.tickets.Repo().ListByDeal(deal.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	messages := []*models.TicketMessage{}
	for _, t := range ticketList {
		ms, err := h.tickets.Repo().ListMessages(t.ID)
		if err != nil {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			return
		}
		messages = append(messages, ms...)
	}

	writeJSON(w, http.StatusOK, DealPortalResponse{
		Deal:           deal,
		Deliverables:   deliverables,
		Proofs:         proofs,
		Comments:       comments,
		BrandKit:       bk,
		Claims:         claimList,
		Tickets:        ticketList,
		TicketMessages: messages,
	})
}

type PortalTicketCreateRequest struct {
	SponsorToken string `json:"sponsor_token"`
	DealToken    string `json:"deal_token"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
}

func (h *PortalHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var req PortalTicketCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Subject) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "subject is required", nil)
		return
	}

	sponsor, err := h.portal.ValidateSponsor(req.SponsorToken)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	dealID := ""
	if req.DealToken != "" {
		deal, err := h.portal.ValidateDeal(req.DealToken)
		if err != nil {
			errors.WriteMasked(w, err)
			return
		}
		if deal.SponsorID != sponsor.ID {
			errors.WriteMasked(w, errors.ErrNotFound)
			return
		}
		dealID = deal.ID
	}

	t, err := h.tickets.CreateFromPortal(sponsor, dealID, req.Subject, req.Body)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// loadTicket authorizes ticket access under a sponsor token, with an
// optional deal token cross-check when the ticket is deal-bound.
func (h *PortalHandler) loadTicket(ticketID, sponsorToken, dealToken string) (*models.Ticket, error) {
	sponsor, err := h.portal.ValidateSponsor(sponsorToken)
	if err != nil {
		return nil, err
	}
	t, err := h.tickets.Repo().GetByID(ticketID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.SponsorID != sponsor.ID || t.OrganizationID != sponsor.OrganizationID {
		return nil, errors.ErrNotFound
	}
	if t.DealID != "" && dealToken != "" {
		deal, err := h.portal.ValidateDeal(dealToken)
		if err != nil {
			return nil, err
		}
		if deal.ID != t.DealID {
			return nil, errors.ErrNotFound
		}
	}
	return t, nil
}

func (h *PortalHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	t, err := h.loadTicket(pathParam(r, "ticket_id"), q.Get("sponsor_token"), q.Get("deal_token"))
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

type PortalTicketReplyRequest struct {
	SponsorToken string `json:"sponsor_token"`
	DealToken    string `json:"deal_token"`
	Message      string `json:"message"`
}

func (h *PortalHandler) ReplyTicket(w http.ResponseWriter, r *http.Request) {
	var req PortalTicketReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "message is required", nil)
		return
	}

	t, err := h.loadTicket(pathParam(r, "ticket_id"), req.SponsorToken, req.DealToken)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	msg, err := h.tickets.ReplySponsor(t, strings.TrimSpace(req.Message))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

type PortalClaimCreateRequest struct {
	DealToken     string `json:"deal_token"`
	DeliverableID string `json:"deliverable_id"`
	Reason        string `json:"reason"`
	Description   string `json:"description"`
}

func (h *PortalHandler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	var req PortalClaimCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "reason is required", nil)
		return
	}

	deal, d, err := h.loadDeliverable(req.DealToken, req.DeliverableID)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	c, err := h.claims.CreateFromPortal(deal, d, req.Reason, req.Description)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// loadDeliverable validates a deal token and binds the deliverable to that
// deal.
func (h *PortalHandler) loadDeliverable(dealToken, deliverableID string) (*models.Deal, *models.Deliverable, error) {
	deal, err := h.portal.ValidateDeal(dealToken)
	if err != nil {
		return nil, nil, err
	}
	d, err := h.deals.Repo().GetDeliverable(deliverableID)
	if err != nil {
		return nil, nil, err
	}
	if d == nil || d.DealID != deal.ID {
		return nil, nil, errors.ErrNotFound
	}
	return deal, d, nil
}

type PortalApproveRequest struct {
	DealToken  string `json:"deal_token"`
	ApprovedBy string `json:"approved_by"`
}

func (h *PortalHandler) ApproveDeliverable(w http.ResponseWriter, r *http.Request) {
	var req PortalApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	_, d, err := h.loadDeliverable(req.DealToken, pathParam(r, "deliverable_id"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	if err := h.deals.ApproveBySponsor(d, req.ApprovedBy); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *PortalHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	_, d, err := h.loadDeliverable(r.URL.Query().Get("deal_token"), pathParam(r, "deliverable_id"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	comments, err := h.deals.Repo().ListComments(d.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

type PortalCommentRequest struct {
	DealToken string `json:"deal_token"`
	Author    string `json:"author"`
	Body      string `json:"body"`
}

func (h *PortalHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req PortalCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "body is required", nil)
		return
	}

	deal, d, err := h.loadDeliverable(req.DealToken, pathParam(r, "deliverable_id"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = "sponsor"
	}
	c, err := h.deals.AddComment(deal.OrganizationID, d, author, strings.TrimSpace(req.Body), "sponsor")
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

type PortalProofLinkRequest struct {
	DealToken string `json:"deal_token"`
	URL       string `json:"url"`
	Note      string `json:"note"`
}

func (h *PortalHandler) AddProof(w http.ResponseWriter, r *http.Request) {
	var req PortalProofLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "url is required", nil)
		return
	}

	deal, d, err := h.loadDeliverable(req.DealToken, pathParam(r, "deliverable_id"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	p, err := h.deals.AddProofLink(deal.OrganizationID, d, deals.ProofCreate{URL: req.URL, Note: req.Note}, "sponsor")
	if err != nil {
		errors.Write(w, err)
		return
	}
	if err := h.deals.AdvanceAfterPortalProof(d); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PortalHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploads.MaxBytes() + 1024); err != nil {
		errors.Write(w, errors.ErrPayloadTooLarge)
		return
	}

	deal, d, err := h.loadDeliverable(r.FormValue("deal_token"), pathParam(r, "deliverable_id"))
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "file is required", nil)
		return
	}
	defer file.Close()

	fileName := uploads.SafeName(header.Filename)
	mimeType := header.Header.Get("Content-Type")
	relPath, err := h.uploads.Save(d.ID, fileName, mimeType, file)
	if err != nil {
		errors.Write(w, err)
		return
	}

	p, err := h.deals.AddProofFile(deal.OrganizationID, d, relPath, fileName, mimeType, r.FormValue("note"), "sponsor")
	if err != nil {
		errors.Write(w, err)
		return
	}
	if err := h.deals.AdvanceAfterPortalProof(d); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
