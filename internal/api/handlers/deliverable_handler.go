package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"sponsorops/internal/engine/deals"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/uploads"
)

type DeliverableHandler struct {
	deals   *deals.Service
	uploads *uploads.Store
	authz   *authz.Service
}

func NewDeliverableHandler(dealSvc *deals.Service, store *uploads.Store, authzSvc *authz.Service) *DeliverableHandler {
	return &DeliverableHandler{deals: dealSvc, uploads: store, authz: authzSvc}
}

// load resolves the deliverable and its deal, then checks the caller's
// role in the owning org.
func (h *DeliverableHandler) load(r *http.Request, minRole string) (*models.Deliverable, *models.Deal, error) {
	d, err := h.deals.Repo().GetDeliverable(pathParam(r, "deliverable_id"))
	if err != nil {
		return nil, nil, err
	}
	if d == nil {
		return nil, nil, errors.ErrNotFound
	}
	deal, err := h.deals.Repo().GetDeal(d.DealID)
	if err != nil {
		return nil, nil, err
	}
	if deal == nil {
		return nil, nil, errors.ErrNotFound
	}
	if _, err := h.authz.RequireRole(currentUser(r), deal.OrganizationID, minRole); err != nil {
		return nil, nil, err
	}
	return d, deal, nil
}

func (h *DeliverableHandler) Update(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req deals.DeliverableUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := h.deals.UpdateDeliverable(deal.OrganizationID, d, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *DeliverableHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.deals.CancelDeliverable(deal.OrganizationID, d, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeliverableHandler) Restore(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.deals.RestoreDeliverable(deal.OrganizationID, d, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DeliverableHandler) Archive(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	if err := h.deals.ArchiveDeliverable(deal.OrganizationID, d, currentUser(r).Email); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ok)
}

func (h *DeliverableHandler) ListProofs(w http.ResponseWriter, r *http.Request) {
	d, _, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	proofs, err := h.deals.Repo().ListProofs(d.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	writeJSON(w, http.StatusOK, proofs)
}

func (h *DeliverableHandler) AddProof(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req deals.ProofCreate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "url is required", nil)
		return
	}

	p, err := h.deals.AddProofLink(deal.OrganizationID, d, req, currentUser(r).Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *DeliverableHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleEditor)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}
	saveUploadedProof(w, r, h.deals, h.uploads, deal, d, currentUser(r).Email)
}

func (h *DeliverableHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	d, _, err := h.load(r, authz.RoleViewer)
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

type CommentRequest struct {
	Body string `json:"body"`
}

func (h *DeliverableHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	d, deal, err := h.load(r, authz.RoleViewer)
	if err != nil {
		errors.WriteMasked(w, err)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Body) == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "body is required", nil)
		return
	}

	user := currentUser(r)
	c, err := h.deals.AddComment(deal.OrganizationID, d, user.Email, strings.TrimSpace(req.Body), user.Email)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// saveUploadedProof is shared by the staff and portal upload routes: parse
// the multipart form, store the file, record the proof.
func saveUploadedProof(w http.ResponseWriter, r *http.Request, dealSvc *deals.Service, store *uploads.Store,
	deal *models.Deal, d *models.Deliverable, actor string) {
	if err := r.ParseMultipartForm(store.MaxBytes() + 1024); err != nil {
		errors.Write(w, errors.ErrPayloadTooLarge)
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
	relPath, err := store.Save(d.ID, fileName, mimeType, file)
	if err != nil {
		errors.Write(w, err)
		return
	}

	note := r.FormValue("note")
	p, err := dealSvc.AddProofFile(deal.OrganizationID, d, relPath, fileName, mimeType, note, actor)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
