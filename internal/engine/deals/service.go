package deals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/engine/portal"
	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/models"
	"sponsorops/internal/platform/repositories"
)

type Service struct {
	repo     *Repository
	sponsors *repositories.SponsorRepository
	audit    *audit.Logger
	now      func() time.Time
}

func NewService(repo *Repository, sponsors *repositories.SponsorRepository, auditLog *audit.Logger) *Service {
	return &Service{repo: repo, sponsors: sponsors, audit: auditLog, now: time.Now}
}

func (s *Service) Repo() *Repository {
	return s.repo
}

type DealCreate struct {
	SponsorID       string   `json:"sponsor_id"`
	Name            string   `json:"name"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	TotalValue      *float64 `json:"total_value"`
	GuaranteeCapPct float64  `json:"guarantee_cap_pct"`
	CureDays        int      `json:"cure_days"`
}

// CreateDeal binds the deal to the sponsor's organization and issues its
// portal token. The caller has already passed the editor check against
// that organization.
func (s *Service) CreateDeal(sponsor *models.Sponsor, req DealCreate, actor string) (*models.Deal, error) {
	now := s.now()
	expiry := portal.DealTokenExpiry(req.EndDate, now)

	deal := &models.Deal{
		ID:                   "deal_" + uuid.NewString(),
		OrganizationID:       sponsor.OrganizationID,
		SponsorID:            sponsor.ID,
		Name:                 req.Name,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		TotalValue:           req.TotalValue,
		Status:               DealDraft,
		GuaranteeCapPct:      req.GuaranteeCapPct,
		CureDays:             req.CureDays,
		PortalToken:          portal.NewToken(),
		PortalTokenExpiresAt: &expiry,
		CreatedAt:            now.Unix(),
	}

	if err := s.repo.CreateDeal(deal); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "created",
		Summary: "Deal created: " + deal.Name, Actor: actor,
	})
	return deal, nil
}

type DealUpdate struct {
	Name            *string  `json:"name"`
	StartDate       *string  `json:"start_date"`
	EndDate         *string  `json:"end_date"`
	TotalValue      *float64 `json:"total_value"`
	GuaranteeCapPct *float64 `json:"guarantee_cap_pct"`
	CureDays        *int     `json:"cure_days"`
	Status          *string  `json:"status"`
}

// RequiresManager reports whether the update carries a transition that is
// gated above editor rank.
func (u DealUpdate) RequiresManager() bool {
	return u.Status != nil && *u.Status == DealArchived
}

// UpdateDeal applies present fields one by one, then runs the status
// transition with its guards. Nothing is persisted when a guard fails.
func (s *Service) UpdateDeal(deal *models.Deal, upd DealUpdate, actor string) (*models.Deal, error) {
	if upd.Name != nil {
		deal.Name = *upd.Name
	}
	if upd.StartDate != nil {
		deal.StartDate = *upd.StartDate
	}
	if upd.EndDate != nil {
		deal.EndDate = *upd.EndDate
	}
	if upd.TotalValue != nil {
		deal.TotalValue = upd.TotalValue
	}
	if upd.GuaranteeCapPct != nil {
		deal.GuaranteeCapPct = *upd.GuaranteeCapPct
	}
	if upd.CureDays != nil {
		deal.CureDays = *upd.CureDays
	}

	if upd.Status != nil && *upd.Status != deal.Status {
		if err := s.applyDealTransition(deal, *upd.Status); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateDeal(deal); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "updated",
		Summary: "Deal updated: " + deal.Name, Actor: actor,
	})
	return deal, nil
}

func (s *Service) applyDealTransition(deal *models.Deal, target string) error {
	// archived is a dead end; only Unarchive leaves it
	if deal.Status == DealArchived {
		return fmt.Errorf("%w: deal is archived", errors.ErrGuardViolation)
	}

	switch target {
	case DealCompleted:
		outstanding, err := s.repo.CountOutstanding(deal.ID)
		if err != nil {
			return err
		}
		if outstanding > 0 {
			return fmt.Errorf("%w: %d deliverables are not delivered or canceled", errors.ErrGuardViolation, outstanding)
		}
		ts := s.now().Unix()
		deal.CompletedAt = &ts
	case DealArchived:
		ts := s.now().Unix()
		deal.ArchivedAt = &ts
	}
	// tenant-defined statuses pass through unchanged
	deal.Status = target
	return nil
}

// ArchiveDeal is the manager-gated soft delete. The portal token stays
// valid; revocation is a separate explicit call.
func (s *Service) ArchiveDeal(deal *models.Deal, actor string) error {
	if deal.ArchivedAt == nil {
		ts := s.now().Unix()
		deal.ArchivedAt = &ts
	}
	deal.Status = DealArchived
	if err := s.repo.UpdateDeal(deal); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "archived",
		Summary: "Deal archived: " + deal.Name, Actor: actor,
	})
	return nil
}

func (s *Service) UnarchiveDeal(deal *models.Deal, actor string) error {
	deal.ArchivedAt = nil
	if deal.Status == DealArchived {
		deal.Status = DealActive
	}
	if err := s.repo.UpdateDeal(deal); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "restored",
		Summary: "Deal restored: " + deal.Name, Actor: actor,
	})
	return nil
}

type DeliverableCreate struct {
	Title                   string   `json:"title"`
	Type                    string   `json:"type"`
	DueDate                 string   `json:"due_date"`
	Owner                   string   `json:"owner"`
	AssigneeUserID          string   `json:"assignee_user_id"`
	SponsorApprovalRequired bool     `json:"sponsor_approval_required"`
	Guaranteed              bool     `json:"guaranteed"`
	Value                   *float64 `json:"value"`
	Brief                   string   `json:"brief"`
}

func (s *Service) CreateDeliverable(deal *models.Deal, req DeliverableCreate, actor string) (*models.Deliverable, error) {
	if _, err := time.Parse("2006-01-02", req.DueDate); err != nil {
		return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", errors.ErrGuardViolation)
	}
	d := &models.Deliverable{
		ID:                      "dlv_" + uuid.NewString(),
		DealID:                  deal.ID,
		Title:                   req.Title,
		Type:                    req.Type,
		DueDate:                 req.DueDate,
		Status:                  StatusDraft,
		Owner:                   req.Owner,
		AssigneeUserID:          req.AssigneeUserID,
		SponsorApprovalRequired: req.SponsorApprovalRequired,
		Guaranteed:              req.Guaranteed,
		Value:                   req.Value,
		Brief:                   req.Brief,
		CreatedAt:               s.now().Unix(),
	}

	if err := s.repo.CreateDeliverable(d); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deliverable", EntityID: d.ID, Action: "created",
		Summary: "Deliverable created: " + d.Title, Actor: actor,
	})
	return d, nil
}

type DeliverableUpdate struct {
	Title                   *string  `json:"title"`
	Type                    *string  `json:"type"`
	DueDate                 *string  `json:"due_date"`
	Status                  *string  `json:"status"`
	Owner                   *string  `json:"owner"`
	AssigneeUserID          *string  `json:"assignee_user_id"`
	SponsorApprovalRequired *bool    `json:"sponsor_approval_required"`
	SponsorApprovedAt       *int64   `json:"sponsor_approved_at"`
	SponsorApprovedBy       *string  `json:"sponsor_approved_by"`
	Guaranteed              *bool    `json:"guaranteed"`
	Value                   *float64 `json:"value"`
	Brief                   *string  `json:"brief"`
	DeliveredOverrideNote   *string  `json:"delivered_override_note"`
}

// UpdateDeliverable applies present fields with per-field validation.
// A status of delivered runs the proof guard first; a sponsor approval
// timestamp set while the deliverable is in a pre-approval state
// auto-transitions it to approved.
func (s *Service) UpdateDeliverable(orgID string, d *models.Deliverable, upd DeliverableUpdate, actor string) (*models.Deliverable, error) {
	if upd.DueDate != nil {
		if _, err := time.Parse("2006-01-02", *upd.DueDate); err != nil {
			return nil, fmt.Errorf("%w: due_date must be YYYY-MM-DD", errors.ErrGuardViolation)
		}
	}
	if upd.Status != nil {
		if !ValidDeliverableStatus(*upd.Status) {
			return nil, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, *upd.Status)
		}
		if *upd.Status == StatusDelivered && d.Status != StatusDelivered {
			override := d.DeliveredOverrideNote
			if upd.DeliveredOverrideNote != nil {
				override = *upd.DeliveredOverrideNote
			}
			count, err := s.repo.CountProofs(d.ID)
			if err != nil {
				return nil, err
			}
			if count == 0 && override == "" {
				return nil, fmt.Errorf("%w: cannot mark delivered without proof or an override note", errors.ErrGuardViolation)
			}
			ts := s.now().Unix()
			d.DeliveredAt = &ts
			d.DeliveredBy = actor
		}
	}

	if upd.Title != nil {
		d.Title = *upd.Title
	}
	if upd.Type != nil {
		d.Type = *upd.Type
	}
	if upd.DueDate != nil {
		d.DueDate = *upd.DueDate
	}
	if upd.Owner != nil {
		d.Owner = *upd.Owner
	}
	if upd.AssigneeUserID != nil {
		d.AssigneeUserID = *upd.AssigneeUserID
	}
	if upd.SponsorApprovalRequired != nil {
		d.SponsorApprovalRequired = *upd.SponsorApprovalRequired
	}
	if upd.SponsorApprovedAt != nil {
		d.SponsorApprovedAt = upd.SponsorApprovedAt
	}
	if upd.SponsorApprovedBy != nil {
		d.SponsorApprovedBy = *upd.SponsorApprovedBy
	}
	if upd.Guaranteed != nil {
		d.Guaranteed = *upd.Guaranteed
	}
	if upd.Value != nil {
		d.Value = upd.Value
	}
	if upd.Brief != nil {
		d.Brief = *upd.Brief
	}
	if upd.DeliveredOverrideNote != nil {
		d.DeliveredOverrideNote = *upd.DeliveredOverrideNote
	}
	if upd.Status != nil {
		d.Status = *upd.Status
	}

	if upd.SponsorApprovedAt != nil && inPreApproval(d.Status) {
		d.Status = StatusApproved
	}

	if err := s.repo.UpdateDeliverable(d); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "deliverable", EntityID: d.ID, Action: "updated",
		Summary: "Deliverable updated: " + d.Title, Actor: actor,
	})
	return d, nil
}

// CancelDeliverable is reachable from any non-terminal state; delivered is
// terminal and stays that way.
func (s *Service) CancelDeliverable(orgID string, d *models.Deliverable, actor string) error {
	if d.Status == StatusDelivered {
		return fmt.Errorf("%w: delivered deliverables cannot be canceled", errors.ErrGuardViolation)
	}
	if d.CanceledAt == nil {
		ts := s.now().Unix()
		d.CanceledAt = &ts
		d.CanceledBy = actor
	}
	d.Status = StatusCanceled
	if err := s.repo.UpdateDeliverable(d); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "deliverable", EntityID: d.ID, Action: "canceled",
		Summary: "Deliverable canceled: " + d.Title, Actor: actor,
	})
	return nil
}

// RestoreDeliverable clears cancel and archive markers; a canceled
// deliverable goes back to draft. Delivered is not reopenable.
func (s *Service) RestoreDeliverable(orgID string, d *models.Deliverable, actor string) error {
	d.ArchivedAt = nil
	d.CanceledAt = nil
	d.CanceledBy = ""
	if d.Status == StatusCanceled {
		d.Status = StatusDraft
	}
	if err := s.repo.UpdateDeliverable(d); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "deliverable", EntityID: d.ID, Action: "restored",
		Summary: "Deliverable restored: " + d.Title, Actor: actor,
	})
	return nil
}

func (s *Service) ArchiveDeliverable(orgID string, d *models.Deliverable, actor string) error {
	if d.ArchivedAt != nil {
		return nil
	}
	ts := s.now().Unix()
	d.ArchivedAt = &ts
	if err := s.repo.UpdateDeliverable(d); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "deliverable", EntityID: d.ID, Action: "archived",
		Summary: "Deliverable archived: " + d.Title, Actor: actor,
	})
	return nil
}

// ApproveBySponsor is the portal-side approval: stamps the approval and
// auto-transitions out of any pre-approval state.
func (s *Service) ApproveBySponsor(d *models.Deliverable, approvedBy string) error {
	ts := s.now().Unix()
	d.SponsorApprovedAt = &ts
	if approvedBy == "" {
		approvedBy = "sponsor"
	}
	d.SponsorApprovedBy = approvedBy
	if inPreApproval(d.Status) {
		d.Status = StatusApproved
	}
	return s.repo.UpdateDeliverable(d)
}

type ProofCreate struct {
	URL  string `json:"url"`
	Note string `json:"note"`
}

func (s *Service) AddProofLink(orgID string, d *models.Deliverable, req ProofCreate, actor string) (*models.Proof, error) {
	p := &models.Proof{
		ID:            "prf_" + uuid.NewString(),
		DeliverableID: d.ID,
		Kind:          "link",
		URL:           req.URL,
		Note:          req.Note,
		CreatedAt:     s.now().Unix(),
	}
	if err := s.repo.CreateProof(p); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "proof", EntityID: p.ID, Action: "created",
		Summary: "Proof link added for deliverable: " + d.Title, Actor: actor,
	})
	return p, nil
}

func (s *Service) AddProofFile(orgID string, d *models.Deliverable, filePath, fileName, mimeType, note, actor string) (*models.Proof, error) {
	p := &models.Proof{
		ID:            "prf_" + uuid.NewString(),
		DeliverableID: d.ID,
		Kind:          "file",
		Note:          note,
		FilePath:      filePath,
		FileName:      fileName,
		MimeType:      mimeType,
		CreatedAt:     s.now().Unix(),
	}
	if err := s.repo.CreateProof(p); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: orgID, DealID: d.DealID,
		EntityType: "proof", EntityID: p.ID, Action: "uploaded",
		Summary: "Proof file uploaded for deliverable: " + d.Title, Actor: actor,
	})
	return p, nil
}

// AdvanceAfterPortalProof moves posted work to proofed when a sponsor
// attaches evidence. Other statuses are left alone.
func (s *Service) AdvanceAfterPortalProof(d *models.Deliverable) error {
	if d.Status != StatusPosted && d.Status != StatusProofed {
		return nil
	}
	d.Status = StatusProofed
	return s.repo.UpdateDeliverable(d)
}

func (s *Service) AddComment(orgID string, d *models.Deliverable, author, body, actor string) (*models.DeliverableComment, error) {
	c := &models.DeliverableComment{
		ID:            "cmt_" + uuid.NewString(),
		DeliverableID: d.ID,
		Author:        author,
		Body:          body,
		CreatedAt:     s.now().Unix(),
	}
	if err := s.repo.CreateComment(c); err != nil {
		return nil, err
	}

	if actor != "" {
		s.audit.Record(audit.Entry{
			OrgID: orgID, DealID: d.DealID,
			EntityType: "deliverable", EntityID: c.ID, Action: "commented",
			Summary: "Comment on deliverable: " + d.Title, Actor: actor,
		})
	}
	return c, nil
}

type BrandKitUpdate struct {
	GuidelinesMD string   `json:"guidelines_md"`
	Hashtags     []string `json:"hashtags"`
	RequiredTags []string `json:"required_tags"`
	Do           []string `json:"do"`
	Dont         []string `json:"dont"`
	Assets       []string `json:"assets"`
}

// GetOrCreateBrandKit returns the deal's brand kit, creating an empty one
// on first read.
func (s *Service) GetOrCreateBrandKit(deal *models.Deal) (*models.BrandKit, error) {
	bk, err := s.repo.GetBrandKit(deal.ID)
	if err != nil {
		return nil, err
	}
	if bk != nil {
		return bk, nil
	}

	bk = &models.BrandKit{
		ID:           "bk_" + uuid.NewString(),
		DealID:       deal.ID,
		Hashtags:     []string{},
		RequiredTags: []string{},
		Do:           []string{},
		Dont:         []string{},
		Assets:       []string{},
		UpdatedAt:    s.now().Unix(),
	}
	if err := s.repo.UpsertBrandKit(bk); err != nil {
		return nil, err
	}
	return bk, nil
}

func (s *Service) UpdateBrandKit(deal *models.Deal, upd BrandKitUpdate, actor string) (*models.BrandKit, error) {
	bk, err := s.GetOrCreateBrandKit(deal)
	if err != nil {
		return nil, err
	}

	bk.GuidelinesMD = upd.GuidelinesMD
	bk.Hashtags = orEmpty(upd.Hashtags)
	bk.RequiredTags = orEmpty(upd.RequiredTags)
	bk.Do = orEmpty(upd.Do)
	bk.Dont = orEmpty(upd.Dont)
	bk.Assets = orEmpty(upd.Assets)
	bk.UpdatedAt = s.now().Unix()

	if err := s.repo.UpsertBrandKit(bk); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "brandkit", EntityID: bk.ID, Action: "updated",
		Summary: "BrandKit updated", Actor: actor,
	})
	return bk, nil
}

func orEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
