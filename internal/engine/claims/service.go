package claims

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/models"
)

const (
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusDenied    = "denied"
	StatusPaid      = "paid"
)

// transitions is the staff-driven claim state machine. submitted claims are
// decided one way or the other; approved claims settle as paid.
var transitions = map[string][]string{
	StatusSubmitted: {StatusApproved, StatusDenied},
	StatusApproved:  {StatusPaid},
}

func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	repo  *Repository
	audit *audit.Logger
	now   func() time.Time
}

func NewService(repo *Repository, auditLog *audit.Logger) *Service {
	return &Service{repo: repo, audit: auditLog, now: time.Now}
}

func (s *Service) Repo() *Repository {
	return s.repo
}

// CreateFromPortal files a guarantee claim for a deliverable. Only
// guaranteed deliverables are claimable; duplicates for the same
// deliverable are allowed.
func (s *Service) CreateFromPortal(deal *models.Deal, deliverable *models.Deliverable, reason, description string) (*models.Claim, error) {
	if !deliverable.Guaranteed {
		return nil, fmt.Errorf("%w: deliverable is not guaranteed", errors.ErrGuardViolation)
	}

	c := &models.Claim{
		ID:             "clm_" + uuid.NewString(),
		OrganizationID: deal.OrganizationID,
		DealID:         deal.ID,
		DeliverableID:  deliverable.ID,
		Reason:         reason,
		Description:    description,
		Status:         StatusSubmitted,
		CreatedAt:      s.now().Unix(),
	}
	if err := s.repo.Create(c); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: c.OrganizationID, DealID: c.DealID,
		EntityType: "claim", EntityID: c.ID, Action: "created",
		Summary: "Claim submitted: " + c.Reason, Actor: "sponsor",
	})
	return c, nil
}

type ClaimUpdate struct {
	Status       *string  `json:"status"`
	PayoutType   *string  `json:"payout_type"`
	PayoutAmount *float64 `json:"payout_amount"`
	Notes        *string  `json:"notes"`
}

// Update applies present fields; a status change must follow the
// transition table.
func (s *Service) Update(c *models.Claim, upd ClaimUpdate, actor string) (*models.Claim, error) {
	if upd.Status != nil && *upd.Status != c.Status {
		if !canTransition(c.Status, *upd.Status) {
			return nil, fmt.Errorf("%w: claim cannot go from %s to %s", errors.ErrInvalidStatus, c.Status, *upd.Status)
		}
		c.Status = *upd.Status
	}
	if upd.PayoutType != nil {
		c.PayoutType = *upd.PayoutType
	}
	if upd.PayoutAmount != nil {
		c.PayoutAmount = upd.PayoutAmount
	}
	if upd.Notes != nil {
		c.Notes = *upd.Notes
	}

	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: c.OrganizationID, DealID: c.DealID,
		EntityType: "claim", EntityID: c.ID, Action: "updated",
		Summary: "Claim updated: " + c.Status, Actor: actor,
	})
	return c, nil
}

type ClaimDecision struct {
	Status       string   `json:"status"`
	PayoutType   string   `json:"payout_type"`
	PayoutAmount *float64 `json:"payout_amount"`
	Notes        string   `json:"notes"`
}

// Decide resolves a submitted claim as approved or denied in one call,
// recording the payout terms alongside the decision.
func (s *Service) Decide(c *models.Claim, decision ClaimDecision, actor string) (*models.Claim, error) {
	if decision.Status != StatusApproved && decision.Status != StatusDenied {
		return nil, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, decision.Status)
	}
	if !canTransition(c.Status, decision.Status) {
		return nil, fmt.Errorf("%w: claim cannot go from %s to %s", errors.ErrInvalidStatus, c.Status, decision.Status)
	}

	c.Status = decision.Status
	c.PayoutType = decision.PayoutType
	c.PayoutAmount = decision.PayoutAmount
	c.Notes = decision.Notes

	if err := s.repo.Update(c); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: c.OrganizationID, DealID: c.DealID,
		EntityType: "claim", EntityID: c.ID, Action: "decided",
		Summary: "Claim " + c.Status + ": " + c.Reason, Actor: actor,
	})
	return c, nil
}

func (s *Service) Archive(c *models.Claim, actor string) error {
	if c.ArchivedAt != nil {
		return nil
	}
	ts := s.now().Unix()
	c.ArchivedAt = &ts
	if err := s.repo.Update(c); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: c.OrganizationID, DealID: c.DealID,
		EntityType: "claim", EntityID: c.ID, Action: "archived",
		Summary: "Claim archived", Actor: actor,
	})
	return nil
}

func (s *Service) Restore(c *models.Claim, actor string) error {
	if c.ArchivedAt == nil {
		return nil
	}
	c.ArchivedAt = nil
	if err := s.repo.Update(c); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: c.OrganizationID, DealID: c.DealID,
		EntityType: "claim", EntityID: c.ID, Action: "restored",
		Summary: "Claim restored", Actor: actor,
	})
	return nil
}
