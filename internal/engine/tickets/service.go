package tickets

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/models"
)

const (
	StatusOpen    = "open"
	StatusPending = "pending"
	StatusClosed  = "closed"

	// reply-driven hints, settable by the system rather than staff
	StatusWaitingOnSponsor = "waiting_on_sponsor"
	StatusWaitingOnTeam    = "waiting_on_team"

	SenderSponsor = "sponsor"
	SenderAdmin   = "admin"
)

var staffStatuses = map[string]bool{
	StatusOpen:    true,
	StatusPending: true,
	StatusClosed:  true,
}

var priorities = map[string]bool{
	"low":    true,
	"normal": true,
	"high":   true,
	"urgent": true,
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

// CreateFromPortal opens a ticket on behalf of a sponsor and records the
// body as the thread's first message.
func (s *Service) CreateFromPortal(sponsor *models.Sponsor, dealID, subject, body string) (*models.Ticket, error) {
	now := s.now().Unix()
	t := &models.Ticket{
		ID:             "tkt_" + uuid.NewString(),
		OrganizationID: sponsor.OrganizationID,
		SponsorID:      sponsor.ID,
		DealID:         dealID,
		Subject:        strings.TrimSpace(subject),
		Body:           strings.TrimSpace(body),
		Status:         StatusOpen,
		Priority:       "normal",
		LastReplyAt:    &now,
		CreatedAt:      now,
	}
	if err := s.repo.Create(t); err != nil {
		return nil, err
	}

	msg := &models.TicketMessage{
		ID:        "msg_" + uuid.NewString(),
		TicketID:  t.ID,
		Sender:    SenderSponsor,
		Message:   t.Body,
		CreatedAt: now,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: t.OrganizationID, DealID: t.DealID,
		EntityType: "ticket", EntityID: t.ID, Action: "created",
		Summary: "Ticket opened: " + t.Subject, Actor: "sponsor",
	})
	return t, nil
}

// ReplySponsor appends a sponsor message. A ticket parked on
// waiting_on_sponsor flips back to waiting_on_team.
func (s *Service) ReplySponsor(t *models.Ticket, message string) (*models.TicketMessage, error) {
	now := s.now().Unix()
	msg := &models.TicketMessage{
		ID:        "msg_" + uuid.NewString(),
		TicketID:  t.ID,
		Sender:    SenderSponsor,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	if t.Status == StatusWaitingOnSponsor {
		t.Status = StatusWaitingOnTeam
	}
	t.LastReplyAt = &now
	if err := s.repo.Update(t); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *Service) ReplyStaff(t *models.Ticket, message, actor string) (*models.TicketMessage, error) {
	now := s.now().Unix()
	msg := &models.TicketMessage{
		ID:        "msg_" + uuid.NewString(),
		TicketID:  t.ID,
		Sender:    SenderAdmin,
		Message:   message,
		CreatedAt: now,
	}
	if err := s.repo.CreateMessage(msg); err != nil {
		return nil, err
	}

	t.LastReplyAt = &now
	if err := s.repo.Update(t); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: t.OrganizationID, DealID: t.DealID,
		EntityType: "ticket", EntityID: t.ID, Action: "replied",
		Summary: "Reply on ticket: " + t.Subject, Actor: actor,
	})
	return msg, nil
}

type TicketUpdate struct {
	Subject  *string `json:"subject"`
	Body     *string `json:"body"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	SLADueAt *int64  `json:"sla_due_at"`
}

func (s *Service) Update(t *models.Ticket, upd TicketUpdate, actor string) (*models.Ticket, error) {
	if upd.Status != nil {
		if !staffStatuses[*upd.Status] {
			return nil, fmt.Errorf("%w: %q", errors.ErrInvalidStatus, *upd.Status)
		}
		t.Status = *upd.Status
	}
	if upd.Priority != nil {
		if !priorities[*upd.Priority] {
			return nil, fmt.Errorf("%w: priority %q", errors.ErrInvalidStatus, *upd.Priority)
		}
		t.Priority = *upd.Priority
	}
	if upd.Subject != nil {
		t.Subject = strings.TrimSpace(*upd.Subject)
	}
	if upd.Body != nil {
		t.Body = strings.TrimSpace(*upd.Body)
	}
	if upd.SLADueAt != nil {
		t.SLADueAt = upd.SLADueAt
	}

	if err := s.repo.Update(t); err != nil {
		return nil, err
	}

	s.audit.Record(audit.Entry{
		OrgID: t.OrganizationID, DealID: t.DealID,
		EntityType: "ticket", EntityID: t.ID, Action: "updated",
		Summary: "Ticket updated: " + t.Subject, Actor: actor,
	})
	return t, nil
}

func (s *Service) Archive(t *models.Ticket, actor string) error {
	if t.ArchivedAt != nil {
		return nil
	}
	ts := s.now().Unix()
	t.ArchivedAt = &ts
	if err := s.repo.Update(t); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: t.OrganizationID, DealID: t.DealID,
		EntityType: "ticket", EntityID: t.ID, Action: "archived",
		Summary: "Ticket archived: " + t.Subject, Actor: actor,
	})
	return nil
}

func (s *Service) Restore(t *models.Ticket, actor string) error {
	if t.ArchivedAt == nil {
		return nil
	}
	t.ArchivedAt = nil
	if err := s.repo.Update(t); err != nil {
		return err
	}

	s.audit.Record(audit.Entry{
		OrgID: t.OrganizationID, DealID: t.DealID,
		EntityType: "ticket", EntityID: t.ID, Action: "restored",
		Summary: "Ticket restored: " + t.Subject, Actor: actor,
	})
	return nil
}
