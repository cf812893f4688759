package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/platform/models"
)

const (
	KindOverdue = "overdue"
	KindDueSoon = "due_soon"
)

// DeliverableSource yields the open deliverables the synthesizer derives
// reminders from.
type DeliverableSource interface {
	OpenDeliverablesByOrg(orgID string) ([]*models.Deliverable, error)
}

type Service struct {
	repo         *Repository
	deliverables DeliverableSource
	now          func() time.Time
}

func NewService(repo *Repository, deliverables DeliverableSource) *Service {
	return &Service{repo: repo, deliverables: deliverables, now: time.Now}
}

func (s *Service) Repo() *Repository {
	return s.repo
}

// Sync derives overdue and due-soon reminders for one user from the org's
// open deliverables. The (kind, title) pair deduplicates against unread
// notifications, so a second sync with no deliverable changes creates
// nothing. Returns how many notifications were created.
func (s *Service) Sync(orgID, userID string, dueSoonDays int) (int, error) {
	if dueSoonDays <= 0 {
		dueSoonDays = 3
	}
	today := s.now().Format("2006-01-02")
	dueSoonUntil := s.now().AddDate(0, 0, dueSoonDays).Format("2006-01-02")

	unread, err := s.repo.ListUnread(orgID, userID)
	if err != nil {
		return 0, err
	}
	seen := make(map[[2]string]bool, len(unread))
	for _, n := range unread {
		seen[[2]string{n.Kind, n.Title}] = true
	}

	open, err := s.deliverables.OpenDeliverablesByOrg(orgID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, d := range open {
		// unparseable due dates never remind; "" would compare as overdue
		if _, err := time.Parse("2006-01-02", d.DueDate); err != nil {
			continue
		}
		var kind, title, body string
		switch {
		case d.DueDate < today:
			kind = KindOverdue
			title = "Overdue: " + d.Title
			body = fmt.Sprintf("Deliverable %s overdue (due %s).", d.ID, d.DueDate)
		case d.DueDate <= dueSoonUntil:
			kind = KindDueSoon
			title = "Due soon: " + d.Title
			body = fmt.Sprintf("Deliverable %s due %s.", d.ID, d.DueDate)
		default:
			continue
		}

		key := [2]string{kind, title}
		if seen[key] {
			continue
		}
		n := &models.Notification{
			ID:             "ntf_" + uuid.NewString(),
			OrganizationID: orgID,
			UserID:         userID,
			Kind:           kind,
			Title:          title,
			Body:           body,
			Link:           "/deals/" + d.DealID,
			CreatedAt:      s.now().Unix(),
		}
		if err := s.repo.Create(n); err != nil {
			return created, err
		}
		seen[key] = true
		created++
	}
	return created, nil
}
