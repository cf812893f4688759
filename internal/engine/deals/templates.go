package deals

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/models"
)

const TemplateValorantStandard = "valorant_standard"

type templateItem struct {
	title      string
	typ        string
	dayOffset  int
	guaranteed bool
	value      float64
}

// A standard month-long campaign: guaranteed launch content up front,
// then a steady drumbeat through day 28.
var valorantStandard = []templateItem{
	{"TikTok #1", "tiktok", 3, true, 300},
	{"Creator Integration #1", "integration", 5, true, 800},
	{"Discord Announcement", "discord", 2, false, 100},
	{"Stream Mention #1", "stream", 6, false, 150},
	{"TikTok #2", "tiktok", 10, false, 300},
	{"YouTube Shorts Cutdown", "shorts", 12, false, 250},
	{"Stream Mention #2", "stream", 13, false, 150},
	{"TikTok #3", "tiktok", 17, false, 300},
	{"Creator Integration #2", "integration", 19, false, 800},
	{"Discord Event (AMA/Viewparty)", "event", 21, false, 400},
	{"TikTok #4", "tiktok", 24, false, 300},
	{"Monthly Recap Post", "recap", 28, false, 250},
}

// ApplyTemplate seeds the deal with the named template's deliverables, due
// dates offset from the deal start. Integrations and recaps require
// sponsor approval.
func (s *Service) ApplyTemplate(deal *models.Deal, template, actor string) (int, error) {
	if template != TemplateValorantStandard {
		return 0, fmt.Errorf("%w: unknown template %q", errors.ErrInvalidStatus, template)
	}

	start, err := time.Parse("2006-01-02", deal.StartDate)
	if err != nil {
		start = s.now()
	}

	now := s.now().Unix()
	for _, item := range valorantStandard {
		value := item.value
		d := &models.Deliverable{
			ID:                      "dlv_" + uuid.NewString(),
			DealID:                  deal.ID,
			Title:                   item.title,
			Type:                    item.typ,
			DueDate:                 start.AddDate(0, 0, item.dayOffset).Format("2006-01-02"),
			Status:                  StatusDraft,
			SponsorApprovalRequired: item.typ == "integration" || item.typ == "recap",
			Guaranteed:              item.guaranteed,
			Value:                   &value,
			CreatedAt:               now,
		}
		if err := s.repo.CreateDeliverable(d); err != nil {
			return 0, err
		}
	}

	s.audit.Record(audit.Entry{
		OrgID: deal.OrganizationID, DealID: deal.ID,
		EntityType: "deal", EntityID: deal.ID, Action: "updated",
		Summary: fmt.Sprintf("Applied template: %s (%d deliverables)", template, len(valorantStandard)),
		Actor:   actor,
	})
	return len(valorantStandard), nil
}
