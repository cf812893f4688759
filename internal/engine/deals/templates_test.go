package deals

import (
	stderrors "errors"
	"testing"

	"sponsorops/internal/pkg/errors"
)

func TestApplyTemplate(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	created, err := svc.ApplyTemplate(deal, TemplateValorantStandard, "staff@example.com")
	if err != nil {
		t.Fatalf("Failed to apply template: %v", err)
	}
	if created != 12 {
		t.Errorf("Expected 12 deliverables, got %d", created)
	}

	items, err := svc.repo.ListDeliverables(deal.ID, false)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(items) != 12 {
		t.Fatalf("Expected 12 stored deliverables, got %d", len(items))
	}

	byTitle := make(map[string]int, len(items))
	for i, d := range items {
		byTitle[d.Title] = i
		if d.Status != StatusDraft {
			t.Errorf("%s: expected draft, got %s", d.Title, d.Status)
		}
	}

	// due dates offset from the deal start of 2025-01-01
	checks := []struct {
		title      string
		due        string
		guaranteed bool
		approval   bool
	}{
		{"TikTok #1", "2025-01-04", true, false},
		{"Creator Integration #1", "2025-01-06", true, true},
		{"Discord Announcement", "2025-01-03", false, false},
		{"Monthly Recap Post", "2025-01-29", false, true},
	}
	for _, c := range checks {
		idx, ok := byTitle[c.title]
		if !ok {
			t.Errorf("Missing deliverable %q", c.title)
			continue
		}
		d := items[idx]
		if d.DueDate != c.due {
			t.Errorf("%s: expected due %s, got %s", c.title, c.due, d.DueDate)
		}
		if d.Guaranteed != c.guaranteed {
			t.Errorf("%s: expected guaranteed=%v", c.title, c.guaranteed)
		}
		if d.SponsorApprovalRequired != c.approval {
			t.Errorf("%s: expected sponsor_approval_required=%v", c.title, c.approval)
		}
	}
}

func TestApplyTemplate_Unknown(t *testing.T) {
	svc := newTestService(t)
	deal := seedDeal(t, svc)

	_, err := svc.ApplyTemplate(deal, "csgo_blitz", "staff@example.com")
	if !stderrors.Is(err, errors.ErrInvalidStatus) {
		t.Fatalf("Expected invalid status for unknown template, got %v", err)
	}
}
