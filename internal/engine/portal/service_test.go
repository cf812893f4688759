package portal

import (
	stderrors "errors"
	"testing"
	"time"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/models"
)

type fakeSponsors struct {
	items   []*models.Sponsor
	updates int
}

func (f *fakeSponsors) GetByPortalToken(token string) (*models.Sponsor, error) {
	for _, s := range f.items {
		if s.PortalToken == token {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeSponsors) Update(s *models.Sponsor) error {
	f.updates++
	return nil
}

type fakeDeals struct {
	items   []*models.Deal
	updates int
}

func (f *fakeDeals) GetByPortalToken(token string) (*models.Deal, error) {
	for _, d := range f.items {
		if d.PortalToken == token {
			return d, nil
		}
	}
	return nil, nil
}

func (f *fakeDeals) UpdatePortalToken(d *models.Deal) error {
	f.updates++
	return nil
}

func i64(v int64) *int64 { return &v }

func newTestService(sponsors *fakeSponsors, deals *fakeDeals) *Service {
	svc := NewService(sponsors, deals)
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestValidateDeal(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		deal  *models.Deal
		token string
		ok    bool
	}{
		{
			name:  "Valid",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok", PortalTokenExpiresAt: i64(now.Add(time.Hour).Unix())},
			token: "tok",
			ok:    true,
		},
		{
			name:  "No Expiry",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok"},
			token: "tok",
			ok:    true,
		},
		{
			name:  "Unknown Token",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok"},
			token: "other",
			ok:    false,
		},
		{
			name:  "Empty Token",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok"},
			token: "",
			ok:    false,
		},
		{
			name:  "Revoked",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok", PortalTokenRevoked: true},
			token: "tok",
			ok:    false,
		},
		{
			name:  "Expired",
			deal:  &models.Deal{ID: "deal_1", PortalToken: "tok", PortalTokenExpiresAt: i64(now.Add(-time.Hour).Unix())},
			token: "tok",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deals := &fakeDeals{items: []*models.Deal{tt.deal}}
			svc := newTestService(&fakeSponsors{}, deals)

			deal, err := svc.ValidateDeal(tt.token)
			if tt.ok {
				if err != nil || deal == nil {
					t.Fatalf("Expected valid token, got %v, %v", deal, err)
				}
			} else {
				if !stderrors.Is(err, errors.ErrNotFound) {
					t.Fatalf("Expected not found, got %v", err)
				}
			}
			if deals.updates != 0 {
				t.Error("Validation must not write")
			}
		})
	}
}

func TestValidateSponsor(t *testing.T) {
	sponsor := &models.Sponsor{ID: "spn_1", PortalToken: "s-tok"}
	sponsors := &fakeSponsors{items: []*models.Sponsor{sponsor}}
	svc := newTestService(sponsors, &fakeDeals{})

	got, err := svc.ValidateSponsor("s-tok")
	if err != nil || got.ID != "spn_1" {
		t.Fatalf("Expected sponsor, got %v, %v", got, err)
	}

	sponsor.PortalTokenRevoked = true
	if _, err := svc.ValidateSponsor("s-tok"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Expected not found for revoked token, got %v", err)
	}
	if sponsors.updates != 0 {
		t.Error("Validation must not write")
	}
}

func TestRotateDeal(t *testing.T) {
	deal := &models.Deal{
		ID:                 "deal_1",
		EndDate:            "2025-02-01",
		PortalToken:        "old-tok",
		PortalTokenRevoked: true,
	}
	deals := &fakeDeals{items: []*models.Deal{deal}}
	svc := newTestService(&fakeSponsors{}, deals)

	if err := svc.RotateDeal(deal); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}
	if deal.PortalToken == "old-tok" || deal.PortalToken == "" {
		t.Errorf("Expected a fresh token, got %q", deal.PortalToken)
	}
	if deal.PortalTokenRevoked {
		t.Error("Rotate must clear the revoked flag")
	}
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC).Unix()
	if deal.PortalTokenExpiresAt == nil || *deal.PortalTokenExpiresAt != want {
		t.Errorf("Expected expiry %d, got %v", want, deal.PortalTokenExpiresAt)
	}
	if deals.updates != 1 {
		t.Errorf("Expected one persist, got %d", deals.updates)
	}

	// the old token no longer resolves
	if _, err := svc.ValidateDeal("old-tok"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Expected old token dead after rotate, got %v", err)
	}
}

func TestRevokeThenRotateSponsor(t *testing.T) {
	sponsor := &models.Sponsor{ID: "spn_1", PortalToken: "s-tok"}
	sponsors := &fakeSponsors{items: []*models.Sponsor{sponsor}}
	svc := newTestService(sponsors, &fakeDeals{})

	if err := svc.RevokeSponsor(sponsor); err != nil {
		t.Fatalf("Failed to revoke: %v", err)
	}
	if _, err := svc.ValidateSponsor("s-tok"); !stderrors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Expected revoked token rejected, got %v", err)
	}

	if err := svc.RotateSponsor(sponsor); err != nil {
		t.Fatalf("Failed to rotate: %v", err)
	}
	if sponsor.PortalTokenRevoked || sponsor.PortalToken == "s-tok" {
		t.Errorf("Expected fresh live token, got %q revoked=%v", sponsor.PortalToken, sponsor.PortalTokenRevoked)
	}
	want := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC).Add(180 * 24 * time.Hour).Unix()
	if sponsor.PortalTokenExpiresAt == nil || *sponsor.PortalTokenExpiresAt != want {
		t.Errorf("Expected 180-day expiry %d, got %v", want, sponsor.PortalTokenExpiresAt)
	}
}

func TestNewToken(t *testing.T) {
	a, b := NewToken(), NewToken()
	if a == b {
		t.Error("Tokens must be unique")
	}
	if len(a) < 20 {
		t.Errorf("Token looks too short: %q", a)
	}
}

func TestDealTokenExpiry_BadDate(t *testing.T) {
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	got := DealTokenExpiry("soon", now)
	want := now.Add(365 * 24 * time.Hour).Unix()
	if got != want {
		t.Errorf("Expected one-year fallback %d, got %d", want, got)
	}
}
