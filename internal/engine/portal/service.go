package portal

import (
	"time"

	"sponsorops/internal/pkg/errors"
	"sponsorops/internal/platform/models"
)

// SponsorSource and DealSource are the narrow slices of the repositories
// this component touches. Validation never writes; rotate and revoke are
// the only mutations.
type SponsorSource interface {
	GetByPortalToken(token string) (*models.Sponsor, error)
	Update(s *models.Sponsor) error
}

type DealSource interface {
	GetByPortalToken(token string) (*models.Deal, error)
	UpdatePortalToken(d *models.Deal) error
}

type Service struct {
	sponsors SponsorSource
	deals    DealSource
	now      func() time.Time
}

func NewService(sponsors SponsorSource, deals DealSource) *Service {
	return &Service{sponsors: sponsors, deals: deals, now: time.Now}
}

// ValidateSponsor resolves a sponsor token. Missing, revoked and expired
// tokens are indistinguishable: all fail ErrNotFound so external callers
// cannot probe for existence.
func (s *Service) ValidateSponsor(token string) (*models.Sponsor, error) {
	if token == "" {
		return nil, errors.ErrNotFound
	}
	sponsor, err := s.sponsors.GetByPortalToken(token)
	if err != nil {
		return nil, err
	}
	if sponsor == nil || !tokenUsable(sponsor.PortalTokenRevoked, sponsor.PortalTokenExpiresAt, s.now()) {
		return nil, errors.ErrNotFound
	}
	return sponsor, nil
}

func (s *Service) ValidateDeal(token string) (*models.Deal, error) {
	if token == "" {
		return nil, errors.ErrNotFound
	}
	deal, err := s.deals.GetByPortalToken(token)
	if err != nil {
		return nil, err
	}
	if deal == nil || !tokenUsable(deal.PortalTokenRevoked, deal.PortalTokenExpiresAt, s.now()) {
		return nil, errors.ErrNotFound
	}
	return deal, nil
}

// RevokeDeal is one-way; only RotateDeal brings the portal back.
func (s *Service) RevokeDeal(deal *models.Deal) error {
	deal.PortalTokenRevoked = true
	return s.deals.UpdatePortalToken(deal)
}

// RotateDeal replaces the token, clears the revoked flag and resets the
// expiry baseline. The previous token is permanently unusable.
func (s *Service) RotateDeal(deal *models.Deal) error {
	deal.PortalToken = NewToken()
	deal.PortalTokenRevoked = false
	expiry := DealTokenExpiry(deal.EndDate, s.now())
	deal.PortalTokenExpiresAt = &expiry
	return s.deals.UpdatePortalToken(deal)
}

func (s *Service) RevokeSponsor(sponsor *models.Sponsor) error {
	sponsor.PortalTokenRevoked = true
	return s.sponsors.Update(sponsor)
}

func (s *Service) RotateSponsor(sponsor *models.Sponsor) error {
	sponsor.PortalToken = NewToken()
	sponsor.PortalTokenRevoked = false
	expiry := SponsorTokenExpiry(s.now())
	sponsor.PortalTokenExpiresAt = &expiry
	return s.sponsors.Update(sponsor)
}
