package portal

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

const (
	tokenBytes = 16

	dealTokenGrace    = 30 * 24 * time.Hour
	dealTokenFallback = 365 * 24 * time.Hour
	sponsorTokenTTL   = 180 * 24 * time.Hour
)

// NewToken returns an opaque capability string. Tokens carry no structure;
// validity lives entirely in the owning record.
func NewToken() string {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		panic("portal: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DealTokenExpiry is end_date + 30 days; if the end date does not parse,
// fall back to a year from now.
func DealTokenExpiry(endDate string, now time.Time) int64 {
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return now.Add(dealTokenFallback).Unix()
	}
	return end.Add(dealTokenGrace).Unix()
}

func SponsorTokenExpiry(now time.Time) int64 {
	return now.Add(sponsorTokenTTL).Unix()
}

// tokenUsable is the single validity rule: not revoked, and either no
// expiry or expiry in the future.
func tokenUsable(revoked bool, expiresAt *int64, now time.Time) bool {
	if revoked {
		return false
	}
	if expiresAt != nil && *expiresAt <= now.Unix() {
		return false
	}
	return true
}
