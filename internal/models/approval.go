package models

import "time"

// ApprovalMode distinguishes time-boxed approvals from permanent ones
type ApprovalMode string

const (
	ApprovalTemporary ApprovalMode = "temporary"
	ApprovalAlways    ApprovalMode = "always"
)

// ParseApprovalMode maps a free-form mode string onto a known mode.
// Anything other than "always" is treated as temporary.
func ParseApprovalMode(s string) ApprovalMode {
	if ApprovalMode(s) == ApprovalAlways {
		return ApprovalAlways
	}
	return ApprovalTemporary
}

// Approval is a parental override permitting a domain despite block rules.
// Temporary approvals carry ExpiresAt; permanent approvals leave it zero.
type Approval struct {
	Domain    string       `json:"domain"`
	Mode      ApprovalMode `json:"mode"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at,omitzero"`
}

// NewTemporaryApproval creates an approval valid for d starting at now
func NewTemporaryApproval(domain string, now time.Time, d time.Duration) Approval {
	return Approval{
		Domain:    domain,
		Mode:      ApprovalTemporary,
		CreatedAt: now,
		ExpiresAt: now.Add(d),
	}
}

// NewPermanentApproval creates an approval that never expires
func NewPermanentApproval(domain string, now time.Time) Approval {
	return Approval{
		Domain:    domain,
		Mode:      ApprovalAlways,
		CreatedAt: now,
	}
}

// IsPermanent returns true for approvals that never expire
func (a Approval) IsPermanent() bool {
	return a.Mode == ApprovalAlways
}

// Expired reports whether the approval is no longer valid at now (now >= ExpiresAt)
func (a Approval) Expired(now time.Time) bool {
	if a.IsPermanent() {
		return false
	}
	return !now.Before(a.ExpiresAt)
}

// Active is the inverse of Expired
func (a Approval) Active(now time.Time) bool {
	return !a.Expired(now)
}

// Remaining returns the time left before expiry, zero when expired.
// Permanent approvals report -1.
func (a Approval) Remaining(now time.Time) time.Duration {
	if a.IsPermanent() {
		return -1
	}
	if a.Expired(now) {
		return 0
	}
	return a.ExpiresAt.Sub(now)
}
