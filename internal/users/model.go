package users

import (
	"errors"
	"time"

	"resumemind-api/internal/entitlements"
)

// Collection holds one record per signed-in user and per guest session.
const Collection = "users"

// DayLayout is the UTC calendar day used by the export counter.
const DayLayout = "2006-01-02"

var ErrExportLimitReached = errors.New("export limit reached")

// User is the plan and export-counter record.
type User struct {
	ID           string            `json:"id"`
	Email        string            `json:"email,omitempty"`
	DisplayName  string            `json:"displayName,omitempty"`
	Plan         entitlements.Plan `json:"plan"`
	PaidUntil    *time.Time        `json:"paidUntil,omitempty"`
	ExportDay    string            `json:"exportDay,omitempty"`
	ExportsToday int               `json:"exportsToday"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// EffectivePlan applies pass expiry.
func (u User) EffectivePlan(now time.Time) entitlements.Plan {
	return entitlements.EffectivePlan(u.Plan, u.PaidUntil, now)
}

// ExportsUsed returns the exports counted for the UTC day of now.
func (u User) ExportsUsed(now time.Time) int {
	if u.ExportDay != now.UTC().Format(DayLayout) {
		return 0
	}
	return u.ExportsToday
}

// NextReset returns the next UTC midnight after now.
func NextReset(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
