package users

import (
	"context"
	"strings"
	"time"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
)

type Service struct {
	Repo Repo
	Now  func() time.Time
}

func NewService(store docstore.Store) *Service {
	return &Service{Repo: Repo{Store: store}, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// Ensure returns the caller's record, creating a FREE one on first sight and
// refreshing profile fields for signed-in users.
func (s *Service) Ensure(ctx context.Context, p auth.Principal) (User, error) {
	key := p.CounterKey()
	if err := requireKey(key); err != nil {
		return User{}, err
	}
	u, err := s.Repo.Get(ctx, key)
	if err == nil && (p.IsGuest || (u.Email == p.Email && u.DisplayName == p.Name)) {
		return u, nil
	}
	if err != nil && !isNotFound(err) {
		return User{}, err
	}
	return s.Repo.Mutate(ctx, key, func(u *User, exists bool) error {
		if !exists || u.Plan == "" {
			u.Plan = entitlements.PlanFree
		}
		if !p.IsGuest {
			if email := strings.TrimSpace(p.Email); email != "" {
				u.Email = email
			}
			if name := strings.TrimSpace(p.Name); name != "" {
				u.DisplayName = name
			}
		}
		return nil
	})
}

// Get returns the record for key, or a zero FREE record when none exists.
func (s *Service) Get(ctx context.Context, key string) (User, error) {
	if err := requireKey(key); err != nil {
		return User{}, err
	}
	u, err := s.Repo.Get(ctx, key)
	if isNotFound(err) {
		return User{ID: key, Plan: entitlements.PlanFree}, nil
	}
	return u, err
}

// ConsumeExport reserves one export for today in a single transaction. The
// counter resets when the stored UTC day differs from today.
func (s *Service) ConsumeExport(ctx context.Context, key string, limit int, now time.Time) (User, error) {
	if err := requireKey(key); err != nil {
		return User{}, err
	}
	today := now.UTC().Format(DayLayout)
	return s.Repo.Mutate(ctx, key, func(u *User, exists bool) error {
		if !exists || u.Plan == "" {
			u.Plan = entitlements.PlanFree
		}
		if u.ExportDay != today {
			u.ExportDay = today
			u.ExportsToday = 0
		}
		if u.ExportsToday >= limit {
			return ErrExportLimitReached
		}
		u.ExportsToday++
		return nil
	})
}

// ReleaseExport gives back one export reserved today, e.g. after a failed render.
func (s *Service) ReleaseExport(ctx context.Context, key string, now time.Time) (User, error) {
	if err := requireKey(key); err != nil {
		return User{}, err
	}
	today := now.UTC().Format(DayLayout)
	return s.Repo.Mutate(ctx, key, func(u *User, exists bool) error {
		if !exists || u.Plan == "" {
			u.Plan = entitlements.PlanFree
		}
		if u.ExportDay == today && u.ExportsToday > 0 {
			u.ExportsToday--
		}
		return nil
	})
}

// ApplyPass extends the pass by 30 days from max(now, paidUntil). An active
// higher tier is kept.
func (s *Service) ApplyPass(ctx context.Context, key string, plan entitlements.Plan, now time.Time) (User, error) {
	if err := requireKey(key); err != nil {
		return User{}, err
	}
	if !entitlements.IsPaid(plan) {
		return User{}, entitlements.ErrUnknownPlan
	}
	now = now.UTC()
	return s.Repo.Mutate(ctx, key, func(u *User, exists bool) error {
		current := u.EffectivePlan(now)
		base := now
		if u.PaidUntil != nil && u.PaidUntil.After(now) {
			base = u.PaidUntil.UTC()
		}
		until := base.Add(entitlements.PassDuration)
		u.PaidUntil = &until
		if entitlements.Rank(current) > entitlements.Rank(plan) {
			u.Plan = current
		} else {
			u.Plan = plan
		}
		return nil
	})
}
