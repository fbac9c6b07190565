package entitlements

import (
	"errors"
	"strings"
	"time"

	"resumemind-api/internal/shared/auth"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanStarter Plan = "STARTER"
	PlanPro     Plan = "PRO"
)

// Feature identifiers gated by plan.
const (
	FeatureAudit          = "audit"
	FeatureBuilder        = "builder"
	FeatureCoverLetter    = "coverLetter"
	FeatureInterviewGuide = "interviewGuide"
	FeatureLinkedInPosts  = "linkedinPosts"
	FeatureCheatSheet     = "cheatSheet"
	FeatureCareerPath     = "careerPath"
	FeatureSalaryAnalyzer = "salaryAnalyzer"
	FeatureTranslation    = "translation"
)

// PassDuration is how long a purchased pass lasts.
const PassDuration = 30 * 24 * time.Hour

var (
	ErrLoginRequired   = auth.ErrLoginRequired
	ErrUpgradeRequired = errors.New("upgrade required")
	ErrUnknownPlan     = errors.New("unknown plan")
)

// FeatureLockedError names the plan a locked feature needs.
type FeatureLockedError struct {
	Feature  string
	Required Plan
}

func (e *FeatureLockedError) Error() string {
	return "feature " + e.Feature + " requires " + string(e.Required)
}

func (e *FeatureLockedError) Unwrap() error { return ErrUpgradeRequired }

// Entitlements describes what a plan allows.
type Entitlements struct {
	Plan               Plan     `json:"plan"`
	ExportLimitPerDay  int      `json:"exportLimitPerDay"`
	WatermarkOnExports bool     `json:"watermarkOnExports"`
	Features           []string `json:"features"`
}

var guestFeatures = map[string]bool{
	FeatureAudit:   true,
	FeatureBuilder: true,
}

var table = map[Plan]Entitlements{
	PlanFree: {
		Plan:               PlanFree,
		ExportLimitPerDay:  1,
		WatermarkOnExports: true,
		Features:           []string{FeatureAudit, FeatureBuilder, FeatureCoverLetter},
	},
	PlanStarter: {
		Plan:               PlanStarter,
		ExportLimitPerDay:  5,
		WatermarkOnExports: true,
		Features: []string{
			FeatureAudit, FeatureBuilder, FeatureCoverLetter,
			FeatureInterviewGuide, FeatureLinkedInPosts, FeatureCheatSheet,
		},
	},
	PlanPro: {
		Plan:               PlanPro,
		ExportLimitPerDay:  25,
		WatermarkOnExports: false,
		Features: []string{
			FeatureAudit, FeatureBuilder, FeatureCoverLetter,
			FeatureInterviewGuide, FeatureLinkedInPosts, FeatureCheatSheet,
			FeatureCareerPath, FeatureSalaryAnalyzer, FeatureTranslation,
		},
	},
}

var rank = map[Plan]int{PlanFree: 0, PlanStarter: 1, PlanPro: 2}

// ParsePlan normalizes a plan name. Unknown values return ErrUnknownPlan.
func ParsePlan(raw string) (Plan, error) {
	p := Plan(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := table[p]; !ok {
		return "", ErrUnknownPlan
	}
	return p, nil
}

// IsPaid reports whether p is a purchasable pass.
func IsPaid(p Plan) bool {
	return p == PlanStarter || p == PlanPro
}

// Rank orders plans by tier.
func Rank(p Plan) int {
	return rank[p]
}

// For returns the entitlements of p. Unknown plans fall back to FREE.
func For(p Plan) Entitlements {
	e, ok := table[p]
	if !ok {
		e = table[PlanFree]
	}
	e.Features = append([]string(nil), e.Features...)
	return e
}

// EffectivePlan returns FREE for a paid plan whose pass has lapsed.
func EffectivePlan(plan Plan, paidUntil *time.Time, now time.Time) Plan {
	if !IsPaid(plan) {
		return PlanFree
	}
	if paidUntil == nil || !paidUntil.After(now) {
		return PlanFree
	}
	return plan
}

// ExportDecision returns whether an export gets watermarked.
func ExportDecision(plan Plan, requested *bool) bool {
	if For(plan).WatermarkOnExports {
		return true
	}
	return requested != nil && *requested
}

// Allows reports whether plan includes feature.
func Allows(plan Plan, feature string) bool {
	for _, f := range For(plan).Features {
		if f == feature {
			return true
		}
	}
	return false
}

// CheckFeature returns ErrLoginRequired for guests outside the guest set and
// ErrUpgradeRequired when the plan does not include the feature.
func CheckFeature(plan Plan, isGuest bool, feature string) error {
	if isGuest {
		if guestFeatures[feature] {
			return nil
		}
		return ErrLoginRequired
	}
	if !Allows(plan, feature) {
		return &FeatureLockedError{Feature: feature, Required: MinimumPlan(feature)}
	}
	return nil
}

// MinimumPlan returns the lowest plan that includes feature.
func MinimumPlan(feature string) Plan {
	for _, p := range []Plan{PlanFree, PlanStarter, PlanPro} {
		if Allows(p, feature) {
			return p
		}
	}
	return PlanPro
}
