package entitlements

import (
	"errors"
	"testing"
	"time"
)

func TestTable(t *testing.T) {
	tests := []struct {
		plan      Plan
		limit     int
		watermark bool
		features  int
	}{
		{plan: PlanFree, limit: 1, watermark: true, features: 3},
		{plan: PlanStarter, limit: 5, watermark: true, features: 6},
		{plan: PlanPro, limit: 25, watermark: false, features: 9},
	}
	for _, tt := range tests {
		e := For(tt.plan)
		if e.ExportLimitPerDay != tt.limit || e.WatermarkOnExports != tt.watermark || len(e.Features) != tt.features {
			t.Fatalf("%s: unexpected entitlements %+v", tt.plan, e)
		}
	}
	if For("GOLD").Plan != PlanFree {
		t.Fatalf("unknown plan should fall back to FREE")
	}
}

func TestForReturnsCopy(t *testing.T) {
	e := For(PlanFree)
	e.Features[0] = "mutated"
	if For(PlanFree).Features[0] != FeatureAudit {
		t.Fatalf("table was mutated through returned slice")
	}
}

func TestEffectivePlan(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Second)

	tests := []struct {
		name      string
		plan      Plan
		paidUntil *time.Time
		want      Plan
	}{
		{name: "free", plan: PlanFree, want: PlanFree},
		{name: "active pro", plan: PlanPro, paidUntil: &future, want: PlanPro},
		{name: "expired pro", plan: PlanPro, paidUntil: &past, want: PlanFree},
		{name: "starter without date", plan: PlanStarter, want: PlanFree},
		{name: "expires exactly now", plan: PlanStarter, paidUntil: &now, want: PlanFree},
		{name: "garbage", plan: "GOLD", paidUntil: &future, want: PlanFree},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := EffectivePlan(tt.plan, tt.paidUntil, now); got != tt.want {
				t.Fatalf("EffectivePlan = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExportDecision(t *testing.T) {
	yes, no := true, false
	tests := []struct {
		plan      Plan
		requested *bool
		want      bool
	}{
		{plan: PlanFree, requested: &no, want: true},
		{plan: PlanStarter, requested: nil, want: true},
		{plan: PlanPro, requested: nil, want: false},
		{plan: PlanPro, requested: &no, want: false},
		{plan: PlanPro, requested: &yes, want: true},
	}
	for _, tt := range tests {
		if got := ExportDecision(tt.plan, tt.requested); got != tt.want {
			t.Fatalf("ExportDecision(%s) = %v, want %v", tt.plan, got, tt.want)
		}
	}
}

func TestCheckFeature(t *testing.T) {
	tests := []struct {
		name    string
		plan    Plan
		guest   bool
		feature string
		want    error
	}{
		{name: "guest audit", plan: PlanFree, guest: true, feature: FeatureAudit},
		{name: "guest builder", plan: PlanFree, guest: true, feature: FeatureBuilder},
		{name: "guest cover letter", plan: PlanFree, guest: true, feature: FeatureCoverLetter, want: ErrLoginRequired},
		{name: "free cover letter", plan: PlanFree, feature: FeatureCoverLetter},
		{name: "free interview guide", plan: PlanFree, feature: FeatureInterviewGuide, want: ErrUpgradeRequired},
		{name: "starter cheat sheet", plan: PlanStarter, feature: FeatureCheatSheet},
		{name: "starter translation", plan: PlanStarter, feature: FeatureTranslation, want: ErrUpgradeRequired},
		{name: "pro salary", plan: PlanPro, feature: FeatureSalaryAnalyzer},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := CheckFeature(tt.plan, tt.guest, tt.feature)
			if !errors.Is(err, tt.want) {
				t.Fatalf("CheckFeature = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckFeatureNamesRequiredPlan(t *testing.T) {
	err := CheckFeature(PlanFree, false, FeatureTranslation)
	var locked *FeatureLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("expected FeatureLockedError, got %v", err)
	}
	if locked.Required != PlanPro || locked.Feature != FeatureTranslation {
		t.Fatalf("unexpected locked error %+v", locked)
	}
}

func TestParsePlanAndMinimum(t *testing.T) {
	if p, err := ParsePlan(" pro "); err != nil || p != PlanPro {
		t.Fatalf("ParsePlan = %s, %v", p, err)
	}
	if _, err := ParsePlan("enterprise"); !errors.Is(err, ErrUnknownPlan) {
		t.Fatalf("expected ErrUnknownPlan, got %v", err)
	}
	if MinimumPlan(FeatureCheatSheet) != PlanStarter || MinimumPlan(FeatureTranslation) != PlanPro {
		t.Fatalf("unexpected minimum plans")
	}
	if Rank(PlanPro) <= Rank(PlanStarter) || Rank(PlanStarter) <= Rank(PlanFree) {
		t.Fatalf("unexpected ranks")
	}
}
