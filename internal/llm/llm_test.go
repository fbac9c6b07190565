package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type scriptedClient struct {
	outputs []string
	errs    []error
	prompts []Prompt
}

func (s *scriptedClient) Complete(_ context.Context, p Prompt) (json.RawMessage, error) {
	i := len(s.prompts)
	s.prompts = append(s.prompts, p)
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if i < len(s.outputs) {
		return json.RawMessage(s.outputs[i]), nil
	}
	return nil, errors.New("no scripted output")
}

func TestRenderReplacesPlaceholders(t *testing.T) {
	p, err := Render(FeatureAudit, map[string]string{
		"RESUME_TEXT": "  Jane Doe, Go engineer  ",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if p.Feature != FeatureAudit {
		t.Fatalf("unexpected feature %q", p.Feature)
	}
	if !strings.Contains(p.User, "Jane Doe, Go engineer") {
		t.Fatalf("resume text missing from prompt")
	}
	if strings.Contains(p.User, "{{") {
		t.Fatalf("unreplaced placeholder left in prompt: %s", p.User)
	}
	if !strings.Contains(p.System, "JSON") {
		t.Fatalf("system prompt should demand JSON")
	}
}

func TestRenderUnknownFeature(t *testing.T) {
	if _, err := Render("nope", nil); err == nil {
		t.Fatalf("expected error for unknown prompt")
	}
}

func TestEveryFeatureHasPromptAndSchema(t *testing.T) {
	features := []string{
		FeatureAudit, FeatureBuilder, FeatureCoverLetter, FeatureInterviewGuide, FeatureCheatSheet,
		FeatureLinkedInPosts, FeatureTranslation, FeatureCareerPath, FeatureSalaryAnalyzer,
	}
	all, err := loadSchemas()
	if err != nil {
		t.Fatalf("loadSchemas: %v", err)
	}
	for _, f := range features {
		if _, err := Render(f, nil); err != nil {
			t.Fatalf("Render(%s): %v", f, err)
		}
		if _, ok := all[f]; !ok {
			t.Fatalf("missing schema for %s", f)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		feature string
		raw     string
		ok      bool
	}{
		{name: "valid audit", feature: FeatureAudit, raw: `{"score":80,"summary":"good"}`, ok: true},
		{name: "missing summary", feature: FeatureAudit, raw: `{"score":80}`, ok: false},
		{name: "wrong type", feature: FeatureAudit, raw: `{"score":"high","summary":"x"}`, ok: false},
		{name: "not json", feature: FeatureAudit, raw: `score: 80`, ok: false},
		{name: "array", feature: "unknown", raw: `[1,2]`, ok: false},
		{name: "unknown feature object", feature: "unknown", raw: `{"a":1}`, ok: true},
		{name: "salary negative", feature: FeatureSalaryAnalyzer, raw: `{"currency":"INR","min":-1,"max":10}`, ok: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			problems, err := Validate(tt.feature, []byte(tt.raw))
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if (len(problems) == 0) != tt.ok {
				t.Fatalf("expected ok=%v, problems=%v", tt.ok, problems)
			}
		})
	}
}

func TestRetryingRetriesTransientErrorOnce(t *testing.T) {
	base := &scriptedClient{
		errs:    []error{fmt.Errorf("openai http status 503")},
		outputs: []string{"", `{"score":60,"summary":"ok"}`},
	}
	r := NewRetrying(base, "test", nil)
	r.Delay = 0

	out, err := r.Complete(context.Background(), Prompt{Feature: FeatureAudit, User: "x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if String(out, "summary", "") != "ok" {
		t.Fatalf("unexpected output %s", out)
	}
	if len(base.prompts) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(base.prompts))
	}
}

func TestRetryingDoesNotRetryPermanentErrors(t *testing.T) {
	base := &scriptedClient{errs: []error{ErrNotConfigured}}
	r := NewRetrying(base, "test", nil)
	r.Delay = 0

	_, err := r.Complete(context.Background(), Prompt{Feature: FeatureAudit})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if len(base.prompts) != 1 {
		t.Fatalf("expected a single call, got %d", len(base.prompts))
	}
}

func TestRetryingRepairsInvalidOutput(t *testing.T) {
	base := &scriptedClient{outputs: []string{`{"score":60}`, `{"score":60,"summary":"fixed"}`}}
	r := NewRetrying(base, "test", nil)

	out, err := r.Complete(context.Background(), Prompt{Feature: FeatureAudit, User: "x"})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if String(out, "summary", "") != "fixed" {
		t.Fatalf("unexpected output %s", out)
	}
	if len(base.prompts) != 2 {
		t.Fatalf("expected repair call, got %d calls", len(base.prompts))
	}
	repair := base.prompts[1]
	if repair.Feature != FeatureAudit || !strings.Contains(repair.User, `{"score":60}`) {
		t.Fatalf("repair prompt should carry the previous answer: %+v", repair)
	}
}

func TestRetryingGivesUpAfterRepair(t *testing.T) {
	base := &scriptedClient{outputs: []string{`nope`, `still nope`}}
	r := NewRetrying(base, "test", nil)

	_, err := r.Complete(context.Background(), Prompt{Feature: FeatureAudit})
	if !errors.Is(err, ErrInvalidOutput) {
		t.Fatalf("expected ErrInvalidOutput, got %v", err)
	}
}

func TestPlaceholder(t *testing.T) {
	if _, err := NewRetrying(nil, "none", nil).Complete(context.Background(), Prompt{}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: context.DeadlineExceeded, want: true},
		{err: context.Canceled, want: false},
		{err: errors.New("openai http status 500"), want: true},
		{err: errors.New("openai http status 400: bad request"), want: false},
		{err: errors.New("read: connection reset by peer"), want: true},
		{err: ErrInvalidOutput, want: false},
	}
	for _, tt := range tests {
		if got := ShouldRetry(tt.err); got != tt.want {
			t.Fatalf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryingWrapsProviderErrors(t *testing.T) {
	base := &scriptedClient{errs: []error{errors.New("openai http status 400: bad request")}}
	r := NewRetrying(base, "test", nil)

	_, err := r.Complete(context.Background(), Prompt{Feature: FeatureAudit})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}
