package audits

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/llm"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
	"resumemind-api/internal/shared/telemetry"
)

// CreateInput is the resume to audit.
type CreateInput struct {
	ResumeText string
	TargetRole string
	FileName   string
	FileKey    string
}

type Service struct {
	Store docstore.Store
	LLM   llm.Client
	Now   func() time.Time
}

func NewService(store docstore.Store, client llm.Client) *Service {
	return &Service{Store: store, LLM: client, Now: time.Now}
}

// ValidateText trims the resume and enforces the length bounds.
func ValidateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	n := utf8.RuneCountInString(text)
	switch {
	case n < MinResumeChars:
		return "", ErrResumeTooShort
	case n > MaxResumeChars:
		return "", ErrResumeTooLong
	}
	return text, nil
}

// Create scores the resume and stores the audit for p.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (Audit, error) {
	if err := entitlements.CheckFeature(entitlements.PlanFree, p.IsGuest, entitlements.FeatureAudit); err != nil {
		return Audit{}, err
	}
	text, err := ValidateText(in.ResumeText)
	if err != nil {
		return Audit{}, err
	}

	prompt, err := llm.Render(llm.FeatureAudit, map[string]string{
		"RESUME_TEXT": text,
		"TARGET_ROLE": fallback(in.TargetRole, "not specified"),
	})
	if err != nil {
		return Audit{}, err
	}
	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		return Audit{}, err
	}

	a := Audit{
		ID:         uuid.NewString(),
		OwnerID:    p.OwnerID,
		OwnerKind:  p.OwnerKind(),
		TargetRole: strings.TrimSpace(in.TargetRole),
		Source:     SourceText,
		FileName:   in.FileName,
		FileKey:    in.FileKey,
		ResumeText: text,
		Result:     NormalizeResult(raw),
	}
	if in.FileKey != "" {
		a.Source = SourceUpload
	}
	fields, err := docstore.Encode(a)
	if err != nil {
		return Audit{}, err
	}
	rec, err := s.Store.Create(ctx, Collection, docstore.Record{
		ID:        a.ID,
		OwnerID:   a.OwnerID,
		OwnerKind: a.OwnerKind,
		Fields:    fields,
	})
	if err != nil {
		return Audit{}, err
	}
	a.CreatedAt, a.UpdatedAt = rec.CreatedAt, rec.UpdatedAt

	telemetry.Info("audit.created", map[string]any{
		"audit_id": a.ID,
		"owner_id": a.OwnerID,
		"is_guest": p.IsGuest,
		"score":    a.Result.Score,
		"source":   a.Source,
	})
	return a, nil
}

// Get loads an audit and applies the ownership rules.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (Audit, error) {
	rec, err := s.Store.Get(ctx, Collection, id)
	if err != nil {
		return Audit{}, err
	}
	if err := auth.CheckOwner(p, rec.OwnerID, rec.OwnerKind); err != nil {
		return Audit{}, err
	}
	var a Audit
	if err := docstore.DecodeRecord(rec, &a); err != nil {
		return Audit{}, err
	}
	return a, nil
}

// List returns the signed-in user's audits, newest first.
func (s *Service) List(ctx context.Context, p auth.Principal, limit, offset int) ([]Summary, error) {
	if p.IsGuest {
		return nil, auth.ErrLoginRequired
	}
	recs, err := s.Store.List(ctx, Collection, docstore.Query{OwnerID: p.OwnerID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		var a Audit
		if err := docstore.DecodeRecord(rec, &a); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:         a.ID,
			TargetRole: a.TargetRole,
			FileName:   a.FileName,
			Score:      a.Result.Score,
			CreatedAt:  a.CreatedAt,
		})
	}
	return out, nil
}

func fallback(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
