package builders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"resumemind-api/internal/audits"
	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/llm"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
	"resumemind-api/internal/shared/telemetry"
)

// AuditGetter loads an audit with the ownership rules applied.
type AuditGetter interface {
	Get(ctx context.Context, p auth.Principal, id string) (audits.Audit, error)
}

type CreateInput struct {
	AuditID         string
	TargetRole      string
	ExperienceLevel string
	JobDescription  string
	Template        string
}

type UpdateInput struct {
	Template *string
	Resume   *Resume
}

type Service struct {
	Store  docstore.Store
	Audits AuditGetter
	LLM    llm.Client
}

func NewService(store docstore.Store, auditsSvc AuditGetter, client llm.Client) *Service {
	return &Service{Store: store, Audits: auditsSvc, LLM: client}
}

// Create generates a structured resume from an audit owned by p.
func (s *Service) Create(ctx context.Context, p auth.Principal, in CreateInput) (Builder, error) {
	if err := entitlements.CheckFeature(entitlements.PlanFree, p.IsGuest, entitlements.FeatureBuilder); err != nil {
		return Builder{}, err
	}
	template := strings.TrimSpace(in.Template)
	if template == "" {
		template = TemplateClassic
	}
	if !ValidTemplate(template) {
		return Builder{}, ErrInvalidTemplate
	}

	audit, err := s.Audits.Get(ctx, p, in.AuditID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Builder{}, ErrAuditNotFound
		}
		return Builder{}, err
	}

	prompt, err := llm.Render(llm.FeatureBuilder, map[string]string{
		"TARGET_ROLE":      in.TargetRole,
		"EXPERIENCE_LEVEL": fallback(in.ExperienceLevel, "not specified"),
		"JOB_DESCRIPTION":  fallback(in.JobDescription, "none"),
		"AUDIT_FEEDBACK":   auditFeedback(audit.Result),
		"RESUME_TEXT":      audit.ResumeText,
	})
	if err != nil {
		return Builder{}, err
	}
	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		return Builder{}, err
	}

	b := Builder{
		ID:              uuid.NewString(),
		OwnerID:         p.OwnerID,
		OwnerKind:       p.OwnerKind(),
		AuditID:         audit.ID,
		TargetRole:      strings.TrimSpace(in.TargetRole),
		ExperienceLevel: strings.TrimSpace(in.ExperienceLevel),
		JobDescription:  strings.TrimSpace(in.JobDescription),
		Template:        template,
		Resume:          NormalizeResume(raw),
	}
	fields, err := docstore.Encode(b)
	if err != nil {
		return Builder{}, err
	}
	rec, err := s.Store.Create(ctx, Collection, docstore.Record{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		OwnerKind: b.OwnerKind,
		Fields:    fields,
	})
	if err != nil {
		return Builder{}, err
	}
	b.CreatedAt, b.UpdatedAt = rec.CreatedAt, rec.UpdatedAt

	telemetry.Info("builder.created", map[string]any{
		"builder_id": b.ID,
		"audit_id":   b.AuditID,
		"owner_id":   b.OwnerID,
		"template":   b.Template,
	})
	return b, nil
}

// Load returns a builder without an ownership check. Callers must have
// authorized the request some other way, e.g. a signed print URL.
func (s *Service) Load(ctx context.Context, id string) (Builder, error) {
	rec, err := s.Store.Get(ctx, Collection, id)
	if err != nil {
		return Builder{}, err
	}
	var b Builder
	if err := docstore.DecodeRecord(rec, &b); err != nil {
		return Builder{}, err
	}
	return b, nil
}

// Get loads a builder owned by p.
func (s *Service) Get(ctx context.Context, p auth.Principal, id string) (Builder, error) {
	b, err := s.Load(ctx, id)
	if err != nil {
		return Builder{}, err
	}
	if err := auth.CheckOwner(p, b.OwnerID, b.OwnerKind); err != nil {
		return Builder{}, err
	}
	return b, nil
}

// List returns the signed-in user's builders, newest first.
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
		var b Builder
		if err := docstore.DecodeRecord(rec, &b); err != nil {
			return nil, err
		}
		out = append(out, Summary{
			ID:         b.ID,
			AuditID:    b.AuditID,
			TargetRole: b.TargetRole,
			Template:   b.Template,
			Name:       b.Resume.Basics.Name,
			CreatedAt:  b.CreatedAt,
			UpdatedAt:  b.UpdatedAt,
		})
	}
	return out, nil
}

// Update changes the template and/or the resume of a builder owned by p.
func (s *Service) Update(ctx context.Context, p auth.Principal, id string, in UpdateInput) (Builder, error) {
	if in.Template == nil && in.Resume == nil {
		return Builder{}, ErrNothingToUpdate
	}
	if in.Template != nil && !ValidTemplate(strings.TrimSpace(*in.Template)) {
		return Builder{}, ErrInvalidTemplate
	}
	if in.Resume != nil {
		filled := fillEmpty(*in.Resume)
		if err := validateResume(filled); err != nil {
			return Builder{}, err
		}
		in.Resume = &filled
	}

	var out Builder
	rec, err := s.Store.Mutate(ctx, Collection, id, func(rec *docstore.Record, exists bool) error {
		if !exists {
			return docstore.ErrNotFound
		}
		if err := auth.CheckOwner(p, rec.OwnerID, rec.OwnerKind); err != nil {
			return err
		}
		var b Builder
		if err := docstore.DecodeRecord(*rec, &b); err != nil {
			return err
		}
		if in.Template != nil {
			b.Template = strings.TrimSpace(*in.Template)
		}
		if in.Resume != nil {
			b.Resume = *in.Resume
		}
		fields, err := docstore.Encode(b)
		if err != nil {
			return err
		}
		rec.Fields = fields
		out = b
		return nil
	})
	if err != nil {
		return Builder{}, err
	}
	out.UpdatedAt = rec.UpdatedAt
	return out, nil
}

func validateResume(r Resume) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	problems, err := llm.Validate(llm.FeatureBuilder, raw)
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.Basics.Name) == "" {
		problems = append(problems, "basics.name is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidResume, strings.Join(problems, "; "))
	}
	return nil
}

func fillEmpty(r Resume) Resume {
	if r.Basics.Links == nil {
		r.Basics.Links = []string{}
	}
	if r.Experience == nil {
		r.Experience = []Experience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Projects == nil {
		r.Projects = []Project{}
	}
	for i := range r.Experience {
		if r.Experience[i].Bullets == nil {
			r.Experience[i].Bullets = []string{}
		}
	}
	return r
}

func auditFeedback(r audits.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Score: %d/100\n%s\n", r.Score, r.Summary)
	for _, imp := range r.Improvements {
		b.WriteString("- ")
		b.WriteString(imp)
		b.WriteString("\n")
	}
	if len(r.Keywords) > 0 {
		b.WriteString("Keywords: ")
		b.WriteString(strings.Join(r.Keywords, ", "))
	}
	return b.String()
}

func fallback(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
