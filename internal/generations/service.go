package generations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"resumemind-api/internal/audits"
	"resumemind-api/internal/builders"
	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/llm"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/storage/docstore"
	"resumemind-api/internal/shared/telemetry"
	"resumemind-api/internal/users"
)

type BuilderGetter interface {
	Get(ctx context.Context, p auth.Principal, id string) (builders.Builder, error)
}

type AuditGetter interface {
	Get(ctx context.Context, p auth.Principal, id string) (audits.Audit, error)
}

type UserGetter interface {
	Get(ctx context.Context, key string) (users.User, error)
}

type Service struct {
	Store    docstore.Store
	Builders BuilderGetter
	Audits   AuditGetter
	Users    UserGetter
	LLM      llm.Client
	Now      func() time.Time
}

func NewService(store docstore.Store, buildersSvc BuilderGetter, auditsSvc AuditGetter, usersSvc UserGetter, client llm.Client) *Service {
	return &Service{Store: store, Builders: buildersSvc, Audits: auditsSvc, Users: usersSvc, LLM: client, Now: time.Now}
}

// Authorize checks the caller's effective plan against the kind's feature.
func (s *Service) Authorize(ctx context.Context, p auth.Principal, kind Kind) error {
	if p.IsGuest {
		return entitlements.CheckFeature(entitlements.PlanFree, true, kind.Feature)
	}
	u, err := s.Users.Get(ctx, p.CounterKey())
	if err != nil {
		return err
	}
	return entitlements.CheckFeature(u.EffectivePlan(s.now()), false, kind.Feature)
}

// CreateForBuilder generates a builder-keyed document.
func (s *Service) CreateForBuilder(ctx context.Context, p auth.Principal, kind Kind, builderID string, in Input) (Generation, error) {
	if !kind.BuilderKeyed {
		return Generation{}, fmt.Errorf("%s is not builder-keyed", kind.Feature)
	}
	if err := s.Authorize(ctx, p, kind); err != nil {
		return Generation{}, err
	}
	b, err := s.Builders.Get(ctx, p, builderID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Generation{}, ErrBuilderMissing
		}
		return Generation{}, err
	}
	resumeJSON, err := json.MarshalIndent(b.Resume, "", "  ")
	if err != nil {
		return Generation{}, err
	}

	vars := map[string]string{"RESUME_JSON": string(resumeJSON)}
	input := map[string]any{}
	switch kind.Feature {
	case entitlements.FeatureCoverLetter:
		vars["COMPANY_NAME"] = in.CompanyName
		vars["TONE"] = fallback(in.Tone, "professional")
		vars["JOB_DESCRIPTION"] = fallback(in.JobDescription, b.JobDescription)
		input["companyName"] = in.CompanyName
		input["tone"] = vars["TONE"]
		setIf(input, "jobDescription", in.JobDescription)
	case entitlements.FeatureInterviewGuide:
		vars["JOB_DESCRIPTION"] = fallback(in.JobDescription, b.JobDescription)
		setIf(input, "jobDescription", in.JobDescription)
	case entitlements.FeatureLinkedInPosts:
		in.Count = postCount(in.Count)
		vars["COUNT"] = strconv.Itoa(in.Count)
		vars["TOPIC"] = fallback(in.Topic, "career highlights")
		input["count"] = in.Count
		setIf(input, "topic", in.Topic)
	case entitlements.FeatureTranslation:
		vars["LANGUAGE"] = in.Language
		input["language"] = in.Language
	}

	return s.generate(ctx, p, kind, vars, in, Generation{BuilderID: b.ID, AuditID: b.AuditID, Input: input})
}

// CreateStandalone generates a career path or salary estimate.
func (s *Service) CreateStandalone(ctx context.Context, p auth.Principal, kind Kind, in Input) (Generation, error) {
	if kind.BuilderKeyed {
		return Generation{}, fmt.Errorf("%s needs a builder", kind.Feature)
	}
	if err := s.Authorize(ctx, p, kind); err != nil {
		return Generation{}, err
	}

	background := ""
	auditID := strings.TrimSpace(in.AuditID)
	if auditID != "" {
		a, err := s.Audits.Get(ctx, p, auditID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return Generation{}, ErrAuditMissing
			}
			return Generation{}, err
		}
		background = a.ResumeText
	} else if strings.TrimSpace(in.ResumeText) != "" {
		text, err := audits.ValidateText(in.ResumeText)
		if err != nil {
			return Generation{}, err
		}
		background = text
	}

	vars := map[string]string{"BACKGROUND": fallback(background, "not provided")}
	input := map[string]any{}
	switch kind.Feature {
	case entitlements.FeatureCareerPath:
		if background == "" {
			return Generation{}, ErrSourceRequired
		}
		vars["GOAL"] = in.Goal
		input["goal"] = in.Goal
	case entitlements.FeatureSalaryAnalyzer:
		years := strconv.FormatFloat(in.YearsExperience, 'f', -1, 64)
		vars["ROLE"] = in.Role
		vars["LOCATION"] = in.Location
		vars["YEARS_EXPERIENCE"] = years
		input["role"] = in.Role
		input["location"] = in.Location
		input["yearsExperience"] = in.YearsExperience
	}

	return s.generate(ctx, p, kind, vars, in, Generation{AuditID: auditID, Input: input})
}

func (s *Service) generate(ctx context.Context, p auth.Principal, kind Kind, vars map[string]string, in Input, g Generation) (Generation, error) {
	prompt, err := llm.Render(kind.Feature, vars)
	if err != nil {
		return Generation{}, err
	}
	raw, err := s.LLM.Complete(ctx, prompt)
	if err != nil {
		return Generation{}, err
	}

	g.ID = uuid.NewString()
	g.OwnerID = p.OwnerID
	g.OwnerKind = p.OwnerKind()
	g.Kind = kind.Feature
	g.Content = kind.normalize(raw, in)

	fields, err := docstore.Encode(g)
	if err != nil {
		return Generation{}, err
	}
	rec, err := s.Store.Create(ctx, kind.Collection, docstore.Record{
		ID:        g.ID,
		OwnerID:   g.OwnerID,
		OwnerKind: g.OwnerKind,
		Fields:    fields,
	})
	if err != nil {
		return Generation{}, err
	}
	g.CreatedAt, g.UpdatedAt = rec.CreatedAt, rec.UpdatedAt

	telemetry.Info("generation.created", map[string]any{
		"kind":          kind.Feature,
		"generation_id": g.ID,
		"builder_id":    g.BuilderID,
		"owner_id":      g.OwnerID,
	})
	return g, nil
}

// Get loads a document of kind owned by p.
func (s *Service) Get(ctx context.Context, p auth.Principal, kind Kind, id string) (Generation, error) {
	rec, err := s.Store.Get(ctx, kind.Collection, id)
	if err != nil {
		return Generation{}, err
	}
	if err := auth.CheckOwner(p, rec.OwnerID, rec.OwnerKind); err != nil {
		return Generation{}, err
	}
	var g Generation
	if err := docstore.DecodeRecord(rec, &g); err != nil {
		return Generation{}, err
	}
	return g, nil
}

// ListForBuilder lists documents of kind generated from a builder owned by p.
func (s *Service) ListForBuilder(ctx context.Context, p auth.Principal, kind Kind, builderID string, limit, offset int) ([]Generation, error) {
	b, err := s.Builders.Get(ctx, p, builderID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrBuilderMissing
		}
		return nil, err
	}
	return s.list(ctx, kind, docstore.Query{
		OwnerID: b.OwnerID,
		Where:   map[string]any{"builderId": b.ID},
		Limit:   limit,
		Offset:  offset,
	})
}

// ListOwned lists the signed-in user's documents of kind.
func (s *Service) ListOwned(ctx context.Context, p auth.Principal, kind Kind, limit, offset int) ([]Generation, error) {
	if p.IsGuest {
		return nil, auth.ErrLoginRequired
	}
	return s.list(ctx, kind, docstore.Query{OwnerID: p.OwnerID, Limit: limit, Offset: offset})
}

func (s *Service) list(ctx context.Context, kind Kind, q docstore.Query) ([]Generation, error) {
	recs, err := s.Store.List(ctx, kind.Collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]Generation, 0, len(recs))
	for _, rec := range recs {
		var g Generation
		if err := docstore.DecodeRecord(rec, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func setIf(m map[string]any, key, val string) {
	if val = strings.TrimSpace(val); val != "" {
		m[key] = val
	}
}

func fallback(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return strings.TrimSpace(def)
}
