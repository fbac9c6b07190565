package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"time"

	"resumemind-api/internal/builders"
	"resumemind-api/internal/entitlements"
	"resumemind-api/internal/shared/auth"
	"resumemind-api/internal/shared/metrics"
	"resumemind-api/internal/shared/storage/object"
	"resumemind-api/internal/shared/telemetry"
	"resumemind-api/internal/shared/util"
	"resumemind-api/internal/users"
)

// LimitError reports an exhausted daily export allowance.
type LimitError struct {
	Limit    int
	ResetsAt time.Time
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("export limit of %d per day reached", e.Limit)
}

func (e *LimitError) Unwrap() error { return users.ErrExportLimitReached }

type BuilderLoader interface {
	Load(ctx context.Context, id string) (builders.Builder, error)
	Get(ctx context.Context, p auth.Principal, id string) (builders.Builder, error)
}

type Counter interface {
	Get(ctx context.Context, key string) (users.User, error)
	ConsumeExport(ctx context.Context, key string, limit int, now time.Time) (users.User, error)
	ReleaseExport(ctx context.Context, key string, now time.Time) (users.User, error)
}

type Service struct {
	Builders BuilderLoader
	Users    Counter
	Signer   *Signer
	Renderer Renderer
	Objects  object.ObjectStore
	Metrics  *metrics.Prom
	// BaseURL is where the renderer reaches the print route.
	BaseURL string
	Now     func() time.Time
}

// Export is a rendered PDF.
type Export struct {
	BuilderID string
	FileName  string
	Key       string
	Watermark bool
	PDF       []byte
}

// Usage is the caller's export allowance for today.
type Usage struct {
	Plan      entitlements.Plan `json:"plan"`
	Limit     int               `json:"limit"`
	Used      int               `json:"used"`
	ResetsAt  time.Time         `json:"resetsAt"`
	Watermark bool              `json:"watermark"`
}

// Export renders builder id to PDF for p. One export is reserved before
// rendering and released again when rendering fails.
func (s *Service) Export(ctx context.Context, p auth.Principal, id string, requestedWatermark *bool) (Export, error) {
	b, err := s.Builders.Get(ctx, p, id)
	if err != nil {
		return Export{}, err
	}
	now := s.now()
	key := p.CounterKey()
	u, err := s.Users.Get(ctx, key)
	if err != nil {
		return Export{}, err
	}
	plan := u.EffectivePlan(now)
	if p.IsGuest {
		plan = entitlements.PlanFree
	}
	ent := entitlements.For(plan)
	watermark := entitlements.ExportDecision(plan, requestedWatermark)

	if _, err := s.Users.ConsumeExport(ctx, key, ent.ExportLimitPerDay, now); err != nil {
		if errors.Is(err, users.ErrExportLimitReached) {
			s.Metrics.IncExport("limited")
			return Export{}, &LimitError{Limit: ent.ExportLimitPerDay, ResetsAt: users.NextReset(now)}
		}
		return Export{}, err
	}

	pdf, err := s.Renderer.RenderPDF(ctx, s.BaseURL+s.Signer.PrintPath(b.ID, watermark))
	if err != nil {
		s.release(key, now)
		s.Metrics.IncExport("render_error")
		telemetry.Error("export.render_failed", map[string]any{"builder_id": b.ID, "error": err.Error()})
		if !errors.Is(err, ErrRenderFailed) {
			err = errors.Join(ErrRenderFailed, err)
		}
		return Export{}, err
	}

	out := Export{
		BuilderID: b.ID,
		FileName:  fileName(b),
		Watermark: watermark,
		PDF:       pdf,
	}
	if s.Objects != nil {
		out.Key = path.Join("exports", util.HashUserKey(key), b.ID, strconv.FormatInt(now.UnixMilli(), 10)+".pdf")
		if _, err := s.Objects.SaveWithKey(ctx, out.Key, "application/pdf", bytes.NewReader(pdf)); err != nil {
			// the PDF is still returned; only the archived copy is missing
			telemetry.Warn("export.store_failed", map[string]any{"builder_id": b.ID, "error": err.Error()})
			out.Key = ""
		}
	}

	s.Metrics.IncExport("ok")
	telemetry.Info("export.rendered", map[string]any{
		"builder_id": b.ID,
		"plan":       string(plan),
		"watermark":  watermark,
		"bytes":      len(pdf),
	})
	return out, nil
}

// Usage reports today's allowance for p.
func (s *Service) Usage(ctx context.Context, p auth.Principal) (Usage, error) {
	now := s.now()
	u, err := s.Users.Get(ctx, p.CounterKey())
	if err != nil {
		return Usage{}, err
	}
	plan := u.EffectivePlan(now)
	if p.IsGuest {
		plan = entitlements.PlanFree
	}
	ent := entitlements.For(plan)
	return Usage{
		Plan:      plan,
		Limit:     ent.ExportLimitPerDay,
		Used:      u.ExportsUsed(now),
		ResetsAt:  users.NextReset(now),
		Watermark: ent.WatermarkOnExports,
	}, nil
}

// PrintPage verifies a signed print request and writes the HTML page.
func (s *Service) PrintPage(ctx context.Context, id, exp, wm, sig string, w *bytes.Buffer) error {
	watermark, err := s.Signer.Verify(id, exp, wm, sig)
	if err != nil {
		return err
	}
	b, err := s.Builders.Load(ctx, id)
	if err != nil {
		return err
	}
	return RenderHTML(w, b, watermark)
}

// release uses its own context: the request may already be canceled.
func (s *Service) release(key string, now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.Users.ReleaseExport(ctx, key, now); err != nil {
		telemetry.Error("export.release_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func fileName(b builders.Builder) string {
	return util.Slug(b.Resume.Basics.Name, "resume") + "-" + b.Template + ".pdf"
}
