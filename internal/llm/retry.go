package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"resumemind-api/internal/shared/metrics"
	"resumemind-api/internal/shared/telemetry"
)

const retryBaseDelay = 300 * time.Millisecond

// Retrying wraps a provider with one retry on transient failures and one
// repair round when the output fails schema validation.
type Retrying struct {
	Base     Client
	Provider string
	Metrics  *metrics.Prom
	Delay    time.Duration
}

// NewRetrying wraps base. A nil base yields the Placeholder client.
func NewRetrying(base Client, provider string, prom *metrics.Prom) *Retrying {
	if base == nil {
		base = Placeholder{}
	}
	return &Retrying{Base: base, Provider: provider, Metrics: prom, Delay: retryBaseDelay}
}

// Complete implements Client.
func (r *Retrying) Complete(ctx context.Context, prompt Prompt) (json.RawMessage, error) {
	start := time.Now()
	out, result, err := r.complete(ctx, prompt)
	r.Metrics.ObserveLLM(prompt.Feature, r.Provider, result, time.Since(start))
	if err != nil && !errors.Is(err, ErrInvalidOutput) && !errors.Is(err, ErrNotConfigured) && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return out, err
}

func (r *Retrying) complete(ctx context.Context, prompt Prompt) (json.RawMessage, string, error) {
	raw, err := r.call(ctx, prompt)
	if err != nil {
		return nil, "error", err
	}
	problems, err := Validate(prompt.Feature, raw)
	if err != nil {
		return nil, "error", err
	}
	if len(problems) == 0 {
		return raw, "ok", nil
	}

	telemetry.Warn("llm.output_invalid", map[string]any{
		"feature":  prompt.Feature,
		"provider": r.Provider,
		"problems": strings.Join(problems, "; "),
	})
	fix, err := fixJSONPrompt(prompt, raw, problems)
	if err != nil {
		return nil, "error", err
	}
	raw, err = r.call(ctx, fix)
	if err != nil {
		return nil, "error", err
	}
	problems, err = Validate(prompt.Feature, raw)
	if err != nil {
		return nil, "error", err
	}
	if len(problems) > 0 {
		return nil, "invalid", fmt.Errorf("%w: %s", ErrInvalidOutput, strings.Join(problems, "; "))
	}
	return raw, "repaired", nil
}

func (r *Retrying) call(ctx context.Context, prompt Prompt) (json.RawMessage, error) {
	raw, err := r.Base.Complete(ctx, prompt)
	if err == nil || !ShouldRetry(err) {
		return raw, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"feature":  prompt.Feature,
		"provider": r.Provider,
		"attempt":  1,
		"error":    err.Error(),
	})
	select {
	case <-time.After(r.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return r.Base.Complete(ctx, prompt)
}

// ShouldRetry reports whether err looks transient.
func ShouldRetry(err error) bool {
	if err == nil || errors.Is(err, ErrNotConfigured) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "http status 429") || strings.Contains(msg, "server_error") {
		return true
	}
	for _, s := range []string{"timeout", "connection reset", "connection refused", "broken pipe", "unexpected eof"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
