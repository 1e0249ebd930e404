package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"genforge-core/internal/domain/entity"
	"genforge-core/internal/domain/repository"

	"go.uber.org/zap"
)

// maxDefaultedShare is the largest fraction of the required fields the
// sanitizer may fill in before an attempt counts as a validation failure.
const maxDefaultedShare = 0.5

type callFunc func(ctx context.Context, prompt string, req entity.GenerationRequest) (map[string]any, error)

// Tier binds one provider to its place in the fallback chain. Build it with
// NewStructuredTier or NewTextTier. The chain consults Probe for the primary
// tier only.
type Tier struct {
	Profile entity.ProviderProfile
	Probe   repository.Prober
	call    callFunc
}

// Configured reports whether the tier has a provider behind it.
func (t Tier) Configured() bool {
	return t.call != nil
}

// NewStructuredTier serves a provider that returns parsed payloads directly.
func NewStructuredTier(profile entity.ProviderProfile, p repository.StructuredProvider, probe repository.Prober) Tier {
	return Tier{
		Profile: profile,
		Probe:   probe,
		call: func(ctx context.Context, prompt string, req entity.GenerationRequest) (map[string]any, error) {
			data, err := p.GenerateStructured(ctx, prompt, req.Schema, req.SystemMessage)
			if err != nil {
				return nil, err
			}
			if data == nil {
				return nil, fmt.Errorf("%w: provider returned no object", entity.ErrParseFailure)
			}
			return data, nil
		},
	}
}

// TextOptions tune free-text providers.
type TextOptions struct {
	Temperature float32
	MaxTokens   int
}

// DefaultTextOptions are used when a text tier is built with zero options.
var DefaultTextOptions = TextOptions{Temperature: 0.3, MaxTokens: 4096}

// NewTextTier serves a provider that returns free text; the first JSON object
// in the text becomes the payload.
func NewTextTier(profile entity.ProviderProfile, p repository.TextProvider, probe repository.Prober, opts TextOptions) Tier {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultTextOptions.MaxTokens
	}
	return Tier{
		Profile: profile,
		Probe:   probe,
		call: func(ctx context.Context, prompt string, req entity.GenerationRequest) (map[string]any, error) {
			if req.SystemMessage != "" {
				prompt = req.SystemMessage + "\n\n" + prompt
			}
			text, err := p.GenerateText(ctx, prompt, opts.Temperature, opts.MaxTokens)
			if err != nil {
				return nil, err
			}
			return ExtractJSONObject(text)
		},
	}
}

// TierOutcome summarizes one tier run.
type TierOutcome struct {
	Success      bool
	Data         map[string]any
	Confidence   float64
	AttemptsUsed int
	FastFailed   bool
	History      []entity.AttemptRecord
	LastErr      error
}

// TierExecutor runs a single tier through its bounded retry loop.
type TierExecutor struct {
	logger    *zap.Logger
	metrics   repository.MetricsRecorder
	baseDelay time.Duration
}

func NewTierExecutor(logger *zap.Logger, metrics repository.MetricsRecorder, baseDelay time.Duration) *TierExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &TierExecutor{logger: logger, metrics: metrics, baseDelay: baseDelay}
}

// Execute tries the tier up to maxRetries times. It stops early on an accepted
// payload, on a non-retryable failure such as rejected credentials, or when
// the caller cancels ctx.
func (e *TierExecutor) Execute(ctx context.Context, tier Tier, req entity.GenerationRequest, maxRetries int) TierOutcome {
	var out TierOutcome
	if maxRetries < 1 {
		maxRetries = 1
	}
	label := tier.Profile.Tier

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			out.LastErr = err
			return out
		}

		start := time.Now()
		data, confidence, err := e.attempt(ctx, tier, req, attempt)
		latency := time.Since(start).Milliseconds()

		outcome := entity.Classify(err)
		record := entity.AttemptRecord{Tier: label, Number: attempt, Outcome: outcome, LatencyMs: latency}
		if err != nil {
			record.Error = err.Error()
		}
		out.AttemptsUsed = attempt
		out.History = append(out.History, record)
		e.metrics.ObserveAttempt(label, outcome, latency)

		if err == nil {
			e.logger.Debug("attempt accepted",
				zap.String("tier", string(label)),
				zap.Int("attempt", attempt),
				zap.Float64("confidence", confidence),
				zap.Int64("latency_ms", latency),
			)
			out.Success = true
			out.Data = data
			out.Confidence = confidence
			return out
		}

		out.LastErr = err
		e.logger.Warn("attempt failed",
			zap.String("tier", string(label)),
			zap.String("provider", tier.Profile.Name),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.String("outcome", string(outcome)),
			zap.Int64("latency_ms", latency),
			zap.Error(err),
		)

		if ctx.Err() != nil {
			return out
		}
		if !entity.IsRetryable(err) {
			out.FastFailed = true
			return out
		}
		if attempt < maxRetries && !e.wait(ctx, attempt-1) {
			return out
		}
	}

	return out
}

// attempt performs one provider call and the sanitize, validate, score steps.
func (e *TierExecutor) attempt(ctx context.Context, tier Tier, req entity.GenerationRequest, n int) (map[string]any, float64, error) {
	timeout := req.Config.Timeout()
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	// cancel aborts the provider's in-flight request when the deadline wins.
	defer cancel()

	type reply struct {
		data map[string]any
		err  error
	}
	replies := make(chan reply, 1)
	prompt := BuildEnhancedPrompt(req, n)
	go func() {
		data, err := tier.call(attemptCtx, prompt, req)
		replies <- reply{data: data, err: err}
	}()

	var raw map[string]any
	select {
	case r := <-replies:
		if r.err != nil {
			return nil, 0, deadlineError(ctx, attemptCtx, r.err, timeout)
		}
		raw = r.data
	case <-attemptCtx.Done():
		return nil, 0, deadlineError(ctx, attemptCtx, attemptCtx.Err(), timeout)
	}

	data, sanitized := Sanitize(raw, req.Schema)
	if required := len(req.Schema.Required); required > 0 && float64(len(sanitized.Defaulted)) > maxDefaultedShare*float64(required) {
		return nil, 0, fmt.Errorf("%w: %d of %d required fields were missing or malformed",
			entity.ErrValidationFailure, len(sanitized.Defaulted), required)
	}
	if len(sanitized.Wrapped) > 0 || len(sanitized.Defaulted) > 0 {
		e.logger.Debug("payload sanitized",
			zap.String("tier", string(tier.Profile.Tier)),
			zap.Strings("wrapped", sanitized.Wrapped),
			zap.Strings("defaulted", sanitized.Defaulted),
		)
	}

	report := Validate(data, req.Schema)
	if !report.Passed {
		return nil, 0, fmt.Errorf("%w: %s", entity.ErrValidationFailure, report.Error())
	}

	confidence := Score(withoutFields(data, sanitized.Defaulted), tier.Profile.Tier)
	if confidence < req.Config.QualityThreshold {
		return nil, confidence, fmt.Errorf("%w: %.2f < %.2f", entity.ErrLowConfidence, confidence, req.Config.QualityThreshold)
	}
	return data, confidence, nil
}

// withoutFields returns data minus the named keys. Defaulted fields are not
// the provider's work and must not earn a completeness bonus.
func withoutFields(data map[string]any, fields []string) map[string]any {
	if len(fields) == 0 {
		return data
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	for _, f := range fields {
		delete(out, f)
	}
	return out
}

// deadlineError distinguishes a caller cancellation from the attempt deadline.
func deadlineError(parent, attemptCtx context.Context, err error, timeout time.Duration) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", entity.ErrTimeout, timeout)
	}
	return err
}

// wait sleeps for the backoff of the given retry index. It returns false if
// ctx ends first.
func (e *TierExecutor) wait(ctx context.Context, retry int) bool {
	d := e.calculateBackoff(retry)
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (e *TierExecutor) calculateBackoff(attempt int) time.Duration {
	backoff := float64(e.baseDelay) * float64(int(1)<<attempt)
	jitter := (rand.Float64() * 0.2) * backoff // 20% jitter
	return time.Duration(backoff + jitter)
}

type nopMetrics struct{}

func (nopMetrics) ObserveAttempt(entity.Tier, entity.Outcome, int64) {}
func (nopMetrics) ObserveProbe(entity.Tier, bool)                    {}
func (nopMetrics) ObserveResult(*entity.GenerationResult)            {}
