package usecase

import (
	"context"
	"time"

	"genforge-core/internal/domain/entity"
	"genforge-core/internal/domain/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ChainState is a state of the fallback chain.
type ChainState string

const (
	StateInit          ChainState = "INIT"
	StatePrimary       ChainState = "PRIMARY"
	StateSecondary     ChainState = "SECONDARY"
	StateDeterministic ChainState = "DETERMINISTIC"
	StateDone          ChainState = "DONE"
)

// FallbackChain escalates a request from the primary provider to the
// secondary provider and finally to the deterministic table. Tiers run one at
// a time; the chain holds no per-call state, so one value serves concurrent
// calls.
type FallbackChain struct {
	primary   Tier
	secondary Tier
	executor  *TierExecutor
	logger    *zap.Logger
	metrics   repository.MetricsRecorder
	baseDelay time.Duration
}

type ChainOption func(*FallbackChain)

func WithChainLogger(l *zap.Logger) ChainOption {
	return func(c *FallbackChain) { c.logger = l }
}

func WithChainMetrics(m repository.MetricsRecorder) ChainOption {
	return func(c *FallbackChain) { c.metrics = m }
}

// WithRetryBaseDelay sets the backoff base between attempts of one tier.
func WithRetryBaseDelay(d time.Duration) ChainOption {
	return func(c *FallbackChain) { c.baseDelay = d }
}

// NewFallbackChain wires the two provider tiers. A zero secondary Tier is
// allowed; the chain then escalates straight to the deterministic table.
func NewFallbackChain(primary, secondary Tier, opts ...ChainOption) *FallbackChain {
	c := &FallbackChain{
		primary:   primary,
		secondary: secondary,
		logger:    zap.NewNop(),
		metrics:   nopMetrics{},
		baseDelay: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.executor = NewTierExecutor(c.logger.Named("tier"), c.metrics, c.baseDelay)
	return c
}

// chainRun accumulates the state of one Generate call.
type chainRun struct {
	req      entity.GenerationRequest
	attempts int
	history  []entity.AttemptRecord
	result   *entity.GenerationResult
}

// Generate always produces a result for a valid request. The only error it
// returns is ctx.Err() when the caller cancels; the in-flight provider call is
// aborted and no further tiers are tried.
func (c *FallbackChain) Generate(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	start := time.Now()
	run := &chainRun{req: req}

	state := StateInit
	for state != StateDone {
		if err := ctx.Err(); err != nil {
			c.logger.Info("generation cancelled",
				zap.String("function", req.FunctionName),
				zap.String("state", string(state)),
				zap.Int("attempts", run.attempts),
			)
			return nil, err
		}

		next := c.step(ctx, state, run)
		if next != state {
			c.logger.Debug("chain transition",
				zap.String("function", req.FunctionName),
				zap.String("from", string(state)),
				zap.String("to", string(next)),
			)
		}
		state = next
	}

	result := run.result
	result.RequestID = uuid.NewString()
	result.History = run.history
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	c.metrics.ObserveResult(result)

	c.logger.Info("generation completed",
		zap.String("request_id", result.RequestID),
		zap.String("function", req.FunctionName),
		zap.String("provider", string(result.Provider)),
		zap.Int("attempts", result.Attempts),
		zap.Float64("confidence", result.Confidence),
		zap.Int64("processing_time_ms", result.ProcessingTimeMs),
	)
	return result, nil
}

func (c *FallbackChain) step(ctx context.Context, state ChainState, run *chainRun) ChainState {
	switch state {
	case StateInit:
		if !c.primary.Configured() {
			return c.skipPrimary()
		}
		if c.primary.Probe != nil {
			available := c.primary.Probe.Available(ctx)
			c.metrics.ObserveProbe(entity.TierPrimary, available)
			if !available {
				c.logger.Warn("primary provider unavailable, skipping",
					zap.String("provider", c.primary.Profile.Name),
				)
				return c.skipPrimary()
			}
		}
		return StatePrimary

	case StatePrimary:
		if c.runTier(ctx, c.primary, run) {
			return StateDone
		}
		return c.afterPrimary(run)

	case StateSecondary:
		if c.runTier(ctx, c.secondary, run) {
			return StateDone
		}
		return StateDeterministic

	case StateDeterministic:
		data := DeterministicPayload(run.req.FunctionName, run.req.Schema)
		run.attempts++
		run.history = append(run.history, entity.AttemptRecord{
			Tier:    entity.TierFallback,
			Number:  1,
			Outcome: entity.OutcomeDeterministic,
		})
		c.metrics.ObserveAttempt(entity.TierFallback, entity.OutcomeDeterministic, 0)
		run.result = &entity.GenerationResult{
			Success:    true,
			Data:       data,
			Provider:   entity.TierFallback,
			Attempts:   run.attempts,
			Confidence: entity.FallbackConfidence,
			Degraded:   true,
		}
		return StateDone
	}
	return StateDone
}

// skipPrimary picks the state that follows an unavailable primary. The
// secondary is tried whenever one is configured; FallbackEnabled only gates
// escalation after the primary has been attempted.
func (c *FallbackChain) skipPrimary() ChainState {
	if c.secondary.Configured() {
		return StateSecondary
	}
	return StateDeterministic
}

// afterPrimary picks the state that follows a failed primary.
func (c *FallbackChain) afterPrimary(run *chainRun) ChainState {
	if run.req.Config.FallbackEnabled && c.secondary.Configured() {
		return StateSecondary
	}
	return StateDeterministic
}

// runTier executes one tier and folds its outcome into run. It reports
// whether the tier produced the final result.
func (c *FallbackChain) runTier(ctx context.Context, tier Tier, run *chainRun) bool {
	out := c.executor.Execute(ctx, tier, run.req, run.req.Config.MaxRetries)
	run.attempts += out.AttemptsUsed
	run.history = append(run.history, out.History...)

	if out.Success {
		run.result = &entity.GenerationResult{
			Success:    true,
			Data:       out.Data,
			Provider:   tier.Profile.Tier,
			Attempts:   run.attempts,
			Confidence: out.Confidence,
		}
		return true
	}

	if ctx.Err() == nil {
		c.logger.Warn("tier exhausted, escalating",
			zap.String("tier", string(tier.Profile.Tier)),
			zap.String("provider", tier.Profile.Name),
			zap.Int("attempts", out.AttemptsUsed),
			zap.Bool("fast_fail", out.FastFailed),
			zap.Error(out.LastErr),
		)
	}
	return false
}
