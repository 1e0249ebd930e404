package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"genforge-core/internal/domain/entity"
	"genforge-core/internal/domain/repository"

	"go.uber.org/zap"
)

// Generator produces a result for one request.
type Generator interface {
	Generate(ctx context.Context, req entity.GenerationRequest) (*entity.GenerationResult, error)
}

// Orchestrator is the generation service: it enforces per-user limits, serves
// semantically equivalent requests from the result cache, delegates to the
// fallback chain, and records usage in the background.
type Orchestrator struct {
	generator    Generator
	tokenLimiter repository.TokenLimiter
	resultCache  repository.ResultCache
	embedder     repository.Embedder
	judge        repository.IntentJudge
	publisher    repository.EventPublisher
	metrics      repository.MetricsRecorder
	logger       *zap.Logger

	cacheThreshold float32
	bgTimeout      time.Duration
	wg             sync.WaitGroup
}

// Deps groups the optional collaborators. Nil members disable their feature.
type Deps struct {
	TokenLimiter   repository.TokenLimiter
	ResultCache    repository.ResultCache
	Embedder       repository.Embedder
	Judge          repository.IntentJudge
	Publisher      repository.EventPublisher
	Metrics        repository.MetricsRecorder
	Logger         *zap.Logger
	CacheThreshold float32
}

func NewOrchestrator(gen Generator, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	threshold := deps.CacheThreshold
	if threshold <= 0 {
		threshold = 0.92
	}
	return &Orchestrator{
		generator:      gen,
		tokenLimiter:   deps.TokenLimiter,
		resultCache:    deps.ResultCache,
		embedder:       deps.Embedder,
		judge:          deps.Judge,
		publisher:      deps.Publisher,
		metrics:        metrics,
		logger:         logger,
		cacheThreshold: threshold,
		bgTimeout:      10 * time.Second,
	}
}

func (u *Orchestrator) Execute(ctx context.Context, userID string, req entity.GenerationRequest) (*entity.GenerationResult, error) {
	start := time.Now()

	// 1. Check Rate Limits
	if u.tokenLimiter != nil {
		allowed, err := u.tokenLimiter.CheckLimit(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("rate limiter check failed: %w", err)
		}
		if !allowed {
			return nil, entity.ErrRateLimitExceeded
		}
	}

	// 2. Semantic Cache Lookup
	vector := u.embed(ctx, req.Prompt)
	if cached := u.lookup(ctx, vector, req); cached != nil {
		cached.ProcessingTimeMs = time.Since(start).Milliseconds()
		// Fresh results are observed by the chain.
		u.metrics.ObserveResult(cached)
		u.background(userID, req, cached, nil)
		return cached, nil
	}

	// 3. Fallback chain
	resp, err := u.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generation aborted: %w", err)
	}

	// 4. Background: cache, usage, event
	u.background(userID, req, resp, vector)
	return resp, nil
}

// Wait blocks until background bookkeeping has finished.
func (u *Orchestrator) Wait() {
	u.wg.Wait()
}

func (u *Orchestrator) embed(ctx context.Context, prompt string) []float32 {
	if u.resultCache == nil || u.embedder == nil {
		return nil
	}
	vector, err := u.embedder.CreateEmbedding(ctx, prompt)
	if err != nil {
		u.logger.Warn("embedding failed, cache bypassed", zap.Error(err))
		return nil
	}
	return vector
}

func (u *Orchestrator) lookup(ctx context.Context, vector []float32, req entity.GenerationRequest) *entity.GenerationResult {
	if vector == nil {
		return nil
	}
	hit, err := u.resultCache.Search(ctx, vector, u.cacheThreshold, req.FunctionName)
	if err != nil {
		u.logger.Warn("cache search failed", zap.Error(err))
		return nil
	}
	if hit == nil || hit.Result == nil {
		return nil
	}
	if u.judge != nil && !u.judge.IsMatch(ctx, req.Prompt, hit.Prompt) {
		u.logger.Debug("cache candidate rejected by judge", zap.Float32("score", hit.Score))
		return nil
	}
	if len(Validate(hit.Result.Data, req.Schema).MissingFields) > 0 {
		return nil
	}

	res := *hit.Result
	res.Cached = true
	res.Attempts = 1
	res.History = nil
	u.logger.Info("cache hit",
		zap.String("function", req.FunctionName),
		zap.Float32("score", hit.Score),
		zap.String("provider", string(res.Provider)),
	)
	return &res
}

func (u *Orchestrator) background(userID string, req entity.GenerationRequest, resp *entity.GenerationResult, vector []float32) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		// The request context may already be gone.
		bgCtx, cancel := context.WithTimeout(context.Background(), u.bgTimeout)
		defer cancel()

		if vector != nil && !resp.Degraded && !resp.Cached {
			if err := u.resultCache.Save(bgCtx, req, resp, vector); err != nil {
				u.logger.Warn("cache save failed", zap.Error(err))
			}
		}
		if u.tokenLimiter != nil && !resp.Cached {
			if err := u.tokenLimiter.Increment(bgCtx, userID, 1); err != nil {
				u.logger.Warn("usage increment failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
		if u.publisher != nil {
			event := entity.GenerationEvent{
				RequestID:        resp.RequestID,
				UserID:           userID,
				FunctionName:     req.FunctionName,
				Provider:         resp.Provider,
				Attempts:         resp.Attempts,
				Confidence:       resp.Confidence,
				ProcessingTimeMs: resp.ProcessingTimeMs,
				Degraded:         resp.Degraded,
				Cached:           resp.Cached,
				Timestamp:        time.Now().Unix(),
			}
			if err := u.publisher.PublishGeneration(bgCtx, event); err != nil {
				u.logger.Warn("event publish failed", zap.Error(err))
			}
		}
	}()
}
