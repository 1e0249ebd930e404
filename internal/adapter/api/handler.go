package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"genforge-core/internal/domain/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// GenerationService is the use case behind POST /v1/generate.
type GenerationService interface {
	Execute(ctx context.Context, userID string, req entity.GenerationRequest) (*entity.GenerationResult, error)
}

// Limits bound what one request may ask for. Zero values disable a limit.
type Limits struct {
	MaxRetries     int
	MaxTimeoutMs   int
	RequestTimeout time.Duration
}

type GenerateHandler struct {
	service  GenerationService
	defaults entity.GenerationConfig
	limits   Limits
	logger   *zap.Logger
}

func NewGenerateHandler(service GenerationService, defaults entity.GenerationConfig, limits Limits, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerateHandler{service: service, defaults: defaults, limits: limits, logger: logger}
}

type generateBody struct {
	UserID        string          `json:"user_id"`
	FunctionName  string          `json:"function_name"`
	Schema        json.RawMessage `json:"schema"`
	Prompt        string          `json:"prompt"`
	SystemMessage string          `json:"system_message"`
	Config        json.RawMessage `json:"config"`
}

func (h *GenerateHandler) HandleGenerate(c *fiber.Ctx) error {
	var body generateBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	req, err := h.buildRequest(body)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// fasthttp never cancels the request context when the client goes away,
	// so the deadline is what stops an abandoned generation.
	ctx := c.UserContext()
	if h.limits.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.limits.RequestTimeout)
		defer cancel()
	}

	// The Delivery layer maps the business error to HTTP status codes
	resp, err := h.service.Execute(ctx, body.UserID, req)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrRateLimitExceeded):
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, context.DeadlineExceeded):
			return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "generation deadline exceeded"})
		case errors.Is(err, context.Canceled):
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "generation cancelled"})
		}
		h.logger.Error("generation failed", zap.String("function", req.FunctionName), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal generation error"})
	}

	c.Set("X-Generation-Provider", string(resp.Provider))
	c.Set("X-Generation-Cache-Hit", "false")
	if resp.Cached {
		c.Set("X-Generation-Cache-Hit", "true")
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *GenerateHandler) buildRequest(body generateBody) (entity.GenerationRequest, error) {
	var schema entity.Schema
	if len(body.Schema) > 0 {
		if err := compileSchema(body.Schema); err != nil {
			return entity.GenerationRequest{}, fmt.Errorf("%w: %v", entity.ErrInvalidRequest, err)
		}
		if err := json.Unmarshal(body.Schema, &schema); err != nil {
			return entity.GenerationRequest{}, fmt.Errorf("%w: schema: %v", entity.ErrInvalidRequest, err)
		}
	}

	cfg := h.defaults
	if len(body.Config) > 0 {
		// Unset fields keep their defaults.
		if err := json.Unmarshal(body.Config, &cfg); err != nil {
			return entity.GenerationRequest{}, fmt.Errorf("%w: config: %v", entity.ErrInvalidRequest, err)
		}
	}
	if h.limits.MaxRetries > 0 && cfg.MaxRetries > h.limits.MaxRetries {
		return entity.GenerationRequest{}, fmt.Errorf("%w: max_retries must be <= %d", entity.ErrInvalidRequest, h.limits.MaxRetries)
	}
	if h.limits.MaxTimeoutMs > 0 && cfg.TimeoutMs > h.limits.MaxTimeoutMs {
		return entity.GenerationRequest{}, fmt.Errorf("%w: timeout_ms must be <= %d", entity.ErrInvalidRequest, h.limits.MaxTimeoutMs)
	}

	return entity.NewGenerationRequest(body.FunctionName, schema, body.Prompt, body.SystemMessage, cfg)
}

// compileSchema rejects schemas that are not valid JSON Schema documents.
func compileSchema(raw []byte) error {
	const resource = "request-schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	if _, err := compiler.Compile(resource); err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	return nil
}
