// Package engine turns a business profile into a lead generation plan, asking
// the completion service first and falling back to the offline builder.
package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/logging"
	"leadplan/engine/internal/openai"
	"leadplan/engine/internal/plan"
)

const (
	DefaultModel          = "gpt-4.1-mini"
	DefaultRequestTimeout = 60 * time.Second

	tracerName = "leadplan/engine"
)

// CompletionClient is the slice of the OpenAI client the engine depends on.
type CompletionClient interface {
	CreateResponse(ctx context.Context, apiKey string, request llm.Request) (llm.Response, error)
}

// Config is resolved once by the caller. The engine never reads the
// environment itself.
type Config struct {
	APIKey          string
	Model           string
	BaseURL         string
	ReasoningEffort string
	RequestTimeout  time.Duration
}

func (c Config) withDefaults() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}

type Engine struct {
	cfg          Config
	client       CompletionClient
	logger       *slog.Logger
	tracer       trace.Tracer
	newRequestID func() string
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClient replaces the OpenAI client, typically with the fake one.
func WithClient(client CompletionClient) Option {
	return func(e *Engine) {
		if client != nil {
			e.client = client
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg.withDefaults(),
		logger:       logging.Nop(),
		tracer:       otel.Tracer(tracerName),
		newRequestID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.client == nil {
		e.client = openai.NewClient(openai.WithBaseURL(e.cfg.BaseURL), openai.WithTimeout(e.cfg.RequestTimeout))
	}
	e.logger.Debug("engine.init",
		"model", e.cfg.Model,
		"has_credential", e.HasCredential(),
		"request_timeout", e.cfg.RequestTimeout.String(),
		"api_key", logging.RedactValue(e.cfg.APIKey),
	)
	return e
}

// HasCredential reports whether model requests will be attempted.
func (e *Engine) HasCredential() bool {
	return e.cfg.APIKey != ""
}

func (e *Engine) Model() string {
	return e.cfg.Model
}

// Generate always returns a schema-valid plan. Model failures are logged and
// answered with the offline plan.
func (e *Engine) Generate(ctx context.Context, profile plan.Profile) plan.Result {
	ctx, requestID := e.ensureRequestID(ctx)
	ctx, span := e.tracer.Start(ctx, "leadplan.generate", trace.WithAttributes(
		attribute.String("leadplan.request_id", requestID),
		attribute.Bool("leadplan.has_credential", e.HasCredential()),
	))
	defer span.End()
	started := time.Now()

	if !e.HasCredential() {
		result := plan.Result{Plan: plan.BuildFallback(profile), Source: plan.SourceFallback}
		e.finish(span, requestID, result, "no_credential", started)
		return result
	}

	modelPlan, err := e.requestModelPlan(ctx, profile)
	if err != nil {
		info := mapLLMError(errinfo.PhaseGenerate, err)
		info.ModelID = e.cfg.Model
		e.logger.Warn("engine.model_plan_failed",
			"request_id", requestID,
			"model", e.cfg.Model,
			"error_code", info.ErrorCode,
			"subphase", info.Subphase,
			"retryable", info.Retryable,
			"error", err.Error(),
		)
		span.RecordError(err)
		span.SetAttributes(attribute.String("leadplan.error_code", info.ErrorCode))
		result := plan.Result{Plan: plan.BuildFallback(profile), Source: plan.SourceFallback}
		e.finish(span, requestID, result, "model_failed", started)
		return result
	}
	result := plan.Result{Plan: modelPlan, Source: plan.SourceModel}
	e.finish(span, requestID, result, "", started)
	return result
}

func (e *Engine) finish(span trace.Span, requestID string, result plan.Result, reason string, started time.Time) {
	span.SetAttributes(attribute.String("leadplan.source", string(result.Source)))
	span.SetStatus(codes.Ok, "plan generated")
	attrs := []any{
		"request_id", requestID,
		"source", string(result.Source),
		"campaigns", len(result.Plan.CampaignIdeas),
		"duration_ms", time.Since(started).Milliseconds(),
	}
	if reason != "" {
		attrs = append(attrs, "fallback_reason", reason)
	}
	e.logger.Info("engine.plan_generated", attrs...)
}

func (e *Engine) ensureRequestID(ctx context.Context) (context.Context, string) {
	profile, _ := llm.RequestProfileFromContext(ctx)
	if profile.RequestID == "" {
		profile.RequestID = e.newRequestID()
	}
	if profile.ReasoningEffort == "" {
		profile.ReasoningEffort = e.cfg.ReasoningEffort
	}
	return llm.WithRequestProfile(ctx, profile), profile.RequestID
}

// AgentGeneratePlan is the request handler behind POST /api/agent. Input
// errors are returned before any model call is made.
func (e *Engine) AgentGeneratePlan(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo) {
	var profile plan.Profile
	if err := json.Unmarshal(params, &profile); err != nil {
		return nil, errinfo.InvalidInput(errinfo.PhaseRequest, "invalid JSON payload")
	}
	if missing := profile.MissingFields(); len(missing) > 0 {
		return nil, errinfo.MissingFields(errinfo.PhaseRequest, profile.Validate().Error(), missing)
	}
	e.logger.Debug("engine.generate_plan_request",
		"business_name", profile.BusinessName,
		"history_items", len(profile.History),
	)
	return e.Generate(ctx, profile), nil
}
