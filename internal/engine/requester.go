package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/plan"
)

// ErrNoPayload means the completion response had no usable text or JSON block.
var ErrNoPayload = errors.New("unable to extract JSON response from model")

const systemPromptPreamble = "You are an elite B2B and B2C demand generation strategist. " +
	"Always respond with valid JSON that matches this schema (no markdown, no prose outside JSON):\n"

const userPromptPreamble = "Use the following context to craft a lead-generation blueprint. " +
	"Respond with JSON that matches the provided schema."

// ErrModelPanic wraps a panic raised while requesting or decoding a model plan.
var ErrModelPanic = errors.New("model request panicked")

func (e *Engine) requestModelPlan(ctx context.Context, profile plan.Profile) (_ plan.Plan, err error) {
	ctx, span := e.tracer.Start(ctx, "leadplan.model_request", trace.WithAttributes(
		attribute.String("gen_ai.system", "openai"),
		attribute.String("gen_ai.request.model", e.cfg.Model),
	))
	defer span.End()
	defer func() {
		if r := recover(); r != nil {
			err = spanError(span, fmt.Errorf("%w: %v", ErrModelPanic, r))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.RequestTimeout)
	defer cancel()

	request := buildPlanRequest(e.cfg.Model, profile)
	response, err := e.client.CreateResponse(ctx, e.cfg.APIKey, request)
	if err != nil {
		return plan.Plan{}, spanError(span, fmt.Errorf("model request: %w", err))
	}
	payload, err := extractPayload(response)
	if err != nil {
		return plan.Plan{}, spanError(span, err)
	}
	span.SetAttributes(
		attribute.String("gen_ai.response.id", response.ID),
		attribute.Int("leadplan.payload_bytes", len(payload)),
	)
	modelPlan, err := plan.Decode(payload)
	if err != nil {
		return plan.Plan{}, spanError(span, err)
	}
	span.SetStatus(codes.Ok, "model plan accepted")
	return modelPlan, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func buildPlanRequest(model string, profile plan.Profile) llm.Request {
	return llm.Request{
		Model: model,
		Messages: []llm.Message{
			{Role: "system", Content: buildSystemPrompt()},
			{Role: "user", Content: buildUserPrompt(profile)},
		},
		Format: &llm.OutputFormat{
			Name:   plan.SchemaName,
			Schema: plan.Schema().JSON(),
			Strict: true,
		},
	}
}

func buildSystemPrompt() string {
	return systemPromptPreamble + plan.SchemaJSON()
}

func buildUserPrompt(profile plan.Profile) string {
	var b strings.Builder
	b.WriteString(userPromptPreamble)
	b.WriteString("\n\n")
	b.WriteString(buildContextLines(profile))
	b.WriteString("\n\nConversation memory: ")
	b.WriteString(renderHistory(profile.History))
	return b.String()
}

func buildContextLines(profile plan.Profile) string {
	lines := []string{
		"Business: " + profile.BusinessName,
		"Offering: " + profile.Offering,
		"Audience: " + profile.Audience,
	}
	optional := []struct {
		label string
		value string
	}{
		{"Goals", profile.Goals},
		{"Differentiators", profile.Differentiators},
		{"Budget guidance", profile.Budget},
		{"Preferred tone", profile.Tone},
	}
	for _, item := range optional {
		if strings.TrimSpace(item.value) != "" {
			lines = append(lines, item.label+": "+item.value)
		}
	}
	return strings.Join(lines, "\n")
}

func renderHistory(history []plan.HistoryEntry) string {
	if len(history) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(history))
	for _, entry := range history {
		parts = append(parts, entry.Role+": "+entry.Content)
	}
	return strings.Join(parts, " | ")
}

// extractPayload walks the output items in order and returns the first
// non-empty text or JSON block. JSON blocks are returned as received. When no
// block matches, the aggregated output text is used.
func extractPayload(response llm.Response) ([]byte, error) {
	for _, item := range response.Output {
		for _, block := range item.Content {
			switch block.Kind {
			case llm.BlockText:
				if block.Text != "" {
					return []byte(block.Text), nil
				}
			case llm.BlockJSON:
				if len(block.JSON) > 0 {
					return block.JSON, nil
				}
			}
		}
	}
	if strings.TrimSpace(response.OutputText) != "" {
		return []byte(response.OutputText), nil
	}
	return nil, ErrNoPayload
}
