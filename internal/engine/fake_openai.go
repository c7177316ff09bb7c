package engine

import (
	"context"
	"encoding/json"
	"strings"

	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/plan"
)

// Markers recognized in the user prompt by the fake client.
const (
	fakeNetworkMarker   = "[network-error]"
	fakeTruncateMarker  = "[truncated]"
	fakeOffSchemaMarker = "[off-schema]"
	fakeEmptyMarker     = "[empty]"
)

// NewFakeClient returns a completion client that answers locally with a
// schema-valid plan. It is used for offline runs and end-to-end tests.
func NewFakeClient() CompletionClient {
	return &fakeOpenAI{}
}

type fakeOpenAI struct{}

type fakeNetErr struct{}

func (fakeNetErr) Error() string   { return "network unavailable" }
func (fakeNetErr) Timeout() bool   { return true }
func (fakeNetErr) Temporary() bool { return true }

func (f *fakeOpenAI) CreateResponse(ctx context.Context, apiKey string, request llm.Request) (llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return llm.Response{}, err
	}
	if isInvalidKey(apiKey) {
		return llm.Response{}, llm.ErrUnauthorized
	}
	prompt := lastUserMessage(request.Messages)
	switch {
	case strings.Contains(prompt, fakeNetworkMarker):
		return llm.Response{}, fakeNetErr{}
	case strings.Contains(prompt, fakeEmptyMarker):
		return llm.Response{ID: "resp_fake"}, nil
	case strings.Contains(prompt, fakeTruncateMarker):
		return textResponse(`{"strategySummary":"Draft`), nil
	case strings.Contains(prompt, fakeOffSchemaMarker):
		return textResponse(`{"strategySummary":"Draft only"}`), nil
	}
	data, err := json.Marshal(fakePlan(prompt))
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{
		ID: "resp_fake",
		Output: []llm.OutputItem{{
			Type:    "message",
			Role:    "assistant",
			Content: []llm.ContentBlock{{Kind: llm.BlockJSON, Type: "json", JSON: data}},
		}},
	}, nil
}

func textResponse(text string) llm.Response {
	return llm.Response{
		ID: "resp_fake",
		Output: []llm.OutputItem{{
			Type:    "message",
			Role:    "assistant",
			Content: []llm.ContentBlock{{Kind: llm.BlockText, Type: "output_text", Text: text}},
		}},
	}
}

// fakePlan derives a plan from the prompt's context lines so offline runs
// still reflect the submitted profile.
func fakePlan(prompt string) plan.Plan {
	profile := plan.Profile{
		BusinessName: promptField(prompt, "Business"),
		Offering:     promptField(prompt, "Offering"),
		Audience:     promptField(prompt, "Audience"),
		Goals:        promptField(prompt, "Goals"),
		Budget:       promptField(prompt, "Budget guidance"),
		Tone:         promptField(prompt, "Preferred tone"),
	}
	p := plan.BuildFallback(profile)
	p.StrategySummary = "[fake model] " + p.StrategySummary
	return p
}

func promptField(prompt, label string) string {
	prefix := label + ": "
	for _, line := range strings.Split(prompt, "\n") {
		if value, ok := strings.CutPrefix(line, prefix); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func lastUserMessage(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

func isInvalidKey(apiKey string) bool {
	return strings.Contains(strings.ToLower(apiKey), "invalid")
}
