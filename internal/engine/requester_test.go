package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/plan"
)

func TestBuildUserPromptLabelsAndHistory(t *testing.T) {
	profile := acmeProfile()
	profile.Tone = "friendly"
	profile.History = []plan.HistoryEntry{
		{Role: "user", Content: "focus on EMEA"},
		{Role: "assistant", Content: "noted"},
	}
	prompt := buildUserPrompt(profile)
	for _, want := range []string{
		"Business: Acme\nOffering: CRM software\nAudience: sales teams\nGoals: more leads\nPreferred tone: friendly",
		"Conversation memory: user: focus on EMEA | assistant: noted",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
	for _, absent := range []string{"Differentiators:", "Budget guidance:"} {
		if strings.Contains(prompt, absent) {
			t.Fatalf("expected %q to be omitted, got:\n%s", absent, prompt)
		}
	}
}

func TestBuildUserPromptWithoutHistory(t *testing.T) {
	prompt := buildUserPrompt(acmeProfile())
	if !strings.HasSuffix(prompt, "Conversation memory: N/A") {
		t.Fatalf("expected N/A memory, got:\n%s", prompt)
	}
}

func TestBuildPlanRequestAttachesStrictSchema(t *testing.T) {
	request := buildPlanRequest("gpt-4.1-mini", acmeProfile())
	if len(request.Messages) != 2 || request.Messages[0].Role != "system" || request.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", request.Messages)
	}
	if !strings.Contains(request.Messages[0].Content, `"strategySummary"`) {
		t.Fatalf("expected schema in system prompt")
	}
	if request.Format == nil || !request.Format.Strict || request.Format.Name != plan.SchemaName {
		t.Fatalf("expected strict format, got %+v", request.Format)
	}
	var decoded map[string]any
	if err := json.Unmarshal(request.Format.Schema, &decoded); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	if decoded["type"] != "object" {
		t.Fatalf("expected object schema, got %v", decoded["type"])
	}
}

func TestExtractPayloadOrder(t *testing.T) {
	raw := json.RawMessage(`{"a":1}`)
	cases := []struct {
		name     string
		response llm.Response
		want     string
		wantErr  error
	}{
		{
			name: "first text block wins",
			response: llm.Response{Output: []llm.OutputItem{{Content: []llm.ContentBlock{
				{Kind: llm.BlockText, Text: "first"},
				{Kind: llm.BlockJSON, JSON: raw},
			}}}},
			want: "first",
		},
		{
			name: "json block returned verbatim",
			response: llm.Response{Output: []llm.OutputItem{{Content: []llm.ContentBlock{
				{Kind: llm.BlockUnknown, Type: "refusal"},
				{Kind: llm.BlockJSON, JSON: raw},
				{Kind: llm.BlockText, Text: "later"},
			}}}},
			want: `{"a":1}`,
		},
		{
			name: "empty blocks skipped",
			response: llm.Response{Output: []llm.OutputItem{
				{Content: []llm.ContentBlock{{Kind: llm.BlockText}, {Kind: llm.BlockJSON}}},
				{Content: []llm.ContentBlock{{Kind: llm.BlockText, Text: "second item"}}},
			}},
			want: "second item",
		},
		{
			name:     "aggregated text used when no block matches",
			response: llm.Response{Output: []llm.OutputItem{{Type: "reasoning"}}, OutputText: "aggregate"},
			want:     "aggregate",
		},
		{
			name:     "nothing usable",
			response: llm.Response{OutputText: "  "},
			wantErr:  ErrNoPayload,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractPayload(tc.response)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExtractPayloadFromDecodedResponse(t *testing.T) {
	body := `{"id":"resp_1","output":[{"type":"message","content":[{"type":"json","json":{"strategySummary":"x"}}]}]}`
	var response llm.Response
	if err := json.Unmarshal([]byte(body), &response); err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, err := extractPayload(response)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if string(got) != `{"strategySummary":"x"}` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestMapLLMErrorSubphases(t *testing.T) {
	_, parseErr := plan.Decode([]byte("{"))
	_, schemaErr := plan.Decode([]byte(`{}`))
	cases := []struct {
		err          error
		wantCode     string
		wantSubphase string
	}{
		{ErrNoPayload, errinfo.CodeModelOutputInvalid, errinfo.SubphaseExtract},
		{parseErr, errinfo.CodeModelOutputInvalid, errinfo.SubphaseParse},
		{schemaErr, errinfo.CodeModelOutputInvalid, errinfo.SubphaseValidate},
		{llm.ErrRateLimited, errinfo.CodeProviderRateLimited, ""},
		{llm.ErrEgressBlocked, errinfo.CodeEgressBlocked, ""},
		{context.Canceled, errinfo.CodeUserCanceled, ""},
		{errors.New("boom"), errinfo.CodeProviderUnavailable, errinfo.SubphaseModelRequest},
	}
	for _, tc := range cases {
		info := mapLLMError(errinfo.PhaseGenerate, tc.err)
		if info.ErrorCode != tc.wantCode || info.Subphase != tc.wantSubphase {
			t.Fatalf("%v: expected %s/%s, got %s/%s", tc.err, tc.wantCode, tc.wantSubphase, info.ErrorCode, info.Subphase)
		}
		if info.ProviderID != providerOpenAI {
			t.Fatalf("expected provider id, got %q", info.ProviderID)
		}
	}
}

func TestFakeClientProducesModelPlan(t *testing.T) {
	eng := New(Config{APIKey: "sk-fake"}, WithClient(NewFakeClient()))
	result := eng.Generate(context.Background(), acmeProfile())
	if result.Source != plan.SourceModel {
		t.Fatalf("expected model source, got %q", result.Source)
	}
	if !strings.HasPrefix(result.Plan.StrategySummary, "[fake model] ") {
		t.Fatalf("expected fake plan, got %q", result.Plan.StrategySummary)
	}
	if !strings.Contains(result.Plan.StrategySummary, "Acme") {
		t.Fatalf("expected profile to flow into fake plan, got %q", result.Plan.StrategySummary)
	}
}

func TestFakeClientMarkersFallBack(t *testing.T) {
	for _, marker := range []string{fakeNetworkMarker, fakeTruncateMarker, fakeOffSchemaMarker, fakeEmptyMarker} {
		profile := acmeProfile()
		profile.Goals = "more leads " + marker
		eng := New(Config{APIKey: "sk-fake"}, WithClient(NewFakeClient()))
		if result := eng.Generate(context.Background(), profile); result.Source != plan.SourceFallback {
			t.Fatalf("%s: expected fallback, got %q", marker, result.Source)
		}
	}
	eng := New(Config{APIKey: "sk-invalid"}, WithClient(NewFakeClient()))
	if result := eng.Generate(context.Background(), acmeProfile()); result.Source != plan.SourceFallback {
		t.Fatalf("expected fallback for rejected key")
	}
}
