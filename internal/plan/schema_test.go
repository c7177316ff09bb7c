package plan

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"leadplan/engine/internal/schema"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestDecodeAcceptsValidPlan(t *testing.T) {
	want := BuildFallback(Profile{BusinessName: "Acme", Offering: "CRM", Audience: "sales"})
	got, err := Decode(mustMarshal(t, want))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.StrategySummary != want.StrategySummary || len(got.CampaignIdeas) != 3 {
		t.Fatalf("decoded plan does not match")
	}
}

func TestDecodeRejectsTruncatedJSON(t *testing.T) {
	data := mustMarshal(t, BuildFallback(Profile{}))
	_, err := Decode(data[:len(data)/2])
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %T %v", err, err)
	}
}

func TestDecodeRejectsShapeViolations(t *testing.T) {
	var doc map[string]any
	if err := json.Unmarshal(mustMarshal(t, BuildFallback(Profile{})), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	delete(doc, "nextSteps")
	doc["campaignIdeas"] = doc["campaignIdeas"].([]any)[:2]
	doc["extra"] = "nope"

	_, err := Decode(mustMarshal(t, doc))
	var verrs schema.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %T %v", err, err)
	}
	msg := err.Error()
	for _, fragment := range []string{"$.nextSteps", "$.campaignIdeas: expected at least 3 items", "$.extra"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestValidateRejectsEmptyPlan(t *testing.T) {
	if err := Validate(Plan{}); err == nil {
		t.Fatalf("expected zero plan to fail validation")
	}
}

func TestSchemaJSONDescribesContract(t *testing.T) {
	text := SchemaJSON()
	for _, fragment := range []string{`"additionalProperties": false`, `"campaignIdeas"`, `"minItems": 3`, `"minItems": 2`} {
		if !strings.Contains(text, fragment) {
			t.Fatalf("expected %s in schema text", fragment)
		}
	}
}
