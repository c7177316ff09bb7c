package plan

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadProfileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := "businessName: Acme\noffering: CRM software\naudience: sales teams\ngoals: |\n  more leads\n  faster deals\nhistory:\n  - role: user\n    content: hello\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.BusinessName != "Acme" || p.Audience != "sales teams" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if got := ParseList(p.Goals, nil); len(got) != 2 || got[1] != "faster deals" {
		t.Fatalf("unexpected goals: %#v", got)
	}
	if len(p.History) != 1 || p.History[0].Role != "user" {
		t.Fatalf("unexpected history: %+v", p.History)
	}
}

func TestLoadProfileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	if err := os.WriteFile(path, []byte(`{"businessName":"Acme","offering":"CRM","audience":"sales"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("expected valid profile: %v", err)
	}
}

func TestProfileValidateListsMissingFields(t *testing.T) {
	err := Profile{BusinessName: "Acme", Offering: " "}.Validate()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "missing: offering, audience") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadPlanAcceptsEnvelope(t *testing.T) {
	dir := t.TempDir()
	p := BuildFallback(Profile{BusinessName: "Acme"})
	data, _ := json.Marshal(Result{Plan: p, Source: SourceFallback})
	path := filepath.Join(dir, "result.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	loaded, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("load plan: %v", err)
	}
	if loaded.StrategySummary != p.StrategySummary {
		t.Fatalf("unexpected plan")
	}

	bare, _ := json.Marshal(p)
	barePath := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(barePath, bare, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPlan(barePath); err != nil {
		t.Fatalf("load bare plan: %v", err)
	}
}

func TestMarkdownIncludesEverySection(t *testing.T) {
	md := Markdown(BuildFallback(Profile{BusinessName: "Acme", Offering: "CRM", Audience: "sales teams"}))
	for _, heading := range []string{"## Strategy", "## Ideal customer: sales teams", "### 1. Outbound multi-touch", "### Email 2:", "## Next steps"} {
		if !strings.Contains(md, heading) {
			t.Fatalf("expected %q in markdown", heading)
		}
	}
}
