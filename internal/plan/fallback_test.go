package plan

import (
	"reflect"
	"strings"
	"testing"
)

func sampleProfiles() []Profile {
	return []Profile{
		{BusinessName: "Acme", Offering: "CRM software", Audience: "sales teams", Goals: "more leads"},
		{BusinessName: "Northwind", Offering: "Payroll API", Audience: "HR leaders", Tone: "bold",
			Goals: "Win enterprise logos\nExpand in EMEA", Differentiators: "SOC2, 24/7 support", Budget: "$10k/month"},
		{BusinessName: "Solo", Offering: "Coaching", Audience: "founders", Differentiators: "one"},
		{},
		{BusinessName: "  ", Offering: "\n", Audience: ",", Goals: ",,,", Differentiators: "\n\n"},
		{BusinessName: "Hist", Offering: "x", Audience: "y", History: []HistoryEntry{{Role: "user", Content: "hi"}}},
	}
}

func TestBuildFallbackAlwaysSatisfiesSchema(t *testing.T) {
	for i, profile := range sampleProfiles() {
		p := BuildFallback(profile)
		if err := Validate(p); err != nil {
			t.Fatalf("profile %d: fallback plan invalid: %v", i, err)
		}
		if len(p.CampaignIdeas) != 3 {
			t.Fatalf("profile %d: expected exactly 3 campaign ideas, got %d", i, len(p.CampaignIdeas))
		}
		if len(p.Messaging.Email) != 2 {
			t.Fatalf("profile %d: expected exactly 2 emails, got %d", i, len(p.Messaging.Email))
		}
	}
}

func TestBuildFallbackIsDeterministic(t *testing.T) {
	for _, profile := range sampleProfiles() {
		first := BuildFallback(profile)
		second := BuildFallback(profile)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical plans for %+v", profile)
		}
	}
}

func TestBuildFallbackAcmeScenario(t *testing.T) {
	p := BuildFallback(Profile{BusinessName: "Acme", Offering: "CRM software", Audience: "sales teams", Goals: "more leads"})
	if p.ICPSnapshot.Title != "sales teams" {
		t.Fatalf("expected audience as ICP title, got %q", p.ICPSnapshot.Title)
	}
	if len(p.ICPSnapshot.Bullets) < 3 {
		t.Fatalf("expected at least 3 ICP bullets")
	}
	if !strings.HasPrefix(p.ICPSnapshot.Bullets[0], "sales teams experiencing more leads") {
		t.Fatalf("unexpected first bullet: %q", p.ICPSnapshot.Bullets[0])
	}
	if p.Messaging.Email[0].Subject != "Acme | more leads in the next 90 days" {
		t.Fatalf("unexpected subject: %q", p.Messaging.Email[0].Subject)
	}
	if !strings.Contains(p.Messaging.Email[0].Body, "delivering crm software") {
		t.Fatalf("expected lower-cased offer in email body: %q", p.Messaging.Email[0].Body)
	}
	if !strings.Contains(p.StrategySummary, "consultative voice") {
		t.Fatalf("expected default tone in summary: %q", p.StrategySummary)
	}
	if !strings.Contains(p.StrategySummary, "based on CAC targets") {
		t.Fatalf("expected default budget guidance: %q", p.StrategySummary)
	}
	// second goal is missing, so the ad falls back
	if p.Messaging.Ads[2] != "sales teams: ready-made system to scale pipeline." {
		t.Fatalf("unexpected ad: %q", p.Messaging.Ads[2])
	}
}

func TestBuildFallbackDefaultsForBlankProfile(t *testing.T) {
	p := BuildFallback(Profile{})
	if !strings.HasPrefix(p.StrategySummary, "Your brand should focus on the target buyers segment with your offer") {
		t.Fatalf("unexpected summary: %q", p.StrategySummary)
	}
	if p.Messaging.Email[0].Subject != "Your brand | New revenue in the next 90 days" {
		t.Fatalf("unexpected subject: %q", p.Messaging.Email[0].Subject)
	}
	if !strings.Contains(p.ICPSnapshot.Bullets[0], "grow pipeline") {
		t.Fatalf("expected default goal in bullet: %q", p.ICPSnapshot.Bullets[0])
	}
	if !strings.Contains(p.CampaignIdeas[1].PrimaryOffer, "Documented ROI within 60 days") {
		t.Fatalf("expected second default differentiator: %q", p.CampaignIdeas[1].PrimaryOffer)
	}
}

func TestBuildFallbackUsesSuppliedInputs(t *testing.T) {
	p := BuildFallback(Profile{
		BusinessName:    "Northwind",
		Offering:        "Payroll API",
		Audience:        "HR leaders",
		Tone:            "bold",
		Budget:          "$10k/month",
		Differentiators: "SOC2",
	})
	if !strings.Contains(p.StrategySummary, "leaning into SOC2 and executing a bold voice") {
		t.Fatalf("unexpected summary: %q", p.StrategySummary)
	}
	if !strings.HasSuffix(p.StrategySummary, "Budget guidance: $10k/month.") {
		t.Fatalf("expected budget in summary: %q", p.StrategySummary)
	}
	if !strings.Contains(p.CampaignIdeas[1].PrimaryOffer, "operational wins") {
		t.Fatalf("expected missing second differentiator default: %q", p.CampaignIdeas[1].PrimaryOffer)
	}
}
