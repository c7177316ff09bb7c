// Package plan holds the lead generation domain: the caller profile, the plan
// document, its schema, the list normalizer and the offline plan builder.
package plan

import (
	"fmt"
	"strings"
)

// HistoryEntry is one prior conversation turn passed as context.
type HistoryEntry struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Profile describes the business a plan is generated for.
type Profile struct {
	BusinessName    string         `json:"businessName" yaml:"businessName"`
	Offering        string         `json:"offering" yaml:"offering"`
	Audience        string         `json:"audience" yaml:"audience"`
	Tone            string         `json:"tone,omitempty" yaml:"tone,omitempty"`
	Goals           string         `json:"goals,omitempty" yaml:"goals,omitempty"`
	Differentiators string         `json:"differentiators,omitempty" yaml:"differentiators,omitempty"`
	Budget          string         `json:"budget,omitempty" yaml:"budget,omitempty"`
	History         []HistoryEntry `json:"history,omitempty" yaml:"history,omitempty"`
}

// MissingFields lists the required profile fields that are absent or blank,
// using their wire names.
func (p Profile) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.BusinessName) == "" {
		missing = append(missing, "businessName")
	}
	if strings.TrimSpace(p.Offering) == "" {
		missing = append(missing, "offering")
	}
	if strings.TrimSpace(p.Audience) == "" {
		missing = append(missing, "audience")
	}
	return missing
}

// Validate reports an error when a required field is missing.
func (p Profile) Validate() error {
	if missing := p.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("businessName, offering, and audience are required (missing: %s)", strings.Join(missing, ", "))
	}
	return nil
}

type ICPSnapshot struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

type CampaignIdea struct {
	Channel      string   `json:"channel"`
	Objective    string   `json:"objective"`
	PrimaryOffer string   `json:"primaryOffer"`
	Sequence     []string `json:"sequence"`
	Metrics      []string `json:"metrics"`
}

type EmailTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type Messaging struct {
	Email  []EmailTemplate `json:"email"`
	Social []string        `json:"social"`
	Ads    []string        `json:"ads"`
}

// Plan is the lead generation blueprint returned to callers.
type Plan struct {
	StrategySummary       string         `json:"strategySummary"`
	ICPSnapshot           ICPSnapshot    `json:"icpSnapshot"`
	CampaignIdeas         []CampaignIdea `json:"campaignIdeas"`
	Messaging             Messaging      `json:"messaging"`
	FollowUpCadence       []string       `json:"followUpCadence"`
	AutomationSuggestions []string       `json:"automationSuggestions"`
	DataSignals           []string       `json:"dataSignals"`
	NextSteps             []string       `json:"nextSteps"`
}

// Source records where a plan came from.
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Result is the response envelope for a generated plan.
type Result struct {
	Plan   Plan   `json:"plan"`
	Source Source `json:"source"`
}
