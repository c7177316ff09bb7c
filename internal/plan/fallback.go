package plan

import (
	"fmt"
	"strings"
)

var (
	defaultGoals = []string{"Grow pipeline", "Increase demos", "Shorten sales cycles"}

	defaultDifferentiators = []string{
		"Faster onboarding than competitors",
		"Documented ROI within 60 days",
		"Dedicated success manager",
	}
)

const (
	defaultBrand    = "Your brand"
	defaultOffer    = "your offer"
	defaultAudience = "target buyers"
	defaultTone     = "consultative"
	defaultBudget   = "allocate spend across high-impact channels based on CAC targets"
)

// BuildFallback synthesizes a complete plan from the profile alone. It never
// calls out and always satisfies Schema.
func BuildFallback(p Profile) Plan {
	brand := orDefault(p.BusinessName, defaultBrand)
	offer := orDefault(p.Offering, defaultOffer)
	audience := orDefault(p.Audience, defaultAudience)
	tone := orDefault(p.Tone, defaultTone)
	budget := orDefault(p.Budget, defaultBudget)
	goals := ParseList(p.Goals, defaultGoals)
	diffs := ParseList(p.Differentiators, defaultDifferentiators)
	statedGoals := ParseList(p.Goals, nil)

	lowerOffer := strings.ToLower(offer)
	firstGoal := strings.ToLower(at(goals, 0, "growth pressure"))
	firstDiff := strings.ToLower(at(diffs, 0, "tangible ROI"))

	return Plan{
		StrategySummary: fmt.Sprintf(
			"%s should focus on the %s segment with %s, leaning into %s and executing a %s voice across outbound, paid, and lifecycle touchpoints. Budget guidance: %s.",
			brand, audience, offer, strings.Join(diffs, ", "), tone, budget,
		),
		ICPSnapshot: ICPSnapshot{
			Title: audience,
			Bullets: []string{
				fmt.Sprintf("%s experiencing %s.", audience, firstGoal),
				fmt.Sprintf("Decision-makers prioritizing solutions that deliver %s.", firstDiff),
				fmt.Sprintf("Buying triggers include teams evaluating %s alternatives or showing intent signals (hiring, tech stack updates).", lowerOffer),
			},
		},
		CampaignIdeas: []CampaignIdea{
			{
				Channel:      "Outbound multi-touch",
				Objective:    "Book qualified meetings",
				PrimaryOffer: fmt.Sprintf("Personalized walkthrough of how %s accelerates results for %s.", brand, audience),
				Sequence: []string{
					"Day 0: Triggered LinkedIn view + soft intro DM tying to mutual context.",
					"Day 1: Email with problem-first hook and proof point tied to key metric.",
					"Day 3: Phone call / voice drop referencing recent industry change.",
					"Day 5: Case-study email with micro CTA (15-min agenda).",
				},
				Metrics: []string{"Open rate", "Positive reply rate", "SQO conversion", "Pipeline value booked"},
			},
			{
				Channel:      "Paid demand (LinkedIn + retargeting)",
				Objective:    "Capture in-market demand",
				PrimaryOffer: fmt.Sprintf("Lead magnet showcasing %s using %s.", at(diffs, 1, "operational wins"), offer),
				Sequence: []string{
					"Sponsored thought-leadership carousel driving to ungated insight.",
					"Retarget with lead gen form offering ROI worksheet or benchmark tool.",
					"30-day nurtures via retargeting video featuring customer testimonial.",
				},
				Metrics: []string{"Lead quality score", "Cost per MQL", "View-through conversions", "Demo requests"},
			},
			{
				Channel:      "Lifecycle + marketing automation",
				Objective:    "Nurture and accelerate deals",
				PrimaryOffer: fmt.Sprintf("Automated nurture that educates buying committee on %s.", offer),
				Sequence: []string{
					"Welcome email with promise + quick win resource.",
					"Day 3: Use-case drip aligned to role-based pain points.",
					"Day 7: Customer proof email with quantifiable outcomes.",
					"Day 10: Live session invite or interactive ROI calculator CTA.",
				},
				Metrics: []string{"Email engagement depth", "Speed to second touch", "Meeting acceptance", "Expansion opportunities"},
			},
		},
		Messaging: Messaging{
			Email: []EmailTemplate{
				{
					Subject: fmt.Sprintf("%s | %s in the next 90 days", brand, at(statedGoals, 0, "New revenue")),
					Body: fmt.Sprintf(
						"Hi {{first_name}},\n\nI noticed %s teams are navigating %s. %s removes the %s by delivering %s.\n\nClients typically see %s within 30 days. Up for comparing playbooks next week?\n\n– %s team",
						audience, firstGoal, brand, firstDiff, lowerOffer,
						strings.ToLower(at(diffs, 1, "faster adoption")), brand,
					),
				},
				{
					Subject: fmt.Sprintf("Quick win: %s benchmark for %s", offer, audience),
					Body: fmt.Sprintf(
						"Hey {{first_name}},\n\nSharing a short benchmark that maps where %s usually hit friction and how teams solved it. It's pulled from recent %s rollouts.\n\nHappy to walk you through the numbers and flag fast wins if useful.",
						audience, brand,
					),
				},
			},
			Social: []string{
				fmt.Sprintf("Hook: “%s spend %s fighting X? Here's how %s trims it to minutes.”", audience, firstGoal, brand),
				fmt.Sprintf("Problem spotlight reel featuring %s.", firstDiff),
				fmt.Sprintf("Customer quote snippet highlighting measurable wins after adopting %s.", offer),
			},
			Ads: []string{
				fmt.Sprintf("%s without burning SDR hours — %s.", at(goals, 0, "Hit revenue targets"), brand),
				fmt.Sprintf("Prove ROI on %s in 30 days with %s's %s.", offer, brand, firstDiff),
				fmt.Sprintf("%s: ready-made system to %s.", audience, strings.ToLower(at(goals, 1, "scale pipeline"))),
			},
		},
		FollowUpCadence: []string{
			"Use 5-touch cadence within 10 days blending email, call, and LinkedIn.",
			"Reconnect day 14 with value-share (toolkit, benchmark, invite).",
			"Drop into nurture track with monthly live workshop CTA if still cold.",
		},
		AutomationSuggestions: []string{
			"Use Clay or Apollo to enrich accounts with hiring, tech stack, and trigger events.",
			"Sync accepted hand-raisers to CRM automatically with lead scoring rules.",
			"Trigger Slack alerts for high-intent actions (pricing page visits, calculator downloads).",
		},
		DataSignals: []string{
			"Net-new funding, hiring for related roles, or tooling migrations.",
			"Tech stack fit (e.g., HubSpot/Salesforce connected apps).",
			"Engagement with industry reports, webinars, or comparison pages.",
		},
		NextSteps: []string{
			"Finalize ICP attributes and intent signals inside your CRM/CDP.",
			"Load lead magnet and nurture emails into automation platform.",
			fmt.Sprintf("Launch outbound sequence with 20 pilot accounts from the %s segment and monitor replies.", audience),
			"Review results weekly and iterate messaging based on objections.",
		},
	}
}
