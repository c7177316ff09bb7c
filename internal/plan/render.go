package plan

import (
	"fmt"
	"strings"
)

// Markdown renders a plan as a readable document. The output is stable for a
// given plan so two renderings can be diffed line by line.
func Markdown(p Plan) string {
	var b strings.Builder
	b.WriteString("# Lead generation plan\n\n")
	b.WriteString("## Strategy\n\n")
	b.WriteString(strings.TrimSpace(p.StrategySummary))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "## Ideal customer: %s\n\n", p.ICPSnapshot.Title)
	writeBullets(&b, p.ICPSnapshot.Bullets)

	b.WriteString("## Campaigns\n\n")
	for i, idea := range p.CampaignIdeas {
		fmt.Fprintf(&b, "### %d. %s\n\n", i+1, idea.Channel)
		fmt.Fprintf(&b, "- Objective: %s\n", idea.Objective)
		fmt.Fprintf(&b, "- Offer: %s\n\n", idea.PrimaryOffer)
		b.WriteString("Sequence:\n\n")
		for j, step := range idea.Sequence {
			fmt.Fprintf(&b, "%d. %s\n", j+1, step)
		}
		b.WriteString("\nMetrics: ")
		b.WriteString(strings.Join(idea.Metrics, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("## Messaging\n\n")
	for i, email := range p.Messaging.Email {
		fmt.Fprintf(&b, "### Email %d: %s\n\n", i+1, email.Subject)
		b.WriteString(strings.TrimSpace(email.Body))
		b.WriteString("\n\n")
	}
	b.WriteString("### Social\n\n")
	writeBullets(&b, p.Messaging.Social)
	b.WriteString("### Ads\n\n")
	writeBullets(&b, p.Messaging.Ads)

	writeSection(&b, "Follow-up cadence", p.FollowUpCadence)
	writeSection(&b, "Automation", p.AutomationSuggestions)
	writeSection(&b, "Data signals", p.DataSignals)
	writeSection(&b, "Next steps", p.NextSteps)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeSection(b *strings.Builder, title string, items []string) {
	fmt.Fprintf(b, "## %s\n\n", title)
	writeBullets(b, items)
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
