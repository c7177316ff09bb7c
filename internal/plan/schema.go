package plan

import (
	"encoding/json"
	"fmt"

	"leadplan/engine/internal/schema"
)

// SchemaName is the output format name attached to model requests.
const SchemaName = "lead_generation_plan"

var planSchema = buildSchema()

func buildSchema() *schema.Node {
	return schema.Object(
		schema.Field{Name: "strategySummary", Node: schema.String()},
		schema.Field{Name: "icpSnapshot", Node: schema.Object(
			schema.Field{Name: "title", Node: schema.String()},
			schema.Field{Name: "bullets", Node: schema.StringList(3)},
		)},
		schema.Field{Name: "campaignIdeas", Node: schema.Array(schema.Object(
			schema.Field{Name: "channel", Node: schema.String()},
			schema.Field{Name: "objective", Node: schema.String()},
			schema.Field{Name: "primaryOffer", Node: schema.String()},
			schema.Field{Name: "sequence", Node: schema.StringList(3)},
			schema.Field{Name: "metrics", Node: schema.StringList(3)},
		), 3)},
		schema.Field{Name: "messaging", Node: schema.Object(
			schema.Field{Name: "email", Node: schema.Array(schema.Object(
				schema.Field{Name: "subject", Node: schema.String()},
				schema.Field{Name: "body", Node: schema.String()},
			), 2)},
			schema.Field{Name: "social", Node: schema.StringList(3)},
			schema.Field{Name: "ads", Node: schema.StringList(3)},
		)},
		schema.Field{Name: "followUpCadence", Node: schema.StringList(3)},
		schema.Field{Name: "automationSuggestions", Node: schema.StringList(3)},
		schema.Field{Name: "dataSignals", Node: schema.StringList(3)},
		schema.Field{Name: "nextSteps", Node: schema.StringList(3)},
	)
}

// Schema returns the shared plan contract. Callers must not modify it.
func Schema() *schema.Node {
	return planSchema
}

// SchemaJSON renders the plan contract for embedding into prompts.
func SchemaJSON() string {
	return planSchema.Indented()
}

// ParseError reports a payload that is not valid JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("plan payload is not valid JSON: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Decode parses a JSON payload, checks it against Schema and returns the plan.
// Invalid JSON yields *ParseError; shape violations yield schema.ValidationErrors.
func Decode(data []byte) (Plan, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Plan{}, &ParseError{Err: err}
	}
	if err := schema.Validate(planSchema, raw); err != nil {
		return Plan{}, err
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return Plan{}, &ParseError{Err: err}
	}
	return p, nil
}

// Validate checks an in-memory plan against Schema.
func Validate(p Plan) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return schema.ValidateJSON(planSchema, data)
}
