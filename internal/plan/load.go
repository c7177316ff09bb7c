package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a profile from a YAML or JSON file, chosen by extension.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	return DecodeProfile(data, filepath.Ext(path))
}

// DecodeProfile decodes profile bytes. ext selects YAML for ".yaml" and ".yml";
// anything else is treated as JSON.
func DecodeProfile(data []byte, ext string) (Profile, error) {
	var p Profile
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return Profile{}, fmt.Errorf("decode profile yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &p); err != nil {
			return Profile{}, fmt.Errorf("decode profile json: %w", err)
		}
	}
	return p, nil
}

// LoadPlan reads a plan JSON file. Both a bare plan and a {plan, source}
// envelope are accepted; either must satisfy Schema.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, err
	}
	var envelope struct {
		Plan json.RawMessage `json:"plan"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Plan) > 0 {
		data = envelope.Plan
	}
	p, err := Decode(data)
	if err != nil {
		return Plan{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
