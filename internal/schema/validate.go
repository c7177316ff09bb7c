package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ValidationError is a single violation located by a JSON path such as
// "$.campaignIdeas[0].metrics".
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every violation found in a document.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "schema validation failed"
	}
	parts := make([]string, 0, len(e))
	for _, item := range e {
		parts = append(parts, item.Error())
	}
	return "schema validation failed: " + strings.Join(parts, "; ")
}

// ValidateJSON decodes data and validates it against root.
func ValidateJSON(root *Node, data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return ValidationErrors{{Path: "$", Message: "invalid JSON: " + err.Error()}}
	}
	return Validate(root, value)
}

// Validate checks a decoded JSON value (maps, slices, strings, float64, bool,
// nil) against root. It returns nil or a ValidationErrors value.
func Validate(root *Node, value any) error {
	var errs ValidationErrors
	validateNode("$", root, value, &errs)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateNode(path string, node *Node, value any, errs *ValidationErrors) {
	if node == nil {
		return
	}
	actual := jsonType(value)
	if node.Type != "" && node.Type != actual {
		*errs = append(*errs, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected type %s, got %s", node.Type, actual),
		})
		return
	}
	switch typed := value.(type) {
	case map[string]any:
		validateObject(path, node, typed, errs)
	case []any:
		if node.MinItems != nil && len(typed) < *node.MinItems {
			*errs = append(*errs, ValidationError{
				Path:    path,
				Message: fmt.Sprintf("expected at least %d items, got %d", *node.MinItems, len(typed)),
			})
		}
		for i, item := range typed {
			validateNode(fmt.Sprintf("%s[%d]", path, i), node.Items, item, errs)
		}
	}
}

func validateObject(path string, node *Node, value map[string]any, errs *ValidationErrors) {
	for _, name := range node.Required {
		if _, ok := value[name]; !ok {
			*errs = append(*errs, ValidationError{
				Path:    path + "." + name,
				Message: "required field is missing",
			})
		}
	}
	names := make([]string, 0, len(value))
	for name := range value {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child, ok := node.Properties[name]
		if !ok {
			if node.AdditionalProperties != nil && !*node.AdditionalProperties {
				*errs = append(*errs, ValidationError{
					Path:    path + "." + name,
					Message: "additional property not allowed",
				})
			}
			continue
		}
		validateNode(path+"."+name, child, value[name], errs)
	}
}

func jsonType(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return TypeString
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	default:
		return fmt.Sprintf("%T", value)
	}
}
