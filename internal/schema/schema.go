// Package schema declares JSON document shapes once so the same contract can be
// sent to a model as an output format and enforced on whatever comes back.
package schema

import "encoding/json"

const (
	TypeObject = "object"
	TypeArray  = "array"
	TypeString = "string"
)

// Node is a draft-07 compatible subset of JSON Schema: typed nodes, required
// properties, closed objects and minimum array cardinality.
type Node struct {
	Type                 string           `json:"type"`
	Description          string           `json:"description,omitempty"`
	Properties           map[string]*Node `json:"properties,omitempty"`
	Required             []string         `json:"required,omitempty"`
	AdditionalProperties *bool            `json:"additionalProperties,omitempty"`
	Items                *Node            `json:"items,omitempty"`
	MinItems             *int             `json:"minItems,omitempty"`
}

// String returns a string node.
func String() *Node {
	return &Node{Type: TypeString}
}

// Array returns an array node whose items follow items and which must hold at
// least minItems entries. A minItems of zero leaves the array unbounded.
func Array(items *Node, minItems int) *Node {
	node := &Node{Type: TypeArray, Items: items}
	if minItems > 0 {
		node.MinItems = &minItems
	}
	return node
}

// StringList is shorthand for an array of strings with a minimum length.
func StringList(minItems int) *Node {
	return Array(String(), minItems)
}

// Field names one property of an object node.
type Field struct {
	Name string
	Node *Node
}

// Object returns a closed object node. Every field is required and no
// additional properties are allowed; field order is kept in Required.
func Object(fields ...Field) *Node {
	closed := false
	node := &Node{
		Type:                 TypeObject,
		Properties:           make(map[string]*Node, len(fields)),
		Required:             make([]string, 0, len(fields)),
		AdditionalProperties: &closed,
	}
	for _, field := range fields {
		node.Properties[field.Name] = field.Node
		node.Required = append(node.Required, field.Name)
	}
	return node
}

// Describe sets the node description and returns the node.
func (n *Node) Describe(description string) *Node {
	n.Description = description
	return n
}

// JSON returns the compact encoding of the node.
func (n *Node) JSON() json.RawMessage {
	data, err := json.Marshal(n)
	if err != nil {
		return nil
	}
	return data
}

// Indented returns the node pretty-printed with two-space indentation, the form
// embedded into prompts.
func (n *Node) Indented() string {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}
