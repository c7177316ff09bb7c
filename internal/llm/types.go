package llm

import (
	"bytes"
	"encoding/json"
)

// Message represents a single instruction sent to the completion service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OutputFormat attaches a strict JSON schema to a completion request.
type OutputFormat struct {
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

// Request is a provider-neutral completion request.
type Request struct {
	Model    string
	Messages []Message
	Format   *OutputFormat
}

// BlockKind identifies the content block variants a completion response can carry.
type BlockKind int

const (
	BlockUnknown BlockKind = iota
	BlockText
	BlockJSON
)

func (k BlockKind) String() string {
	switch k {
	case BlockText:
		return "text"
	case BlockJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ContentBlock is one block of an output item. Kind selects which of Text or
// JSON is meaningful.
type ContentBlock struct {
	Kind BlockKind
	Type string
	Text string
	JSON json.RawMessage
}

type wireContentBlock struct {
	Type string          `json:"type"`
	Text string          `json:"text,omitempty"`
	JSON json.RawMessage `json:"json,omitempty"`
}

func (b *ContentBlock) UnmarshalJSON(data []byte) error {
	var wire wireContentBlock
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = ContentBlock{Type: wire.Type}
	switch wire.Type {
	case "output_text", "text":
		b.Kind = BlockText
		b.Text = wire.Text
	case "json":
		b.Kind = BlockJSON
		trimmed := bytes.TrimSpace(wire.JSON)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			b.JSON = append(json.RawMessage(nil), trimmed...)
		}
	}
	return nil
}

func (b ContentBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireContentBlock{Type: b.Type, Text: b.Text, JSON: b.JSON})
}

// OutputItem is one entry of a completion response's output list.
type OutputItem struct {
	Type    string         `json:"type"`
	Role    string         `json:"role,omitempty"`
	Content []ContentBlock `json:"content,omitempty"`
}

// Response is the decoded completion response. OutputText carries the
// aggregated text some providers return alongside the output items.
type Response struct {
	ID         string       `json:"id,omitempty"`
	Output     []OutputItem `json:"output"`
	OutputText string       `json:"output_text,omitempty"`
}
