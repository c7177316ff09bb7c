package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"leadplan/engine/internal/egress"
	"leadplan/engine/internal/llm"
)

const DefaultBaseURL = "https://api.openai.com"

const (
	defaultReasoningEffort = "medium"
	defaultTemperature     = 0.0
	defaultTopP            = 1.0
	defaultTruncation      = "disabled"
	defaultTimeout         = 600 * time.Second
	maxErrorBodyBytes      = 2048
)

type Client struct {
	baseURL string
	client  *http.Client
}

type Option func(*Client)

// WithBaseURL points the client at an OpenAI compatible endpoint. The host is
// added to the egress allowlist.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout bounds every HTTP exchange with the service.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithTransport replaces the base transport under the egress allowlist.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.client.Transport = rt
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout, Transport: http.DefaultTransport},
	}
	for _, opt := range opts {
		opt(c)
	}
	hosts := []string{"api.openai.com"}
	if parsed, err := url.Parse(c.baseURL); err == nil && parsed.Hostname() != "" {
		hosts = append(hosts, parsed.Hostname())
	}
	c.client.Transport = egress.NewAllowlistRoundTripper(c.client.Transport, hosts)
	return c
}

func (c *Client) responsesEndpoint() string {
	return c.baseURL + "/v1/responses"
}

func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return err
	}
	applyHeaders(ctx, req, apiKey)
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.ErrEgressBlocked
		}
		return err
	}
	defer resp.Body.Close()
	if err := statusError(resp, ""); err != nil {
		return err
	}
	return nil
}

// CreateResponse sends a single non-streaming request to the Responses API and
// returns the decoded output without interpreting it.
func (c *Client) CreateResponse(ctx context.Context, apiKey string, request llm.Request) (llm.Response, error) {
	payload := buildRequestPayload(ctx, request)
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.responsesEndpoint(), bytes.NewReader(body))
	if err != nil {
		return llm.Response{}, err
	}
	applyHeaders(ctx, req, apiKey)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, llm.ErrEgressBlocked) {
			return llm.Response{}, llm.ErrEgressBlocked
		}
		return llm.Response{}, err
	}
	defer resp.Body.Close()
	if err := statusError(resp, request.Model); err != nil {
		if errors.Is(err, errUnexpectedStatus) {
			return llm.Response{}, c.requestError(resp, payload)
		}
		return llm.Response{}, err
	}
	var response llm.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return llm.Response{}, fmt.Errorf("decode openai response: %w", err)
	}
	return response, nil
}

func applyHeaders(ctx context.Context, req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if profile, ok := llm.RequestProfileFromContext(ctx); ok && profile.RequestID != "" {
		req.Header.Set("X-Client-Request-Id", profile.RequestID)
	}
}

var errUnexpectedStatus = errors.New("unexpected status")

func statusError(resp *http.Response, model string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return unauthorizedError(resp, model)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, readErrorBody(resp))
	case resp.StatusCode >= 500:
		return llm.ErrUnavailable
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return errUnexpectedStatus
	}
	return nil
}

func buildInput(messages []llm.Message) []map[string]any {
	input := make([]map[string]any, 0, len(messages))
	for _, msg := range messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		input = append(input, map[string]any{
			"role": msg.Role,
			"content": []map[string]any{
				{"type": "input_text", "text": msg.Content},
			},
		})
	}
	return input
}

func buildRequestPayload(ctx context.Context, request llm.Request) map[string]any {
	payload := map[string]any{
		"model": request.Model,
		"input": buildInput(request.Messages),
	}
	if request.Format != nil {
		payload["text"] = map[string]any{"format": buildFormatPayload(*request.Format)}
	}
	applyRequestDefaults(ctx, payload, request.Model)
	return payload
}

func buildFormatPayload(format llm.OutputFormat) map[string]any {
	schema := format.Schema
	if format.Strict {
		if strict, err := strictifySchema(schema); err == nil {
			schema = strict
		}
	}
	return map[string]any{
		"type":   "json_schema",
		"name":   format.Name,
		"schema": schema,
		"strict": format.Strict,
	}
}

func (c *Client) requestError(resp *http.Response, payload map[string]any) error {
	return fmt.Errorf(
		"openai error: %s endpoint=%s diag={%s} - %s",
		resp.Status,
		c.responsesEndpoint(),
		summarizeRequestPayload(payload),
		readErrorBody(resp),
	)
}

func summarizeRequestPayload(payload map[string]any) string {
	inputItems := 0
	if items, ok := payload["input"].([]map[string]any); ok {
		inputItems = len(items)
	}
	_, hasFormat := payload["text"]
	model, _ := payload["model"].(string)
	return fmt.Sprintf("model=%s input_items=%d has_format=%t", model, inputItems, hasFormat)
}

// strictifySchema closes every object node and lists all of its properties as
// required, which strict structured output demands. Properties that were
// optional become nullable.
func strictifySchema(schema json.RawMessage) (json.RawMessage, error) {
	if len(schema) == 0 {
		return schema, nil
	}
	var node any
	if err := json.Unmarshal(schema, &node); err != nil {
		return nil, err
	}
	out, err := json.Marshal(strictifySchemaNode(node))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

func strictifySchemaNode(node any) any {
	v, ok := node.(map[string]any)
	if !ok {
		return node
	}
	if properties, ok := v["properties"].(map[string]any); ok {
		requiredSet := make(map[string]bool)
		if requiredAny, ok := v["required"].([]any); ok {
			for _, item := range requiredAny {
				if name, _ := item.(string); name != "" {
					requiredSet[name] = true
				}
			}
		}
		required := make([]string, 0, len(properties))
		for name, propertySchema := range properties {
			propertySchema = strictifySchemaNode(propertySchema)
			if !requiredSet[name] {
				propertySchema = makeSchemaNullable(propertySchema)
			}
			properties[name] = propertySchema
			required = append(required, name)
		}
		sort.Strings(required)
		if requiredAny, ok := v["required"].([]any); ok && len(requiredAny) == len(required) {
			// keep the declared order when nothing was added
			required = required[:0]
			for _, item := range requiredAny {
				name, _ := item.(string)
				required = append(required, name)
			}
		}
		v["required"] = required
		v["additionalProperties"] = false
	}
	if items, ok := v["items"]; ok {
		v["items"] = strictifySchemaNode(items)
	}
	return v
}

func makeSchemaNullable(schema any) any {
	m, ok := schema.(map[string]any)
	if !ok {
		return schema
	}
	switch t := m["type"].(type) {
	case string:
		if t != "null" {
			m["type"] = []any{t, "null"}
		}
	case []any:
		for _, item := range t {
			if name, _ := item.(string); name == "null" {
				return m
			}
		}
		m["type"] = append(t, "null")
	}
	return m
}

func applyRequestDefaults(ctx context.Context, payload map[string]any, model string) {
	payload["truncation"] = defaultTruncation
	reasoningEffort := resolveReasoningEffort(ctx)
	if supportsReasoning(model) {
		payload["reasoning"] = map[string]any{"effort": reasoningEffort}
	}
	if supportsSamplingParams(model, reasoningEffort) {
		payload["temperature"] = defaultTemperature
		payload["top_p"] = defaultTopP
	}
}

func resolveReasoningEffort(ctx context.Context) string {
	profile, ok := llm.RequestProfileFromContext(ctx)
	if !ok {
		return defaultReasoningEffort
	}
	return normalizeReasoningEffort(profile.ReasoningEffort)
}

func normalizeReasoningEffort(effort string) string {
	switch strings.ToLower(strings.TrimSpace(effort)) {
	case "none":
		return "none"
	case "minimal":
		return "minimal"
	case "low":
		return "low"
	case "high":
		return "high"
	default:
		return defaultReasoningEffort
	}
}

// supportsReasoning reports whether the model accepts a reasoning block. The
// gpt-4 family rejects it.
func supportsReasoning(model string) bool {
	name := strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(name, "gpt-5") {
		return true
	}
	return len(name) > 1 && name[0] == 'o' && name[1] >= '0' && name[1] <= '9'
}

func supportsSamplingParams(model, reasoningEffort string) bool {
	name := strings.ToLower(strings.TrimSpace(model))
	effort := strings.ToLower(strings.TrimSpace(reasoningEffort))
	if name == "" {
		return true
	}
	// gpt-5.1 and gpt-5.2 accept temperature/top_p only with reasoning effort none;
	// the rest of the gpt-5 family and the o-series reject them outright.
	if strings.HasPrefix(name, "gpt-5.2") || strings.HasPrefix(name, "gpt-5.1") {
		return effort == "none"
	}
	if strings.HasPrefix(name, "gpt-5") {
		return false
	}
	return !supportsReasoning(name)
}

func readErrorBody(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return strings.TrimSpace(string(body))
}

func unauthorizedError(resp *http.Response, model string) error {
	if resp == nil {
		return llm.ErrUnauthorized
	}
	return fmt.Errorf(
		"%w: status=%s model=%s request_id=%s body=%q",
		llm.ErrUnauthorized,
		resp.Status,
		strings.TrimSpace(model),
		strings.TrimSpace(resp.Header.Get("x-request-id")),
		readErrorBody(resp),
	)
}

func (c *Client) BaseURL() (*url.URL, error) {
	return url.Parse(c.baseURL)
}
