package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/qosha1/easysdk/internal/analyzer"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	openAIBaseURL    = "https://api.openai.com/v1"

	// maxResponseChars caps provider output embedded in error messages.
	maxResponseChars = 200
)

// remoteEnricher is the shared request loop for HTTP providers. The
// provider-specific part is reduced to a single complete function.
type remoteEnricher struct {
	cfg      Config
	client   *http.Client
	limiter  *SlidingWindow
	name     string
	complete func(ctx context.Context, prompt string) (string, error)
}

func (r *remoteEnricher) Provider() string { return r.name }

func (r *remoteEnricher) Enrich(ctx context.Context, entities []*analyzer.EntityDefinition) (*Insights, error) {
	if len(entities) == 0 {
		return &Insights{Entities: map[string]EntityInsight{}}, nil
	}

	prompt := buildPrompt(entities)

	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx := ctx
		var cancel context.CancelFunc
		if r.cfg.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		}

		response, err := r.complete(callCtx, prompt)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		insights, err := parseInsights(response)
		if err != nil {
			lastErr = err
			continue
		}
		return insights, nil
	}

	return nil, fmt.Errorf("enrichment failed after %d attempts: %w", r.cfg.MaxRetries+1, lastErr)
}

// buildPrompt renders the entities as a compact schema listing and asks for
// strictly additive descriptions in a fixed JSON shape.
func buildPrompt(entities []*analyzer.EntityDefinition) string {
	var b strings.Builder

	b.WriteString("You are documenting an API client SDK. For each entity below, ")
	b.WriteString("write a one-sentence summary and a one-line description per field.\n\n")
	b.WriteString("Respond with only a JSON object of this shape:\n")
	b.WriteString(`{"EntityName": {"summary": "...", "fields": {"field_name": "..."}}}`)
	b.WriteString("\n\nEntities:\n")

	for _, entity := range entities {
		fmt.Fprintf(&b, "\n%s (%s)\n", entity.Name, entity.Kind)
		if entity.Docstring != "" {
			fmt.Fprintf(&b, "  docstring: %s\n", entity.Docstring)
		}
		for _, field := range entity.Fields {
			shape := field.SourceType
			if field.RelatedEntity != "" {
				shape = fmt.Sprintf("%s -> %s", shape, field.RelatedEntity)
			}
			if field.IsArray {
				shape += "[]"
			}
			fmt.Fprintf(&b, "  - %s: %s\n", field.Name, shape)
		}
	}

	return b.String()
}

// parseInsights decodes the provider's JSON answer, tolerating surrounding
// prose by slicing from the first "{" to the last "}".
func parseInsights(response string) (*Insights, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response: %s", truncateForError(response))
	}

	var raw map[string]struct {
		Summary string            `json:"summary"`
		Fields  map[string]string `json:"fields"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decoding insights: %w (response: %s)", err, truncateForError(response))
	}

	insights := &Insights{Entities: make(map[string]EntityInsight, len(raw))}
	for name, entry := range raw {
		insights.Entities[name] = EntityInsight{
			Summary: entry.Summary,
			Fields:  entry.Fields,
		}
	}
	return insights, nil
}

// truncateForError shortens a response body for inclusion in error messages.
func truncateForError(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxResponseChars {
		return s
	}
	return s[:maxResponseChars] + "..."
}

// newAnthropicEnricher builds an enricher backed by the Anthropic Messages
// API.
func newAnthropicEnricher(cfg Config) Enricher {
	r := &remoteEnricher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewSlidingWindow(cfg.CallsPerMinute),
		name:    "anthropic",
	}
	r.complete = func(ctx context.Context, prompt string) (string, error) {
		return anthropicComplete(ctx, r.client, cfg, prompt)
	}
	return r
}

func anthropicComplete(ctx context.Context, client *http.Client, cfg Config, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model":      cfg.Model,
		"max_tokens": 4096,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = anthropicBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncateForError(string(body)))
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Content) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return result.Content[0].Text, nil
}

// newOpenAIEnricher builds an enricher backed by the OpenAI chat completions
// API.
func newOpenAIEnricher(cfg Config) Enricher {
	r := &remoteEnricher{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: NewSlidingWindow(cfg.CallsPerMinute),
		name:    "openai",
	}
	r.complete = func(ctx context.Context, prompt string) (string, error) {
		return openAIComplete(ctx, r.client, cfg, prompt)
	}
	return r
}

func openAIComplete(ctx context.Context, client *http.Client, cfg Config, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 4096,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = openAIBaseURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncateForError(string(body)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return result.Choices[0].Message.Content, nil
}
