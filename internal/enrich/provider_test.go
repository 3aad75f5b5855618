package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qosha1/easysdk/internal/analyzer"
)

const insightJSON = `{"ProductSerializer": {"summary": "A sellable item.", "fields": {"name": "Display name."}}}`

func anthropicResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
	return string(body)
}

func openAIResponse(text string) string {
	body, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": text}},
		},
	})
	return string(body)
}

func TestAnthropicEnricher_Success(t *testing.T) {
	var gotPath, gotKey, gotVersion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		fmt.Fprint(w, anthropicResponse(insightJSON))
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider: "anthropic",
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	insights, err := enricher.Enrich(context.Background(), []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)

	assert.Equal(t, "/messages", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "2023-06-01", gotVersion)
	assert.Equal(t, "A sellable item.", insights.Entities["ProductSerializer"].Summary)
	assert.Equal(t, "Display name.", insights.Entities["ProductSerializer"].Fields["name"])
}

func TestOpenAIEnricher_Success(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, openAIResponse(insightJSON))
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	insights, err := enricher.Enrich(context.Background(), []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)

	assert.Equal(t, "/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "A sellable item.", insights.Entities["ProductSerializer"].Summary)
}

func TestRemoteEnricher_RetriesAfterServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, anthropicResponse(insightJSON))
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider:   "anthropic",
		Model:      "claude-3-5-sonnet-latest",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 2,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	insights, err := enricher.Enrich(context.Background(), []*analyzer.EntityDefinition{productEntity()})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "A sellable item.", insights.Entities["ProductSerializer"].Summary)
}

func TestRemoteEnricher_GivesUpAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider:   "anthropic",
		Model:      "claude-3-5-sonnet-latest",
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: 1,
		BaseURL:    server.URL,
	})
	require.NoError(t, err)

	_, err = enricher.Enrich(context.Background(), []*analyzer.EntityDefinition{productEntity()})
	assert.ErrorContains(t, err, "enrichment failed after 2 attempts")
	assert.ErrorContains(t, err, "status 503")
}

func TestRemoteEnricher_TimeoutLeavesSchemaUntouched(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		fmt.Fprint(w, anthropicResponse(insightJSON))
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider: "anthropic",
		Model:    "claude-3-5-sonnet-latest",
		APIKey:   "test-key",
		Timeout:  100 * time.Millisecond,
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	entity := productEntity()
	schema := &analyzer.AppSchema{Serializers: []*analyzer.EntityDefinition{entity}}

	insights, err := enricher.Enrich(context.Background(), schema.Entities())
	require.Error(t, err)
	require.Nil(t, insights)

	// The caller falls through to Apply with no insights; the structural
	// schema is emitted exactly as extracted.
	Apply(schema, insights)
	assert.Empty(t, entity.Summary)
	for _, field := range entity.Fields {
		assert.Empty(t, field.Description)
	}
}

func TestRemoteEnricher_EmptyBatchSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for empty batch")
	}))
	defer server.Close()

	enricher, err := New(Config{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
		BaseURL:  server.URL,
	})
	require.NoError(t, err)

	insights, err := enricher.Enrich(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, insights.Entities)
}
