package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestNewOpenAIGeneratorRequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestOpenAIGeneratorSendsContextAndSampling(t *testing.T) {
	var captured map[string]interface{}
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Study chapter 3.  "}}],"usage":{"total_tokens":12}}`))
	})

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	answer, err := generator.Generate(context.Background(), Prompt{Context: "You are an AI assistant.", Question: "What next?"})
	require.NoError(t, err)
	require.Equal(t, "Study chapter 3.", answer)

	require.Equal(t, "gpt-4o-mini", captured["model"])
	require.InDelta(t, 0.7, captured["temperature"], 0.0001)
	require.EqualValues(t, 1024, captured["max_tokens"])

	messages, ok := captured["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})
	require.Equal(t, "You are an AI assistant.", system["content"])
	user := messages[1].(map[string]interface{})
	require.Equal(t, "User Question: What next?", user["content"])
}

func TestOpenAIGeneratorReturnsEmptyWithoutChoices(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	})

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	answer, err := generator.Generate(context.Background(), Prompt{Question: "hi"})
	require.NoError(t, err)
	require.Empty(t, answer)
}

func TestOpenAIGeneratorWrapsUpstreamErrors(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	})

	generator, err := NewOpenAIGenerator(OpenAIConfig{APIKey: "test", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = generator.Generate(context.Background(), Prompt{Question: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "openai generate")
}
