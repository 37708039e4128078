package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllama_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req["model"])

		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"hello "},"done":false}` + "\n"))
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"world"},"done":true,"prompt_eval_count":12,"eval_count":4}` + "\n"))
	}))
	defer srv.Close()

	o, err := NewOllama(Config{Model: "ollama:llama3", BaseURL: srv.URL})
	require.NoError(t, err)

	out, usage, err := o.Chat(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)
	assert.Equal(t, Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16}, usage)
}

func TestNewOllama_RequiresModel(t *testing.T) {
	_, err := NewOllama(Config{BaseURL: "http://localhost:11434"})
	assert.Error(t, err)
}
