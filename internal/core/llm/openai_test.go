package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAI_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)

		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "{\"issue_analysis\": \"x\"}"}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(Config{APIKey: "sk-test", Model: "gpt-test", BaseURL: srv.URL + "/v1/"})
	require.NoError(t, err)

	out, usage, err := o.Chat(context.Background(), []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"issue_analysis": "x"}`, out)
	assert.Equal(t, Usage{PromptTokens: 120, CompletionTokens: 30, TotalTokens: 150}, usage)
}

func TestOpenAI_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "slow down"}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = o.Chat(context.Background(), nil)
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.True(t, transient(err))
}

func TestOpenAI_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	o, err := NewOpenAI(Config{APIKey: "k", BaseURL: srv.URL})
	require.NoError(t, err)

	_, _, err = o.Chat(context.Background(), nil)
	assert.EqualError(t, err, "no choices in response")
}

func TestNew(t *testing.T) {
	_, err := New(Config{Provider: "openai"})
	assert.Error(t, err, "api key required")

	_, err = New(Config{Provider: "claude"})
	assert.Error(t, err)

	p, err := New(Config{Provider: "ollama", Model: "llama3", BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, p.Name())
}

func TestTransient(t *testing.T) {
	assert.True(t, transient(&StatusError{StatusCode: 503}))
	assert.False(t, transient(&StatusError{StatusCode: 401}))
	assert.False(t, transient(context.Canceled))
	assert.True(t, transient(context.DeadlineExceeded))
	assert.False(t, transient(errors.New("no choices in response")))
}
