package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ollama "github.com/ollama/ollama/api"
)

// Ollama talks to a local or remote Ollama server.
type Ollama struct {
	client *ollama.Client
	model  string
}

// NewOllama uses cfg.BaseURL when set and OLLAMA_HOST otherwise.
func NewOllama(cfg Config) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required for the ollama provider")
	}

	var client *ollama.Client
	if cfg.BaseURL != "" {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parse ollama base url: %w", err)
		}
		client = ollama.NewClient(base, &http.Client{Timeout: cfg.Timeout})
	} else {
		c, err := ollama.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("could not create ollama client: %w", err)
		}
		client = c
	}

	return &Ollama{client: client, model: strings.TrimPrefix(cfg.Model, "ollama:")}, nil
}

func (o *Ollama) Name() string { return ProviderOllama }

func (o *Ollama) Chat(ctx context.Context, messages []Message) (string, Usage, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	req := &ollama.ChatRequest{
		Model:    o.model,
		Messages: msgs,
		Options: map[string]any{
			"temperature": 0.2,
		},
	}

	var (
		b     strings.Builder
		usage Usage
	)
	err := o.client.Chat(ctx, req, func(res ollama.ChatResponse) error {
		b.WriteString(res.Message.Content)
		if res.Done {
			usage = Usage{
				PromptTokens:     res.PromptEvalCount,
				CompletionTokens: res.EvalCount,
				TotalTokens:      res.PromptEvalCount + res.EvalCount,
			}
		}
		return nil
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("ollama chat failed: %w", err)
	}
	return b.String(), usage, nil
}
