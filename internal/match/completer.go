package match

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/johntannerworthington/icypeascontactgenerator/pkg/anthropic"
	"github.com/johntannerworthington/icypeascontactgenerator/pkg/openai"
)

// OpenAICompleter completes prompts with an OpenAI-compatible chat model in
// JSON mode.
type OpenAICompleter struct {
	client openai.Client
	model  string
}

// NewOpenAICompleter creates a completer. An empty model uses the client default.
func NewOpenAICompleter(client openai.Client, model string) *OpenAICompleter {
	return &OpenAICompleter{client: client, model: model}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	temp := 0.0
	resp, err := c.client.ChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    &temp,
		ResponseFormat: &openai.ResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{Tokens: int64(resp.Usage.TotalTokens)}, eris.New("match: completion has no choices")
	}
	return Completion{Text: resp.Content(), Tokens: int64(resp.Usage.TotalTokens)}, nil
}

// AnthropicCompleter completes prompts with a Claude model.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter creates a completer.
func NewAnthropicCompleter(client anthropic.Client, model string) *AnthropicCompleter {
	return &AnthropicCompleter{client: client, model: model, maxTokens: 32}
}

// Complete implements Completer.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, user string) (Completion, error) {
	temp := 0.0
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: user}},
		Temperature: &temp,
	})
	if err != nil {
		return Completion{}, err
	}
	return Completion{Text: resp.Text(), Tokens: resp.Usage.Total()}, nil
}
