package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"docuchat/internal/apperr"
	"docuchat/internal/rag/interfaces"
)

// OpenAI is a generation client for the OpenAI chat completion API.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ interfaces.LLM = (*OpenAI)(nil)

// NewOpenAI creates a new OpenAI generation client.
func NewOpenAI(model, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)
	return &OpenAI{client: client, model: model}, nil
}

// Generate sends the prompt as a single user message and returns the
// model's reply.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", apperr.Generation(err, "openai chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Generation(nil, "openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
