package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/agri-advisory-service/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

const systemPrompt = "You are an agricultural advisory assistant. Answer only with the JSON requested."

// openaiGenerator implements domain.TextGenerator using the chat completions API.
type openaiGenerator struct {
	client *openai.Client
	model  string
}

func newOpenAI(cfg Config) *openaiGenerator {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openaiGenerator{client: openai.NewClientWithConfig(oc), model: model}
}

func (g *openaiGenerator) Name() string { return ProviderOpenAI + "/" + g.model }

func (g *openaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: generationTemperature,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &domain.UpstreamError{Upstream: ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
