package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const generationTemperature float32 = 0.2

// geminiGenerator implements domain.TextGenerator using the Gemini API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func newGemini(ctx context.Context, cfg Config) (*geminiGenerator, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &geminiGenerator{client: client, model: model}, nil
}

func (g *geminiGenerator) Name() string { return ProviderGemini + "/" + g.model }

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := generationTemperature
	config := &genai.GenerateContentConfig{
		Temperature:    &temperature,
		CandidateCount: 1,
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := collectText(resp)
	if strings.TrimSpace(text) == "" {
		return "", errEmptyResponse
	}
	return text, nil
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.Text != "" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}
