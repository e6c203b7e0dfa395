package summarizer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var errNoChoices = errors.New("completion returned no choices")

type openAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// newAzureOpenAI targets an Azure OpenAI deployment. Endpoint, APIKey and
// Deployment are required.
func newAzureOpenAI(cfg Config) (*openAIProvider, error) {
	if cfg.Endpoint == "" || cfg.APIKey == "" || cfg.Deployment == "" {
		return nil, errors.New("azure-openai requires endpoint, api_key and deployment")
	}

	clientCfg := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	clientCfg.APIVersion = cfg.APIVersion
	if clientCfg.APIVersion == "" {
		clientCfg.APIVersion = DefaultAPIVersion
	}
	deployment := cfg.Deployment
	clientCfg.AzureModelMapperFunc = func(string) string { return deployment }

	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       deployment,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// newOpenAI targets the OpenAI API, or any compatible endpoint when
// Endpoint is set. APIKey and Model are required.
func newOpenAI(cfg Config) (*openAIProvider, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("openai requires api_key and model")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.Endpoint, "/")
	}

	return &openAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (p *openAIProvider) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}
