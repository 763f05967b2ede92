package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"querypilot/internal/constants"
)

// OpenAIClient is the live client for the OpenAI completion API
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewOpenAIClient(config Config) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	model := config.Model
	if model == "" {
		model = constants.OpenAIModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = constants.OpenAIMaxTokens
	}

	return &OpenAIClient{
		client:      openai.NewClient(config.APIKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
	}, nil
}

func (c *OpenAIClient) GenerateCompletion(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: req.SystemPrompt,
	})
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:               model,
		Messages:            messages,
		MaxCompletionTokens: maxTokens,
		Temperature:         float32(c.temperature),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return textResponse(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) GetModelInfo() ModelInfo {
	return ModelInfo{
		Name:      c.model,
		Provider:  constants.OpenAI,
		MaxTokens: c.maxTokens,
	}
}
