// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pdiddy/pdfcoder/pkg/types"
)

const (
	defaultModel             = openai.ChatModelGPT4o
	defaultMaxResponseTokens = 500
)

// OpenAIBackend classifies text with the OpenAI chat completions API. The
// client is built once and reused for every call of a run.
type OpenAIBackend struct {
	client    openai.Client
	model     openai.ChatModel
	maxTokens int64
	system    string
}

// NewOpenAIBackend builds a backend for the given taxonomy. The SDK's own
// retries are disabled: a failed call fails its chunk.
func NewOpenAIBackend(cfg types.AIConfig, tx Taxonomy) (*OpenAIBackend, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	system, err := tx.SystemPrompt()
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	maxTokens := int64(cfg.MaxResponseTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxResponseTokens
	}

	return &OpenAIBackend{
		client:    openai.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
		system:    system,
	}, nil
}

// Classify sends one chunk's text and returns the trimmed response content.
func (b *OpenAIBackend) Classify(ctx context.Context, text string) (string, error) {
	user, err := UserPrompt(text)
	if err != nil {
		return "", err
	}

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: b.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(b.system),
			openai.UserMessage(user),
		},
		MaxTokens: openai.Int(b.maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
