package api

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
	"github.com/neurovine/assistant/internal/models"
)

// chatCompleter is the subset of *openai.Client used by OpenAIClient.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient talks to any OpenAI compatible chat completions endpoint
type OpenAIClient struct {
	client  chatCompleter
	baseURL string
	opts    clientOptions
}

var _ chat.Completer = (*OpenAIClient)(nil)

// NewOpenAIClient creates an OpenAIClient
func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai backend: %w", apierrors.ErrMissingAPIKey)
	}

	o := applyOptions(opts)
	if o.model == "" {
		o.model = models.ModelGPT4oMini.Name
	}

	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(o.baseURL, "/")
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: cfg.BaseURL,
		opts:    o,
	}, nil
}

// Model returns the default model
func (c *OpenAIClient) Model() string {
	return c.opts.model
}

// Complete sends the transcript and returns the first choice's content
func (c *OpenAIClient) Complete(ctx context.Context, req chat.Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.opts.timeout)
	defer cancel()

	model := pickModel(req, c.opts.model)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req),
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", c.classify(ctx, err, model)
	}

	if len(resp.Choices) == 0 {
		return "", apierrors.NewParseError("no choices in response", "choices")
	}

	choice := resp.Choices[0]
	if string(choice.FinishReason) == "content_filter" && choice.Message.Content == "" {
		return "", apierrors.NewBlockedError(string(choice.FinishReason))
	}
	return choice.Message.Content, nil
}

func toOpenAIMessages(req chat.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleAssistant
		if m.Role == chat.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}

func (c *OpenAIClient) classify(ctx context.Context, err error, model string) error {
	endpoint := c.baseURL + "/chat/completions"

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		mapped := apierrors.FromStatus(apiErr.HTTPStatusCode, endpoint, "chat completion", apiErr.Message)
		var modelErr *apierrors.ModelError
		if errors.As(mapped, &modelErr) {
			modelErr.Model = model
		}
		return mapped
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return apierrors.FromStatus(reqErr.HTTPStatusCode, endpoint, "chat completion", reqErr.Error())
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apierrors.NewTimeoutError("chat completion", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return apierrors.NewNetworkError("chat completion", endpoint, err)
	}
}
