// Package api provides the completion backends used by the conversation
// controller.
package api

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
	"github.com/neurovine/assistant/internal/models"
)

// contentGenerator is the subset of *genai.Models used by GeminiClient.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiClient talks to the Gemini API through the official SDK
type GeminiClient struct {
	models  contentGenerator
	opts    clientOptions
	baseURL string
}

var _ chat.Completer = (*GeminiClient)(nil)

// NewGeminiClient creates a GeminiClient authenticated with an API key
func NewGeminiClient(ctx context.Context, apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini backend: %w", apierrors.ErrMissingAPIKey)
	}

	o := applyOptions(opts)
	if o.model == "" {
		o.model = models.DefaultModel.Name
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	baseURL := o.baseURL
	if baseURL == "" {
		baseURL = models.EndpointGeminiAPI
	}

	return &GeminiClient{models: client.Models, opts: o, baseURL: baseURL}, nil
}

// Model returns the default model
func (c *GeminiClient) Model() string {
	return c.opts.model
}

// Complete sends the transcript and returns the generated text
func (c *GeminiClient) Complete(ctx context.Context, req chat.Request) (string, error) {
	ctx, cancel := withTimeout(ctx, c.opts.timeout)
	defer cancel()

	model := pickModel(req, c.opts.model)

	temperature := req.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := c.models.GenerateContent(ctx, model, toGenAIContents(req.Messages), cfg)
	if err != nil {
		return "", c.classify(ctx, err, model)
	}

	out := outputFromGenAI(resp)
	if out.IsBlocked() {
		reason := out.BlockReason
		if reason == "" {
			reason = out.FinishReason()
		}
		return "", apierrors.NewBlockedError(reason)
	}

	return out.Text(), nil
}

func toGenAIContents(msgs []chat.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(geminiRole(m.Role))))
	}
	return contents
}

func outputFromGenAI(resp *genai.GenerateContentResponse) *models.ModelOutput {
	out := &models.ModelOutput{}
	if resp == nil {
		return out
	}

	if resp.PromptFeedback != nil {
		out.BlockReason = string(resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) > 0 {
		cand := models.Candidate{Text: resp.Text()}
		if resp.Candidates[0] != nil {
			cand.FinishReason = string(resp.Candidates[0].FinishReason)
		}
		out.Candidates = append(out.Candidates, cand)
	}

	return out
}

// classify converts SDK errors into the shared error types
func (c *GeminiClient) classify(ctx context.Context, err error, model string) error {
	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, models.GeminiAPIVersion, model)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apierrors.FromStatus(apiErr.Code, endpoint, "generate content", apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apierrors.FromStatus(apiErrPtr.Code, endpoint, "generate content", apiErrPtr.Message)
	}

	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return apierrors.NewTimeoutError("generate content", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return apierrors.NewNetworkError("generate content", endpoint, err)
	}
}
