package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/tidwall/gjson"

	"github.com/neurovine/assistant/internal/chat"
	apierrors "github.com/neurovine/assistant/internal/errors"
	"github.com/neurovine/assistant/internal/models"
)

// RESTClient calls the Gemini generateContent endpoint directly over HTTP,
// with a browser TLS fingerprint.
type RESTClient struct {
	apiKey  string
	baseURL string
	opts    clientOptions
	http    HTTPDoer
}

var _ chat.Completer = (*RESTClient)(nil)

// NewRESTClient creates a RESTClient. Unless WithHTTPDoer is given it builds
// a tls-client with a Chrome profile.
func NewRESTClient(apiKey string, opts ...ClientOption) (*RESTClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini-rest backend: %w", apierrors.ErrMissingAPIKey)
	}

	o := applyOptions(opts)
	if o.model == "" {
		o.model = models.DefaultModel.Name
	}

	baseURL := strings.TrimRight(o.baseURL, "/")
	if baseURL == "" {
		baseURL = models.EndpointGeminiAPI
	}

	doer := o.doer
	if doer == nil {
		timeoutSecs := int(o.timeout.Seconds())
		if timeoutSecs <= 0 {
			timeoutSecs = int(DefaultTimeout.Seconds())
		}
		client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(),
			tls_client.WithTimeoutSeconds(timeoutSecs),
			tls_client.WithClientProfile(profiles.Chrome_120),
			tls_client.WithNotFollowRedirects(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		doer = client
	}

	return &RESTClient{apiKey: apiKey, baseURL: baseURL, opts: o, http: doer}, nil
}

// Model returns the default model
func (c *RESTClient) Model() string {
	return c.opts.model
}

type restPart struct {
	Text string `json:"text"`
}

type restContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []restPart `json:"parts"`
}

type restGenerationConfig struct {
	Temperature float32 `json:"temperature"`
}

type restRequest struct {
	Contents          []restContent        `json:"contents"`
	SystemInstruction *restContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  restGenerationConfig `json:"generationConfig"`
}

// buildPayload creates the JSON body for a generateContent request
func buildPayload(req chat.Request) ([]byte, error) {
	body := restRequest{
		Contents:         make([]restContent, 0, len(req.Messages)),
		GenerationConfig: restGenerationConfig{Temperature: req.Temperature},
	}
	for _, m := range req.Messages {
		body.Contents = append(body.Contents, restContent{
			Role:  geminiRole(m.Role),
			Parts: []restPart{{Text: m.Content}},
		})
	}
	if req.SystemInstruction != "" {
		body.SystemInstruction = &restContent{Parts: []restPart{{Text: req.SystemInstruction}}}
	}
	return json.Marshal(body)
}

func (c *RESTClient) endpoint(model string) string {
	return fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, models.GeminiAPIVersion, model)
}

// Complete sends the transcript and returns the generated text
func (c *RESTClient) Complete(ctx context.Context, req chat.Request) (string, error) {
	out, err := c.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return out.Text(), nil
}

// Generate sends the transcript and returns the parsed response
func (c *RESTClient) Generate(ctx context.Context, req chat.Request) (*models.ModelOutput, error) {
	ctx, cancel := withTimeout(ctx, c.opts.timeout)
	defer cancel()

	model := pickModel(req, c.opts.model)
	endpoint := c.endpoint(model)

	payload, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("failed to build payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range models.DefaultHeaders() {
		httpReq.Header.Set(key, value)
	}
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, apierrors.NewTimeoutError("generate content", err)
		case errors.Is(ctx.Err(), context.Canceled):
			return nil, ctx.Err()
		default:
			return nil, apierrors.NewNetworkError("generate content", endpoint, err)
		}
	}
	defer func() {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierrors.NewNetworkError("read response", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := gjson.GetBytes(body, PathErrorMessage).String()
		if detail == "" {
			detail = string(body)
		}
		apiErr := apierrors.FromStatus(resp.StatusCode, endpoint, "generate content", detail)
		var modelErr *apierrors.ModelError
		if errors.As(apiErr, &modelErr) {
			modelErr.Model = model
		}
		return nil, apiErr
	}

	out, err := parseResponse(body)
	if err != nil {
		return nil, err
	}
	if out.IsBlocked() {
		reason := out.BlockReason
		if reason == "" {
			reason = out.FinishReason()
		}
		return nil, apierrors.NewBlockedError(reason)
	}
	return out, nil
}

// parseResponse extracts candidates and metadata from a generateContent body
func parseResponse(body []byte) (*models.ModelOutput, error) {
	if !gjson.ValidBytes(body) {
		return nil, apierrors.NewParseError("response is not valid JSON", "")
	}

	parsed := gjson.ParseBytes(body)

	out := &models.ModelOutput{
		BlockReason:  parsed.Get(PathPromptBlock).String(),
		ModelVersion: parsed.Get(PathModelVersion).String(),
		Usage: models.Usage{
			PromptTokens: parsed.Get(PathUsagePrompt).Int(),
			OutputTokens: parsed.Get(PathUsageOutput).Int(),
			TotalTokens:  parsed.Get(PathUsageTotal).Int(),
		},
	}

	candidateList := parsed.Get(PathCandidates)
	if !candidateList.Exists() {
		// A blocked prompt comes back without candidates
		if out.BlockReason != "" {
			return out, nil
		}
		return nil, apierrors.NewParseError("no candidates found", PathCandidates)
	}
	if !candidateList.IsArray() {
		return nil, apierrors.NewParseError("candidates is not a list", PathCandidates)
	}

	candidateList.ForEach(func(_, candValue gjson.Result) bool {
		var sb strings.Builder
		candValue.Get(PathCandParts).ForEach(func(_, part gjson.Result) bool {
			if part.Get(PathPartThought).Bool() {
				return true // Skip thought summaries
			}
			sb.WriteString(part.Get(PathPartText).String())
			return true
		})

		out.Candidates = append(out.Candidates, models.Candidate{
			Text:         sb.String(),
			FinishReason: candValue.Get(PathCandFinishReason).String(),
		})
		return true
	})

	return out, nil
}
