package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-1.5-flash"

	geminiAPIVersion        = "v1beta"
	geminiRequestTimeout    = 2 * time.Minute
	geminiResourceExhausted = "RESOURCE_EXHAUSTED"
	geminiDefaultImageMIME  = "image/jpeg"
)

// GeminiProvider calls generateContent through the Gen AI SDK.
type GeminiProvider struct {
	model  string
	client *genai.Client
}

type GeminiOption func(cfg *genai.ClientConfig)

func WithGeminiBaseURL(baseURL string) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = baseURL
	}
}

func WithGeminiHTTPClient(client *http.Client) GeminiOption {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPClient = client
	}
}

func NewGeminiProvider(
	ctx context.Context,
	apiKey string,
	model string,
	opts ...GeminiOption,
) (*GeminiProvider, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: geminiRequestTimeout},
		HTTPOptions: genai.HTTPOptions{
			APIVersion: geminiAPIVersion,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiProvider{model: model, client: client}, nil
}

func (p *GeminiProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", &Error{Kind: KindPermanent, Err: err}
	}

	contents := []*genai.Content{genai.NewContentFromParts(geminiParts(req), genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](generationTemperature),
		TopP:            genai.Ptr[float32](generationTopP),
		TopK:            genai.Ptr[float32](generationTopK),
		MaxOutputTokens: generationMaxTokens,
	})
	if err != nil {
		return "", geminiError(err)
	}

	return geminiText(resp)
}

func geminiParts(req Request) []*genai.Part {
	var parts []*genai.Part
	if req.Prompt != "" {
		parts = append(parts, genai.NewPartFromText(req.Prompt))
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		mimeType := req.Image.MIMEType
		if mimeType == "" {
			mimeType = geminiDefaultImageMIME
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image.Data, mimeType))
	}

	return parts
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", &Error{
				Kind:    KindPermanent,
				Message: fmt.Sprintf("prompt was blocked (block reason = %s)", resp.PromptFeedback.BlockReason),
			}
		}
		return "", &Error{Kind: KindPermanent, Message: "response has no candidates"}
	}

	candidate := resp.Candidates[0]

	var sb strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil {
				sb.WriteString(part.Text)
			}
		}
	}

	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return "", &Error{
			Kind:    KindPermanent,
			Message: fmt.Sprintf("output text is missing (finish reason = %s)", candidate.FinishReason),
		}
	}

	return text, nil
}

func geminiError(err error) error {
	apiErr, ok := asGeminiAPIError(err)
	if !ok {
		return &Error{Kind: KindPermanent, Err: fmt.Errorf("generate content: %w", err)}
	}

	cerr := &Error{
		Kind:       KindPermanent,
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
		Err:        err,
	}
	if cerr.Message == "" {
		cerr.Message = fmt.Sprintf("unexpected status %d", apiErr.Code)
	}

	if apiErr.Code == http.StatusTooManyRequests || apiErr.Status == geminiResourceExhausted {
		cerr.Kind = KindRateLimited
	}

	return cerr
}

func asGeminiAPIError(err error) (genai.APIError, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return *apiErrPtr, true
	}

	return genai.APIError{}, false
}
