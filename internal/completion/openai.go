package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"

	generationTemperature = 0.2
	generationTopP        = 0.8
	generationTopK        = 64
	generationMaxTokens   = 8192
)

// OpenAIProvider calls the Chat Completions API. SDK retries are disabled so
// that RetryingClient owns the backoff policy.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

func NewOpenAIProvider(apiKey string, model string, opts ...option.RequestOption) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (p *OpenAIProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := req.validate(); err != nil {
		return "", &Error{Kind: KindPermanent, Err: err}
	}

	var parts []openai.ChatCompletionContentPartUnionParam
	if req.Prompt != "" {
		parts = append(parts, openai.TextContentPart(req.Prompt))
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: dataURL(req.Image),
		}))
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            []openai.ChatCompletionMessageParamUnion{openai.UserMessage(parts)},
		Temperature:         openai.Float(generationTemperature),
		TopP:                openai.Float(generationTopP),
		MaxCompletionTokens: openai.Int(generationMaxTokens),
	})
	if err != nil {
		return "", openAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindPermanent, Message: "response has no choices"}
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", &Error{
			Kind:    KindPermanent,
			Message: fmt.Sprintf("output text is missing (finish reason = %s)", resp.Choices[0].FinishReason),
		}
	}

	return text, nil
}

func openAIError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		kind := KindPermanent
		if apierr.StatusCode == http.StatusTooManyRequests {
			kind = KindRateLimited
		}

		return &Error{
			Kind:       kind,
			StatusCode: apierr.StatusCode,
			Message:    apierr.Error(),
			Err:        err,
		}
	}

	return &Error{Kind: KindPermanent, Message: fmt.Sprintf("do request: %v", err), Err: err}
}
