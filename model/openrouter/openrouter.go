// Package openrouter implements model.Model against the OpenRouter API.
// OpenRouter is OpenAI-compatible, so chat completions go through the
// official OpenAI client pointed at the OpenRouter base URL with bearer
// auth and the optional attribution headers OpenRouter recognizes.
package openrouter

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/liminalsalt/salt/model"
)

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Options configure the OpenRouter model adapter.
type Options struct {
	// BaseURL overrides the API root (tests point this at a local server).
	BaseURL string
	// Model is the default model id, overridable per request.
	Model string
	// SiteURL and SiteName become the HTTP-Referer / X-Title attribution
	// headers when non-empty.
	SiteURL  string
	SiteName string
	// Timeout bounds each completion call.
	Timeout time.Duration
}

// Model wraps the OpenRouter chat completions endpoint behind model.Model.
type Model struct {
	client openai.Client
	opts   Options
}

// NewModel creates an OpenRouter-backed model for the given API key.
func NewModel(apiKey string, optFns ...func(o *Options)) *Model {
	opts := Options{
		BaseURL: DefaultBaseURL,
		Timeout: 120 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithRequestTimeout(opts.Timeout),
	}
	if opts.SiteURL != "" {
		reqOpts = append(reqOpts, option.WithHeader("HTTP-Referer", opts.SiteURL))
	}
	if opts.SiteName != "" {
		reqOpts = append(reqOpts, option.WithHeader("X-Title", opts.SiteName))
	}

	return &Model{client: openai.NewClient(reqOpts...), opts: opts}
}

// Complete implements model.Model.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(msg.Content))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	modelID := req.Model
	if modelID == "" {
		modelID = m.opts.Model
	}

	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    modelID,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// Info returns metadata describing this OpenRouter model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.opts.Model, Provider: "openrouter"}
}
