// Package anthropic provides a model wrapper for the Anthropic Claude API,
// used when the configuration selects the direct Anthropic provider instead
// of routing through OpenRouter.
package anthropic

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/liminalsalt/salt/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	// Model is the default model id, overridable per request.
	Model anthropic.Model
	// MaxTokens bounds each completion.
	MaxTokens int64
	// Timeout bounds each completion call.
	Timeout time.Duration
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client anthropic.Client
	opts   Options
}

// NewModel creates a new Anthropic model using the official client.
func NewModel(apiKey string, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:     anthropic.ModelClaude3_5Sonnet20241022,
		MaxTokens: 4096,
		Timeout:   120 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(opts.Timeout),
	)
	return &Model{client: client, opts: opts}
}

// Complete implements model.Model. System messages become the Messages API
// system blocks; the remaining transcript maps onto user/assistant turns.
func (m *Model) Complete(ctx context.Context, req model.Request) (string, error) {
	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam
	for _, msg := range req.Messages {
		switch msg.Role {
		case "system":
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	modelID := m.opts.Model
	if req.Model != "" {
		modelID = anthropic.Model(req.Model)
	}

	params := anthropic.MessageNewParams{
		Model:     modelID,
		Messages:  messages,
		MaxTokens: m.opts.MaxTokens,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, nil
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{Name: string(m.opts.Model), Provider: "anthropic"}
}
