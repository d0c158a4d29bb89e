package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"

	"github.com/formbricks/insights/internal/insighterrors"
	"github.com/formbricks/insights/internal/llm"
)

// ChatClient calls the chat completions endpoint. It implements llm.Completer and llm.ChatModel.
type ChatClient struct {
	sdk         openaisdk.Client
	model       string
	temperature *float64
}

// NewChatClient creates a chat completions client.
func NewChatClient(apiKey string, opts ...ClientOption) (*ChatClient, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := newConfig(opts)
	if cfg.model == "" {
		return nil, ErrMissingModel
	}

	return &ChatClient{
		sdk:         newSDK(apiKey, cfg),
		model:       cfg.model,
		temperature: cfg.temperature,
	}, nil
}

// Complete sends prompt as a single user message.
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []llm.Message{llm.User(prompt)})
}

// Chat sends the conversation and returns the assistant reply. Failures are service errors.
func (c *ChatClient) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.model),
		Messages: toSDKMessages(messages),
	}
	if c.temperature != nil {
		params.Temperature = param.NewOpt(*c.temperature)
	}

	start := time.Now()

	resp, err := c.sdk.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", insighterrors.NewServiceError("llm", fmt.Errorf("chat completion: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", insighterrors.NewServiceError("llm", ErrNoChoiceInResponse)
	}

	slog.DebugContext(ctx, "llm: completion received",
		"model", c.model,
		"messages", len(messages),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return resp.Choices[0].Message.Content, nil
}

func toSDKMessages(messages []llm.Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))

	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}

	return out
}

var (
	_ llm.Completer = (*ChatClient)(nil)
	_ llm.ChatModel = (*ChatClient)(nil)
)
