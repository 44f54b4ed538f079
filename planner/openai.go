package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"storyreel/config"
)

// DefaultOpenAIModel is used when PLANNER_MODEL is unset
const DefaultOpenAIModel = "gpt-4o"

// OpenAI plans with the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds an OpenAI planner. Extra request options are appended
// after the configured ones.
func NewOpenAI(cfg config.PlannerConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.OpenAIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	base := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAIBase != "" {
		base = append(base, option.WithBaseURL(cfg.OpenAIBase))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAI{
		client: openai.NewClient(append(base, opts...)...),
		model:  model,
	}, nil
}

func (o *OpenAI) SplitScenes(ctx context.Context, story string) (string, error) {
	return o.complete(ctx, SplitPrompt, story)
}

func (o *OpenAI) DraftPrompts(ctx context.Context, splitReply string) (string, error) {
	return o.complete(ctx, PicturePrompt, splitReply)
}

func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
