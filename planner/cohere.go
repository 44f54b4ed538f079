package planner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/option"

	"storyreel/config"
)

// DefaultCohereModel is used when PLANNER_MODEL is unset
const DefaultCohereModel = "command-r-plus"

// Cohere plans with the Cohere chat API.
type Cohere struct {
	client *cohereclient.Client
	model  string
}

// NewCohere builds a Cohere planner. Extra client options are appended after
// the configured ones.
func NewCohere(cfg config.PlannerConfig, opts ...option.RequestOption) (*Cohere, error) {
	if cfg.CohereAPIKey == "" {
		return nil, errors.New("COHERE_API_KEY environment variable not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultCohereModel
	}

	httpClient := &http.Client{Timeout: 120 * time.Second}
	base := []option.RequestOption{
		option.WithToken(cfg.CohereAPIKey),
		option.WithHTTPClient(httpClient),
	}

	return &Cohere{
		client: cohereclient.NewClient(append(base, opts...)...),
		model:  model,
	}, nil
}

func (c *Cohere) SplitScenes(ctx context.Context, story string) (string, error) {
	return c.complete(ctx, SplitPrompt, story)
}

func (c *Cohere) DraftPrompts(ctx context.Context, splitReply string) (string, error) {
	return c.complete(ctx, PicturePrompt, splitReply)
}

func (c *Cohere) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat(ctx, &cohere.ChatRequest{
		Message:  user,
		Preamble: cohere.String(system),
		Model:    cohere.String(c.model),
	})
	if err != nil {
		return "", fmt.Errorf("cohere chat error: %w", err)
	}
	if resp == nil {
		return "", errors.New("cohere chat returned empty response")
	}
	return resp.Text, nil
}
