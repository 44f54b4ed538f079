// Package planner turns a story into scenes and illustration prompts with a
// chat model and parses the model's replies into an ordered scene list.
package planner

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"storyreel/config"
	"storyreel/types"
)

// Planner is the language model collaborator. Both calls return the raw reply
// text; ParseSceneMap turns a reply into the ordered mapping.
type Planner interface {
	SplitScenes(ctx context.Context, story string) (string, error)
	DraftPrompts(ctx context.Context, splitReply string) (string, error)
}

// Plan runs both planner calls and pairs scenes with their prompts.
func Plan(ctx context.Context, p Planner, story string) ([]types.Scene, error) {
	if strings.TrimSpace(story) == "" {
		return nil, types.ErrEmptyStory
	}

	start := time.Now()
	splitReply, err := p.SplitScenes(ctx, story)
	if err != nil {
		return nil, fmt.Errorf("failed to split story: %w", err)
	}
	sceneMap, err := ParseSceneMap(splitReply)
	if err != nil {
		return nil, err
	}
	log.Printf("Planner split story into %d scenes (%v)", len(sceneMap), time.Since(start).Round(time.Millisecond))

	promptReply, err := p.DraftPrompts(ctx, splitReply)
	if err != nil {
		return nil, fmt.Errorf("failed to draft picture prompts: %w", err)
	}
	promptMap, err := ParseSceneMap(promptReply)
	if err != nil {
		return nil, err
	}

	return Pair(sceneMap, promptMap)
}

// New returns the planner selected by cfg.Provider.
func New(cfg config.PlannerConfig) (Planner, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAI(cfg)
	case "cohere":
		return NewCohere(cfg)
	default:
		return nil, fmt.Errorf("unknown planner provider %q", cfg.Provider)
	}
}
