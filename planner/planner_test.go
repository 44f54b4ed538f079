package planner

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"storyreel/config"
	"storyreel/types"
)

type fakePlanner struct {
	splitReply  string
	promptReply string
	splitErr    error
	gotSplit    string
}

func (f *fakePlanner) SplitScenes(_ context.Context, story string) (string, error) {
	return f.splitReply, f.splitErr
}

func (f *fakePlanner) DraftPrompts(_ context.Context, splitReply string) (string, error) {
	f.gotSplit = splitReply
	return f.promptReply, nil
}

func TestPlan(t *testing.T) {
	fp := &fakePlanner{
		splitReply:  "```json\n{\"sentence_1\": \"今天天气很好，我们去公园玩。\", \"sentence_2\": \"晚安。\"}\n```",
		promptReply: "```json\n{\"sentence_1\": \"a sunny park\", \"sentence_2\": \"a night sky\"}\n```",
	}

	scenes, err := Plan(context.Background(), fp, "story")
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(scenes) != 2 || scenes[1].Prompt != "a night sky" || scenes[0].Index != 1 {
		t.Fatalf("unexpected scenes: %+v", scenes)
	}
	if fp.gotSplit != fp.splitReply {
		t.Fatalf("prompt drafting should receive the raw split reply")
	}
}

func TestPlanErrors(t *testing.T) {
	if _, err := Plan(context.Background(), &fakePlanner{}, "  "); !errors.Is(err, types.ErrEmptyStory) {
		t.Fatalf("empty story: got %v", err)
	}

	boom := errors.New("boom")
	if _, err := Plan(context.Background(), &fakePlanner{splitErr: boom}, "s"); !errors.Is(err, boom) {
		t.Fatalf("split failure: got %v", err)
	}

	fp := &fakePlanner{splitReply: "no json here"}
	if _, err := Plan(context.Background(), fp, "s"); !errors.Is(err, types.ErrParse) {
		t.Fatalf("unparseable reply: got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New(config.PlannerConfig{Provider: "llama"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
	if _, err := New(config.PlannerConfig{Provider: "openai"}); err == nil {
		t.Fatalf("expected error for missing OpenAI key")
	}
	if _, err := New(config.PlannerConfig{Provider: "cohere"}); err == nil {
		t.Fatalf("expected error for missing Cohere key")
	}
}

func TestOpenAIPlannerSendsSystemPrompt(t *testing.T) {
	var body struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(b, &body); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"sentence_1\":\"a\"}"}}]}`)
	}))
	defer srv.Close()

	p, err := NewOpenAI(config.PlannerConfig{OpenAIKey: "k", OpenAIBase: srv.URL + "/v1/"}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	reply, err := p.SplitScenes(context.Background(), "once upon a time")
	if err != nil {
		t.Fatalf("SplitScenes: %v", err)
	}
	if reply != `{"sentence_1":"a"}` {
		t.Fatalf("reply = %q", reply)
	}
	if body.Model != DefaultOpenAIModel {
		t.Fatalf("model = %q", body.Model)
	}
	if len(body.Messages) != 2 || body.Messages[0].Role != "system" || body.Messages[0].Content != SplitPrompt {
		t.Fatalf("unexpected messages: %+v", body.Messages)
	}
	if body.Messages[1].Content != "once upon a time" {
		t.Fatalf("user message = %q", body.Messages[1].Content)
	}
}
