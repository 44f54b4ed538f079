package imagegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"

	"storyreel/config"
)

func TestOpenAIGenerateAndSave(t *testing.T) {
	var req struct {
		Prompt string `json:"prompt"`
		Model  string `json:"model"`
		N      int    `json:"n"`
		Size   string `json:"size"`
	}

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/v1/images/generations", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"created":1,"data":[{"url":"%s/files/cat.png"}]}`, srv.URL)
	})
	mux.HandleFunc("/files/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PNGDATA"))
	})

	g, err := NewOpenAI(config.ImageConfig{
		APIKey:  "k",
		BaseURL: srv.URL + "/v1/",
		Model:   "dall-e-3",
	}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	path := filepath.Join(t.TempDir(), "001_picture_prompt.png")
	if err := Save(context.Background(), g, srv.Client(), "a cat", config.DefaultImageSize, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil || string(b) != "PNGDATA" {
		t.Fatalf("image = %q, err = %v", b, err)
	}
	if req.Prompt != "a cat" || req.Model != "dall-e-3" || req.N != 1 || req.Size != "1024x1024" {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestOpenAIGenerateNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"created":1,"data":[]}`))
	}))
	defer srv.Close()

	g, err := NewOpenAI(config.ImageConfig{APIKey: "k", BaseURL: srv.URL + "/", Model: "dall-e-3"}, option.WithMaxRetries(0))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	if _, err := g.Generate(context.Background(), "p", "1024x1024"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("got %v; want ErrNoImage", err)
	}
}

func TestDownloadLeavesNothingOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "002_picture_prompt.png")
	err := Download(context.Background(), srv.Client(), srv.URL+"/x.png", path)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("got %v; want 404 error", err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(config.ImageConfig{}); err == nil {
		t.Fatalf("expected error without API key")
	}
}
