// Package imagegen renders scene prompts into illustrations.
package imagegen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"storyreel/config"
)

// ErrNoImage is returned when the service answers without an image URL.
var ErrNoImage = errors.New("image service returned no image")

// Generator turns a prompt into the URL of a generated image.
type Generator interface {
	Generate(ctx context.Context, prompt, size string) (string, error)
}

// OpenAI generates images with the OpenAI images API.
type OpenAI struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAI builds an image generator. Extra request options are appended
// after the configured ones.
func NewOpenAI(cfg config.ImageConfig, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	base := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		base = append(base, option.WithBaseURL(cfg.BaseURL))
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultImageTimeout
	}

	return &OpenAI{
		client:  openai.NewClient(append(base, opts...)...),
		model:   cfg.Model,
		timeout: timeout,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt, size string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt: prompt,
		Model:  openai.ImageModel(o.model),
		N:      openai.Int(1),
		Size:   openai.ImageGenerateParamsSize(size),
	})
	if err != nil {
		return "", fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", ErrNoImage
	}
	return resp.Data[0].URL, nil
}

// Save generates an image for prompt and downloads it to path.
func Save(ctx context.Context, g Generator, client *http.Client, prompt, size, path string) error {
	url, err := g.Generate(ctx, prompt, size)
	if err != nil {
		return err
	}
	if err := Download(ctx, client, url, path); err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}
	return nil
}

// Download fetches url into path. The body goes to a temporary file first so
// an interrupted download never leaves a truncated image at path.
func Download(ctx context.Context, client *http.Client, url, path string) error {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
