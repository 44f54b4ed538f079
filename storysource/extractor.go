// Package storysource turns web pages and feeds into story text for jobs.
package storysource

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	readability "github.com/go-shiori/go-readability"

	"storyreel/config"
	"storyreel/types"
)

// WorkerCount bounds concurrent page extractions in Fill.
const WorkerCount = 5

// Extractor reads the main text of a web page.
type Extractor struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewExtractor returns an Extractor using config.ExtractorTimeout.
func NewExtractor() *Extractor {
	return &Extractor{Client: http.DefaultClient, Timeout: config.ExtractorTimeout}
}

// FetchStory downloads pageURL and returns its readable text.
func (e *Extractor) FetchStory(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", fmt.Errorf("story URL is empty")
	}
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid story URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch story page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("story page returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", types.ErrEmptyStory
	}
	log.Printf("✓ Extracted: %s", article.Title)
	return text, nil
}

// Fill fetches the story of every request that only has a StoryURL, using a
// small worker pool. Requests whose page fails are dropped from the result.
func Fill(ctx context.Context, e *Extractor, reqs []types.JobRequest) []types.JobRequest {
	var wg sync.WaitGroup
	ok := make([]bool, len(reqs))
	queue := make(chan int, len(reqs))

	for w := 0; w < WorkerCount; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range queue {
				if reqs[i].Story != "" {
					ok[i] = true
					continue
				}
				story, err := e.FetchStory(ctx, reqs[i].StoryURL)
				if err != nil {
					log.Printf("[Worker %d] Failed to extract %s: %v", workerID, reqs[i].StoryURL, err)
					continue
				}
				reqs[i].Story = story
				ok[i] = true
			}
		}(w)
	}

	for i := range reqs {
		queue <- i
	}
	close(queue)
	wg.Wait()

	filled := make([]types.JobRequest, 0, len(reqs))
	for i, r := range reqs {
		if ok[i] {
			filled = append(filled, r)
		}
	}
	return filled
}
