package storysource

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"storyreel/types"
)

// FetchFeed parses an RSS or Atom feed and turns its newest count items into
// job requests. Items without a link carry their feed text as the story.
func FetchFeed(ctx context.Context, client *http.Client, feedURL string, count int) ([]types.JobRequest, error) {
	parser := gofeed.NewParser()
	if client != nil {
		parser.Client = client
	}

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	n := min(len(feed.Items), count)
	reqs := make([]types.JobRequest, 0, n)
	for _, item := range feed.Items[:n] {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}

		req := types.JobRequest{Title: title, StoryURL: item.Link}
		switch {
		case item.Link != "":
			req.ID = types.GenerateID(item.Link)
		case item.GUID != "":
			req.ID = types.GenerateID(item.GUID)
		default:
			req.ID = types.GenerateID(title)
		}
		if item.Link == "" {
			req.Story = item.Content
			if req.Story == "" {
				req.Story = item.Description
			}
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
