package stories

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/vartanbeno/go-reddit/v2/reddit"

	"story-video-pipeline/config"
	"story-video-pipeline/types"
)

// Fetcher tops the story queue up with well-received text posts from a
// subreddit. Read-only access, no credentials needed.
type Fetcher struct {
	client *reddit.Client
	cfg    config.ResearchConfig
}

func NewFetcher(cfg config.ResearchConfig) (*Fetcher, error) {
	client, err := reddit.NewReadonlyClient()
	if err != nil {
		return nil, fmt.Errorf("create reddit client: %w", err)
	}
	return &Fetcher{client: client, cfg: cfg}, nil
}

// FetchInto writes new story files into storiesDir, one per qualifying post.
// Posts already on disk (matched by title hash) are skipped, so repeated
// runs do not duplicate the queue. Returns the number of new stories.
func (f *Fetcher) FetchInto(ctx context.Context, storiesDir string) (int, error) {
	log.Printf("[stories] Fetching top posts from r/%s...", f.cfg.Subreddit)

	posts, _, err := f.client.Subreddit.TopPosts(ctx, f.cfg.Subreddit, &reddit.ListPostOptions{
		ListOptions: reddit.ListOptions{Limit: f.cfg.Limit},
		Time:        "week",
	})
	if err != nil {
		return 0, fmt.Errorf("fetch top posts: %w", err)
	}

	added := 0
	for _, post := range posts {
		if post.Title == "" || len(post.Body) < f.cfg.MinBodyLen {
			continue
		}

		outFile := filepath.Join(storiesDir, fmt.Sprintf("reddit_%s.txt", types.StoryHash(post.Title)))
		if _, err := os.Stat(outFile); err == nil {
			continue
		}

		content := post.Title + "\n\n" + post.Body + "\n"
		if err := os.WriteFile(outFile, []byte(content), 0644); err != nil {
			return added, fmt.Errorf("write story %s: %w", filepath.Base(outFile), err)
		}
		log.Printf("[stories] ✅ Queued: %s", truncate(post.Title, 60))
		added++
	}

	log.Printf("[stories] %d new stories queued", added)
	return added, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
