package images

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"story-video-pipeline/provider"
)

// pollinationsProvider fetches images from Pollinations.ai (free, no key
// needed). The seed parameter keeps repeated fetches of the same scene
// reproducible.
type pollinationsProvider struct {
	width      int
	height     int
	httpClient *http.Client
}

func newPollinations(width, height int) *pollinationsProvider {
	return &pollinationsProvider{
		width:      width,
		height:     height,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (p *pollinationsProvider) Name() string { return "pollinations" }

func (p *pollinationsProvider) Generate(ctx context.Context, req provider.Request) error {
	imageURL := fmt.Sprintf(
		"https://image.pollinations.ai/prompt/%s?width=%d&height=%d&nologo=true&model=flux&seed=%d",
		url.PathEscape(req.Scene.ImagePrompt),
		p.width, p.height, req.Seed,
	)

	log.Printf("[images] Pollinations scene %d: %q", req.Scene.Index, truncateStr(req.Scene.ImagePrompt, 60))

	httpReq, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("User-Agent", "Mozilla/5.0 (compatible; StoryVideoPipeline/1.0)")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &provider.RateLimitError{Err: fmt.Errorf("pollinations HTTP 429")}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from Pollinations", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	// Tiny bodies are error pages, not images.
	if len(data) < 100 {
		return fmt.Errorf("response too small (%d bytes) — likely an error", len(data))
	}

	return os.WriteFile(req.OutPath, data, 0644)
}
