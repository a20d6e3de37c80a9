package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"time"

	"story-video-pipeline/config"
	"story-video-pipeline/provider"
)

const replicateAPI = "https://api.replicate.com/v1/models"

// resetsRe matches Replicate's throttle hint, e.g. "resets in ~42s".
var resetsRe = regexp.MustCompile(`resets in ~?(\d+)s`)

// replicateProvider generates images with FLUX models on Replicate using
// synchronous (Prefer: wait) predictions. When a character reference image
// is supplied it switches to the image-to-image model; if that fails it
// falls back to a plain generation before giving up.
type replicateProvider struct {
	apiKey     string
	model      string
	refModel   string
	width      int
	height     int
	httpClient *http.Client
}

func newReplicate(apiKey string, cfg config.ImagesConfig) *replicateProvider {
	return &replicateProvider{
		apiKey:     apiKey,
		model:      cfg.ReplicateModel,
		refModel:   cfg.ReferenceModel,
		width:      cfg.Width,
		height:     cfg.Height,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *replicateProvider) Name() string { return "replicate" }

func (p *replicateProvider) Generate(ctx context.Context, req provider.Request) error {
	if req.Reference != "" {
		err := p.predict(ctx, p.refModel, p.refInput(req), req.OutPath)
		if err == nil {
			return nil
		}
		log.Printf("[images] reference generation failed for scene %d: %v — retrying without reference",
			req.Scene.Index, err)
	}
	return p.predict(ctx, p.model, p.plainInput(req), req.OutPath)
}

func (p *replicateProvider) plainInput(req provider.Request) map[string]any {
	return map[string]any{
		"prompt":        req.Scene.ImagePrompt,
		"width":         p.width,
		"height":        p.height,
		"seed":          req.Seed,
		"num_outputs":   1,
		"output_format": "jpg",
	}
}

func (p *replicateProvider) refInput(req provider.Request) map[string]any {
	input := p.plainInput(req)
	data, err := os.ReadFile(req.Reference)
	if err != nil {
		return input
	}
	input["image_input"] = []string{
		"data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data),
	}
	input["prompt_strength"] = req.Strength
	return input
}

func (p *replicateProvider) predict(ctx context.Context, model string, input map[string]any, outFile string) error {
	body, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/predictions", replicateAPI, model)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Prefer", "wait")

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("replicate request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &provider.RateLimitError{
			RetryAfter: parseResetHint(string(raw)),
			Err:        fmt.Errorf("replicate throttled: %s", truncateStr(string(raw), 200)),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("replicate HTTP %d: %s", resp.StatusCode, truncateStr(string(raw), 200))
	}

	var prediction struct {
		Status string          `json:"status"`
		Output json.RawMessage `json:"output"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &prediction); err != nil {
		return fmt.Errorf("decode prediction: %w", err)
	}
	if prediction.Error != "" {
		return fmt.Errorf("replicate prediction failed: %s", prediction.Error)
	}

	imageURL, err := firstOutputURL(prediction.Output)
	if err != nil {
		return err
	}
	return p.download(ctx, imageURL, outFile)
}

// firstOutputURL handles both output shapes Replicate uses: a bare string
// and an array of strings.
func firstOutputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("prediction has no output")
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0], nil
	}
	return "", fmt.Errorf("unexpected prediction output: %s", truncateStr(string(raw), 100))
}

func (p *replicateProvider) download(ctx context.Context, imageURL, outFile string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d downloading image", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return os.WriteFile(outFile, data, 0644)
}

// parseResetHint extracts the wait from messages like
// "rate limit exceeded, resets in ~12s". Zero when absent.
func parseResetHint(body string) time.Duration {
	m := resetsRe.FindStringSubmatch(body)
	if m == nil {
		return 0
	}
	sec, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return time.Duration(sec) * time.Second
}

func truncateStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
