// Package segment turns raw story text into an ordered list of scenes.
// The primary path asks a chat-completion analysis service for scene
// boundaries and character descriptions; when the service is unconfigured,
// unreachable, or returns a malformed payload, a deterministic local
// segmentation takes over, so a non-empty story always yields scenes.
package segment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"story-video-pipeline/config"
	"story-video-pipeline/types"
)

var (
	// ErrAnalysisUnavailable is returned only for the degenerate case where
	// even local segmentation cannot produce a scene (empty story text).
	ErrAnalysisUnavailable = errors.New("story analysis unavailable: no scenes to produce")

	// errMalformed marks a remote payload that failed validation; it never
	// leaves this package, it only routes the call into the fallback.
	errMalformed = errors.New("analysis payload malformed")
)

const systemPrompt = "You are a story analysis expert. You split stories into scenes and respond with JSON only."

// Segmenter slices a story into a fixed number of scenes.
type Segmenter struct {
	client      *openai.Client // nil when no API key is configured
	model       string
	temperature float32
	maxTokens   int
	sceneCount  int
	analysis    *types.AnalysisResult
}

// New builds a Segmenter. An empty apiKey disables the remote path entirely;
// segmentation then always uses the local fallback.
func New(cfg config.AnalysisConfig, apiKey string, sceneCount int) *Segmenter {
	s := &Segmenter{
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		sceneCount:  sceneCount,
	}
	if apiKey != "" {
		clientCfg := openai.DefaultConfig(apiKey)
		clientCfg.BaseURL = cfg.BaseURL
		clientCfg.HTTPClient = &http.Client{
			Timeout: time.Duration(cfg.ReadTimeoutSec) * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: time.Duration(cfg.ConnectTimeoutSec) * time.Second,
				}).DialContext,
			},
		}
		s.client = openai.NewClientWithConfig(clientCfg)
	}
	return s
}

// Analysis returns the raw payload from the last successful remote analysis,
// or nil when the last segmentation came from the fallback. Character
// extraction reads it.
func (s *Segmenter) Analysis() *types.AnalysisResult { return s.analysis }

// Segment splits storyText into exactly the configured number of scenes.
// Remote failures of any kind are logged and absorbed by the fallback; the
// only error a caller can see is ErrAnalysisUnavailable for an empty story.
func (s *Segmenter) Segment(ctx context.Context, storyText string) ([]types.Scene, error) {
	if strings.TrimSpace(storyText) == "" {
		return nil, ErrAnalysisUnavailable
	}

	s.analysis = nil
	if s.client != nil {
		log.Println("[segment] Analyzing story via remote analysis service...")
		scenes, err := s.analyze(ctx, storyText)
		if err == nil {
			log.Printf("[segment] ✅ Remote analysis succeeded: %d scenes", len(scenes))
			return scenes, nil
		}
		log.Printf("[segment] ⚠️  Remote analysis failed: %v — using local segmentation", err)
	}

	scenes := s.fallback([]rune(storyText))
	log.Printf("[segment] Local segmentation produced %d scenes (word-boundary cuts)", len(scenes))
	return scenes, nil
}

func (s *Segmenter) analyze(ctx context.Context, storyText string) ([]types.Scene, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: s.buildPrompt(storyText)},
		},
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("analysis returned no choices")
	}

	raw, err := extractJSONObject(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	runes := []rune(storyText)
	if err := s.validate(runes, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformed, err)
	}

	applySpans(runes, &result)

	s.analysis = &result
	return result.Scenes, nil
}

// applySpans re-derives narration and scene numbering from the validated
// spans. Neither the echoed text nor the echoed scene_number is trusted:
// scenes are numbered by position, since asset filenames and generation
// seeds key off the number and a duplicate would silently cross-wire scenes.
func applySpans(runes []rune, result *types.AnalysisResult) {
	for i := range result.Scenes {
		sc := &result.Scenes[i]
		sc.Index = i + 1
		sc.Text = strings.TrimSpace(string(runes[sc.StartChar:sc.EndChar]))
	}
}

// validate rejects the whole payload on any structural defect; partial
// acceptance would break the contiguous-span invariant downstream.
func (s *Segmenter) validate(runes []rune, result *types.AnalysisResult) error {
	if len(result.Scenes) != s.sceneCount {
		return fmt.Errorf("expected %d scenes, got %d", s.sceneCount, len(result.Scenes))
	}
	prevEnd := 0
	for i, sc := range result.Scenes {
		if sc.StartChar < 0 || sc.EndChar > len(runes) || sc.StartChar >= sc.EndChar {
			return fmt.Errorf("scene %d span [%d,%d) out of bounds (story length %d)",
				i+1, sc.StartChar, sc.EndChar, len(runes))
		}
		if sc.StartChar != prevEnd {
			return fmt.Errorf("scene %d starts at %d, expected %d (spans must be contiguous)",
				i+1, sc.StartChar, prevEnd)
		}
		prevEnd = sc.EndChar
	}
	if prevEnd != len(runes) {
		return fmt.Errorf("last scene ends at %d, story has %d characters", prevEnd, len(runes))
	}
	return nil
}

func (s *Segmenter) buildPrompt(storyText string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the following story and split it into exactly %d scenes.\n\n", s.sceneCount)
	sb.WriteString("Rules:\n")
	sb.WriteString("1. The ORIGINAL story text will be used for narration. For every scene give\n")
	sb.WriteString("   \"start_char\" and \"end_char\": character offsets into the original text.\n")
	fmt.Fprintf(&sb, "2. Produce exactly %d scenes of roughly equal length.\n", s.sceneCount)
	sb.WriteString("3. Spans must be contiguous: each scene starts where the previous one ended,\n")
	sb.WriteString("   the first starts at 0 and the last ends at the final character.\n")
	sb.WriteString("4. NEVER cut a word in half. Prefer sentence ends (.!?), otherwise cut at\n")
	sb.WriteString("   whitespace or punctuation.\n")
	sb.WriteString("5. \"image_prompt\" is an English visual description for AI image generation.\n")
	sb.WriteString("6. Use an IDENTICAL physical description for each main character in every\n")
	sb.WriteString("   scene it appears in, e.g. \"young girl with red hood, blonde hair, blue eyes\".\n\n")
	fmt.Fprintf(&sb, "Story (%d characters total):\n%s\n\n", len([]rune(storyText)), storyText)
	sb.WriteString("Respond in JSON:\n")
	sb.WriteString(`{
  "story_title": "Short story title",
  "main_characters": [
    {"name": "Character Name", "description": "Consistent visual description"}
  ],
  "scenes": [
    {
      "scene_number": 1,
      "start_char": 0,
      "end_char": 250,
      "image_prompt": "English visual prompt with consistent character description",
      "characters": ["Main characters in this scene"]
    }
  ]
}`)
	sb.WriteString("\n\nRespond ONLY with JSON!")
	return sb.String()
}
