// Package voice turns scene narration into per-scene WAV files through a
// provider chain: OpenAI TTS when a key is configured, edge-tts when the
// binary is installed, and a locally synthesized silent track as the floor
// so the pipeline never stops on narration failures.
package voice

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"story-video-pipeline/config"
	"story-video-pipeline/provider"
	"story-video-pipeline/types"
)

// Generator produces narration audio for every scene of a story.
type Generator struct {
	chain    *provider.Chain
	audioDir string
}

// New assembles the voice provider chain from what is actually available in
// the environment. The silence provider is always last and always succeeds.
func New(cfg config.TTSConfig, openAIKey, audioDir string) *Generator {
	var entries []provider.Entry

	if openAIKey != "" {
		entries = append(entries, provider.Entry{
			Provider:    newOpenAITTS(openAIKey, cfg.Voice, cfg.Speed),
			MinDelay:    time.Second,
			MaxAttempts: 3,
		})
	} else {
		log.Println("[voice] OPENAI_API_KEY not set — skipping OpenAI TTS")
	}

	if _, err := exec.LookPath("edge-tts"); err == nil {
		entries = append(entries, provider.Entry{
			Provider:    newEdgeTTS(cfg.EdgeVoice),
			MaxAttempts: 3,
		})
	} else {
		log.Println("[voice] edge-tts not found on PATH — skipping")
	}

	entries = append(entries, provider.Entry{
		Provider:    silenceProvider{},
		MaxAttempts: 1,
	})

	return &Generator{
		chain:    provider.NewChain("voice", entries...),
		audioDir: audioDir,
	}
}

// GenerateStoryAudio creates one WAV per scene, named by the story hash and
// scene number. It returns the paths in scene order.
func (g *Generator) GenerateStoryAudio(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
	if err := os.MkdirAll(g.audioDir, 0755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}

	paths := make([]string, 0, len(scenes))

	log.Printf("[voice] Generating audio for %d scenes...", len(scenes))
	for _, scene := range scenes {
		outFile := filepath.Join(g.audioDir, types.AssetFilename(title, scene.Index, "wav"))
		req := provider.Request{
			Scene:   scene,
			Title:   title,
			OutPath: outFile,
		}
		if _, err := g.chain.Produce(ctx, req); err != nil {
			return nil, fmt.Errorf("scene %d audio: %w", scene.Index, err)
		}
		paths = append(paths, outFile)
	}

	log.Printf("[voice] ✅ %d audio files ready", len(paths))
	return paths, nil
}
