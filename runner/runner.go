// Package runner orchestrates the per-story pipeline: segment, voice,
// images, assemble, optionally upload — with durable progress so each cron
// run picks up exactly where the last one stopped.
package runner

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"story-video-pipeline/01_stories"
	"story-video-pipeline/notify"
	"story-video-pipeline/progress"
	"story-video-pipeline/types"
)

// Stage interfaces keep the runner testable without network or ffmpeg.

type Segmenter interface {
	Segment(ctx context.Context, storyText string) ([]types.Scene, error)
	Analysis() *types.AnalysisResult
}

type CharacterRegistry interface {
	Extract(analysis *types.AnalysisResult) map[string]string
}

type VoiceGenerator interface {
	GenerateStoryAudio(ctx context.Context, title string, scenes []types.Scene) ([]string, error)
}

type ImageGenerator interface {
	GenerateStoryImages(ctx context.Context, title string, scenes []types.Scene) ([]string, error)
}

type Assembler interface {
	AssembleVideo(ctx context.Context, title string, audioPaths, imagePaths []string) (string, error)
}

// Uploader is optional; a nil uploader means videos stay local.
type Uploader interface {
	UploadStory(ctx context.Context, title, videoFile string) (string, error)
}

// Runner processes the story queue one story at a time.
type Runner struct {
	segmenter  Segmenter
	registry   CharacterRegistry
	voice      VoiceGenerator
	images     ImageGenerator
	assembler  Assembler
	uploader   Uploader
	store      *progress.Store
	notifier   notify.Notifier
	storiesDir string
	storyDelay time.Duration
}

type Options struct {
	Segmenter  Segmenter
	Registry   CharacterRegistry
	Voice      VoiceGenerator
	Images     ImageGenerator
	Assembler  Assembler
	Uploader   Uploader
	Store      *progress.Store
	Notifier   notify.Notifier
	StoriesDir string
	StoryDelay time.Duration
}

func New(opts Options) *Runner {
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	return &Runner{
		segmenter:  opts.Segmenter,
		registry:   opts.Registry,
		voice:      opts.Voice,
		images:     opts.Images,
		assembler:  opts.Assembler,
		uploader:   opts.Uploader,
		store:      opts.Store,
		notifier:   n,
		storiesDir: opts.StoriesDir,
		storyDelay: opts.StoryDelay,
	}
}

// Run processes every pending story in the queue. One story's failure is
// recorded and the batch continues; progress is persisted after every story
// so an interrupted run loses at most the story in flight.
func (r *Runner) Run(ctx context.Context) error {
	r.store.BeginRun()
	if err := r.store.Save(); err != nil {
		return fmt.Errorf("persist run start: %w", err)
	}

	files, err := stories.List(r.storiesDir)
	if err != nil {
		return fmt.Errorf("list stories: %w", err)
	}

	var pending []string
	for _, f := range files {
		if !r.store.IsCompleted(storyKey(f)) {
			pending = append(pending, f)
		}
	}

	log.Printf("[runner] Run #%d: %d stories queued, %d pending",
		r.store.TotalRuns(), len(files), len(pending))

	if len(pending) == 0 {
		log.Println("[runner] Nothing to do")
		return nil
	}

	r.notifier.Send(fmt.Sprintf("🎬 Pipeline run #%d started: %d stories pending",
		r.store.TotalRuns(), len(pending)))

	done, failed := 0, 0
	for i, file := range pending {
		if err := ctx.Err(); err != nil {
			log.Printf("[runner] Interrupted after %d/%d stories", i, len(pending))
			return err
		}

		key := storyKey(file)
		log.Printf("\n━━━ Story %d/%d: %s ━━━", i+1, len(pending), key)

		if err := r.processStory(ctx, file); err != nil {
			failed++
			log.Printf("[runner] ❌ %s failed: %v", key, err)
			r.store.RecordFailure(key, err)
			r.notifier.Send(fmt.Sprintf("❌ <b>%s</b> failed: %s", key, truncate(err.Error(), 150)))
		} else {
			done++
			r.store.MarkCompleted(key)
		}

		// Persist before moving on so a crash never reprocesses this story.
		if err := r.store.Save(); err != nil {
			return fmt.Errorf("persist progress: %w", err)
		}

		if i < len(pending)-1 && r.storyDelay > 0 {
			log.Printf("[runner] Waiting %s before next story...", r.storyDelay)
			if err := sleep(ctx, r.storyDelay); err != nil {
				return err
			}
		}
	}

	summary := fmt.Sprintf("🏁 Run #%d finished: %d completed, %d failed, %d total processed",
		r.store.TotalRuns(), done, failed, r.store.TotalProcessed())
	log.Printf("[runner] %s", summary)
	r.notifier.Send(summary)
	return nil
}

// processStory drives one story through every stage.
func (r *Runner) processStory(ctx context.Context, file string) error {
	story, err := stories.Load(file)
	if err != nil {
		return err
	}

	log.Printf("[runner] Title: %q (%d chars)", story.Title, len(story.Text))
	r.notifier.Send(fmt.Sprintf("▶️ Processing: <b>%s</b>", truncate(story.Title, 80)))

	scenes, err := r.segmenter.Segment(ctx, story.Text)
	if err != nil {
		return fmt.Errorf("segment: %w", err)
	}
	r.registry.Extract(r.segmenter.Analysis())

	audioPaths, err := r.voice.GenerateStoryAudio(ctx, story.Title, scenes)
	if err != nil {
		return fmt.Errorf("voice: %w", err)
	}

	imagePaths, err := r.images.GenerateStoryImages(ctx, story.Title, scenes)
	if err != nil {
		return fmt.Errorf("images: %w", err)
	}

	videoFile, err := r.assembler.AssembleVideo(ctx, story.Title, audioPaths, imagePaths)
	if err != nil {
		return fmt.Errorf("assemble: %w", err)
	}

	if r.uploader != nil {
		url, err := r.uploader.UploadStory(ctx, story.Title, videoFile)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		r.notifier.Send(fmt.Sprintf("✅ <b>%s</b> published: %s", truncate(story.Title, 80), url))
	} else {
		r.notifier.Send(fmt.Sprintf("✅ <b>%s</b> done: %s", truncate(story.Title, 80), videoFile))
	}
	return nil
}

// storyKey identifies a story in the progress file by its filename stem:
// stable when the queue directory moves, and compatible with progress files
// written before the .txt convention was settled.
func storyKey(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
