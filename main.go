package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"story-video-pipeline/01_stories"
	"story-video-pipeline/02_segment"
	"story-video-pipeline/03_characters"
	"story-video-pipeline/04_voice"
	"story-video-pipeline/05_images"
	"story-video-pipeline/06_assemble"
	"story-video-pipeline/07_upload"
	"story-video-pipeline/config"
	"story-video-pipeline/notify"
	"story-video-pipeline/progress"
	"story-video-pipeline/runner"
)

func main() {
	// Load .env (local dev only — cron/CI injects real env vars)
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	for _, dir := range []string{cfg.Paths.Stories, cfg.Paths.Audio, cfg.Paths.Images, cfg.Paths.Videos} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create dir %s: %v", dir, err)
		}
	}

	runID := uuid.NewString()[:8]
	log.Printf("🎬 Story pipeline starting — Run ID: %s", runID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optionally top the queue up before processing.
	if cfg.Research.Enabled {
		fetcher, err := stories.NewFetcher(cfg.Research)
		if err != nil {
			log.Printf("⚠️  Story fetch unavailable: %v — using local queue only", err)
		} else if _, err := fetcher.FetchInto(ctx, cfg.Paths.Stories); err != nil {
			log.Printf("⚠️  Story fetch failed: %v — using local queue only", err)
		}
	}

	store, err := progress.Load(cfg.Paths.ProgressFile)
	if err != nil {
		log.Fatalf("Failed to load progress: %v", err)
	}

	registry := characters.New()

	var uploader runner.Uploader
	if cfg.Upload.Enabled {
		uploader = upload.New(cfg.Upload, cfg.Secrets)
	}

	r := runner.New(runner.Options{
		Segmenter:  segment.New(cfg.Analysis, cfg.Secrets.DeepSeekKey, cfg.Pipeline.SceneCount),
		Registry:   registry,
		Voice:      voice.New(cfg.TTS, cfg.Secrets.OpenAIKey, cfg.Paths.Audio),
		Images:     images.New(cfg.Images, cfg.Secrets.ReplicateKey, cfg.Paths.Images, registry),
		Assembler:  assemble.New(cfg.Video, cfg.Paths.Music, cfg.Paths.Videos),
		Uploader:   uploader,
		Store:      store,
		Notifier:   notify.NewTelegram(cfg.Secrets.TelegramBotToken, cfg.Secrets.TelegramChatID),
		StoriesDir: cfg.Paths.Stories,
		StoryDelay: time.Duration(cfg.Pipeline.StoryDelaySec) * time.Second,
	})

	if err := r.Run(ctx); err != nil {
		log.Printf("❌ Pipeline run failed: %v", err)
		os.Exit(1)
	}
	log.Println("✅ Pipeline run complete")
}
