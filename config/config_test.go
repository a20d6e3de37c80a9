package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "pipeline:\n  scene_count: 0\n"))
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Pipeline.SceneCount)
	assert.Equal(t, 30, cfg.Pipeline.StoryDelaySec)
	assert.Equal(t, "https://api.deepseek.com/v1", cfg.Analysis.BaseURL)
	assert.Equal(t, "deepseek-chat", cfg.Analysis.Model)
	assert.Equal(t, 4000, cfg.Analysis.MaxTokens)
	assert.Equal(t, "nova", cfg.TTS.Voice)
	assert.Equal(t, 12, cfg.Images.ReplicateDelaySec)
	assert.Equal(t, 5, cfg.Images.ReplicateRetries)
	assert.Equal(t, 1.3, cfg.Video.ZoomFactor)
	assert.Equal(t, 0.05, cfg.Video.MusicVolume)
	assert.Equal(t, "private", cfg.Upload.Privacy)
	assert.Equal(t, "cron_progress.json", cfg.Paths.ProgressFile)
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pipeline:
  scene_count: 8
  story_delay_sec: 5
video:
  zoom_factor: 1.1
paths:
  stories: "queue"
`))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pipeline.SceneCount)
	assert.Equal(t, 5, cfg.Pipeline.StoryDelaySec)
	assert.Equal(t, 1.1, cfg.Video.ZoomFactor)
	assert.Equal(t, "queue", cfg.Paths.Stories)
}

func TestLoadCapturesSecretsFromEnv(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "ds-key")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")

	cfg, err := Load(writeConfig(t, "pipeline: {}\n"))
	require.NoError(t, err)

	assert.Equal(t, "ds-key", cfg.Secrets.DeepSeekKey)
	assert.Equal(t, "tg-token", cfg.Secrets.TelegramBotToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "pipeline: [not: a map"))
	assert.Error(t, err)
}
