package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Analysis AnalysisConfig `yaml:"analysis"`
	TTS      TTSConfig      `yaml:"tts"`
	Images   ImagesConfig   `yaml:"images"`
	Video    VideoConfig    `yaml:"video"`
	Research ResearchConfig `yaml:"research"`
	Upload   UploadConfig   `yaml:"upload"`
	Paths    PathsConfig    `yaml:"paths"`

	// Secrets are read once from the environment at load time and handed to
	// components explicitly; nothing else touches ambient process state.
	Secrets Secrets `yaml:"-"`
}

type PipelineConfig struct {
	SceneCount    int `yaml:"scene_count"`
	StoryDelaySec int `yaml:"story_delay_sec"`
}

type AnalysisConfig struct {
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	ConnectTimeoutSec int     `yaml:"connect_timeout_sec"`
	ReadTimeoutSec    int     `yaml:"read_timeout_sec"`
}

type TTSConfig struct {
	Voice     string  `yaml:"voice"`
	Speed     float64 `yaml:"speed"`
	EdgeVoice string  `yaml:"edge_voice"`
}

type ImagesConfig struct {
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
	ReplicateModel    string  `yaml:"replicate_model"`
	ReferenceModel    string  `yaml:"reference_model"`
	UseReference      bool    `yaml:"use_reference"`
	ReferenceStrength float64 `yaml:"reference_strength"`
	ReplicateDelaySec int     `yaml:"replicate_delay_sec"`
	ReplicateRetries  int     `yaml:"replicate_retries"`
	StyleSuffix       string  `yaml:"style_suffix"`
}

type VideoConfig struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	FPS         int     `yaml:"fps"`
	ZoomFactor  float64 `yaml:"zoom_factor"`
	MusicVolume float64 `yaml:"music_volume"`
}

type ResearchConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Subreddit  string `yaml:"subreddit"`
	Limit      int    `yaml:"limit"`
	MinBodyLen int    `yaml:"min_body_len"`
}

type UploadConfig struct {
	Enabled     bool     `yaml:"enabled"`
	TitlePrefix string   `yaml:"title_prefix"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	CategoryID  string   `yaml:"category_id"`
	Privacy     string   `yaml:"privacy"`
}

type PathsConfig struct {
	Stories      string `yaml:"stories"`
	Audio        string `yaml:"audio"`
	Images       string `yaml:"images"`
	Videos       string `yaml:"videos"`
	Music        string `yaml:"music"`
	ProgressFile string `yaml:"progress_file"`
}

// Secrets are the API credentials the pipeline may use. Any of them may be
// empty; the owning component then skips or degrades the matching provider.
type Secrets struct {
	DeepSeekKey       string
	OpenAIKey         string
	ReplicateKey      string
	TelegramBotToken  string
	TelegramChatID    string
	YouTubeClientID   string
	YouTubeSecret     string
	YouTubeRefreshTok string
}

// Load reads the YAML config file, applies defaults, and captures secrets
// from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	cfg.Secrets = Secrets{
		DeepSeekKey:       os.Getenv("DEEPSEEK_API_KEY"),
		OpenAIKey:         os.Getenv("OPENAI_API_KEY"),
		ReplicateKey:      os.Getenv("REPLICATE_API_KEY"),
		TelegramBotToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),
		YouTubeClientID:   os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeSecret:     os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeRefreshTok: os.Getenv("YOUTUBE_REFRESH_TOKEN"),
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Pipeline.SceneCount == 0 {
		c.Pipeline.SceneCount = 20
	}
	if c.Pipeline.StoryDelaySec == 0 {
		c.Pipeline.StoryDelaySec = 30
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = "https://api.deepseek.com/v1"
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = "deepseek-chat"
	}
	if c.Analysis.MaxTokens == 0 {
		c.Analysis.MaxTokens = 4000
	}
	if c.Analysis.ConnectTimeoutSec == 0 {
		c.Analysis.ConnectTimeoutSec = 30
	}
	if c.Analysis.ReadTimeoutSec == 0 {
		c.Analysis.ReadTimeoutSec = 180
	}
	if c.TTS.Voice == "" {
		c.TTS.Voice = "nova"
	}
	if c.TTS.Speed == 0 {
		c.TTS.Speed = 1.0
	}
	if c.TTS.EdgeVoice == "" {
		c.TTS.EdgeVoice = "tr-TR-EmelNeural"
	}
	if c.Images.Width == 0 {
		c.Images.Width = 1920
	}
	if c.Images.Height == 0 {
		c.Images.Height = 1080
	}
	if c.Images.ReplicateModel == "" {
		c.Images.ReplicateModel = "black-forest-labs/flux-schnell"
	}
	if c.Images.ReferenceModel == "" {
		c.Images.ReferenceModel = "black-forest-labs/flux-2-dev"
	}
	if c.Images.ReferenceStrength == 0 {
		c.Images.ReferenceStrength = 0.85
	}
	if c.Images.ReplicateDelaySec == 0 {
		c.Images.ReplicateDelaySec = 12
	}
	if c.Images.ReplicateRetries == 0 {
		c.Images.ReplicateRetries = 5
	}
	if c.Video.Width == 0 {
		c.Video.Width = 1920
	}
	if c.Video.Height == 0 {
		c.Video.Height = 1080
	}
	if c.Video.FPS == 0 {
		c.Video.FPS = 24
	}
	if c.Video.ZoomFactor == 0 {
		c.Video.ZoomFactor = 1.3
	}
	if c.Video.MusicVolume == 0 {
		c.Video.MusicVolume = 0.05
	}
	if c.Upload.Privacy == "" {
		c.Upload.Privacy = "private"
	}
	if c.Paths.Stories == "" {
		c.Paths.Stories = "stories"
	}
	if c.Paths.Audio == "" {
		c.Paths.Audio = "audio"
	}
	if c.Paths.Images == "" {
		c.Paths.Images = "images"
	}
	if c.Paths.Videos == "" {
		c.Paths.Videos = "videos"
	}
	if c.Paths.Music == "" {
		c.Paths.Music = "musics"
	}
	if c.Paths.ProgressFile == "" {
		c.Paths.ProgressFile = "cron_progress.json"
	}
}
