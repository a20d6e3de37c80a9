package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	openai "github.com/sashabaranov/go-openai"

	"story-video-pipeline/provider"
)

// openAITTS narrates scene text with the OpenAI speech API. The API returns
// mp3; ffmpeg converts it to the WAV the assembler expects.
type openAITTS struct {
	client *openai.Client
	voice  openai.SpeechVoice
	speed  float64
}

func newOpenAITTS(apiKey, voice string, speed float64) *openAITTS {
	return &openAITTS{
		client: openai.NewClient(apiKey),
		voice:  openai.SpeechVoice(voice),
		speed:  speed,
	}
}

func (p *openAITTS) Name() string { return "openai-tts" }

func (p *openAITTS) Generate(ctx context.Context, req provider.Request) error {
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model: openai.TTSModel1HD,
		Input: req.Scene.Text,
		Voice: p.voice,
		Speed: p.speed,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
			return &provider.RateLimitError{Err: err}
		}
		return fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Close()

	mp3File := req.OutPath + ".mp3"
	f, err := os.Create(mp3File)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp); err != nil {
		f.Close()
		os.Remove(mp3File)
		return fmt.Errorf("write speech audio: %w", err)
	}
	f.Close()
	defer os.Remove(mp3File)

	return convertToWAV(ctx, mp3File, req.OutPath)
}

// convertToWAV transcodes any audio ffmpeg can read into the 22050 Hz mono
// WAV the rest of the pipeline expects.
func convertToWAV(ctx context.Context, src, dst string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", src,
		"-ar", "22050",
		"-ac", "1",
		dst,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("wav conversion failed: %v: %s", err, tail(out, 200))
	}
	return nil
}

func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[len(b)-n:])
}
