package voice

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"story-video-pipeline/provider"
)

// edgeTTS shells out to the edge-tts CLI (free Microsoft TTS). edge-tts
// emits mp3 regardless of the target filename, so the output goes to a temp
// file and is transcoded to WAV afterwards.
type edgeTTS struct {
	voice string
}

func newEdgeTTS(voice string) *edgeTTS {
	return &edgeTTS{voice: voice}
}

func (p *edgeTTS) Name() string { return "edge-tts" }

func (p *edgeTTS) Generate(ctx context.Context, req provider.Request) error {
	mp3File := req.OutPath + ".mp3"
	cmd := exec.CommandContext(ctx,
		"edge-tts",
		"--voice", p.voice,
		"--text", req.Scene.Text,
		"--write-media", mp3File,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(mp3File)
		return fmt.Errorf("edge-tts failed: %v: %s", err, tail(out, 200))
	}
	defer os.Remove(mp3File)

	return convertToWAV(ctx, mp3File, req.OutPath)
}
