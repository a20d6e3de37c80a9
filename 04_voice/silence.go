package voice

import (
	"context"
	"encoding/binary"
	"log"
	"os"
	"strings"
	"time"

	"story-video-pipeline/provider"
)

const (
	silenceSampleRate = 22050
	wordsPerMinute    = 150
	minSilenceSec     = 3
	maxSilenceSec     = 10
)

// silenceProvider writes a silent WAV sized to the narration's estimated
// speaking time. It is the terminal voice provider: a scene with no audible
// narration still yields a correctly-timed video clip.
type silenceProvider struct{}

func (silenceProvider) Name() string { return "silence" }

func (silenceProvider) Generate(ctx context.Context, req provider.Request) error {
	dur := estimateDuration(req.Scene.Text)
	log.Printf("[voice] ⚠️ scene %d: writing %.1fs of silence", req.Scene.Index, dur.Seconds())
	return writeSilentWAV(req.OutPath, dur)
}

// estimateDuration approximates speaking time at 150 words per minute,
// clamped to [3s, 10s] so empty or huge scenes stay watchable.
func estimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	sec := float64(words) / wordsPerMinute * 60
	if sec < minSilenceSec {
		sec = minSilenceSec
	}
	if sec > maxSilenceSec {
		sec = maxSilenceSec
	}
	return time.Duration(sec * float64(time.Second))
}

// writeSilentWAV emits a 16-bit mono PCM WAV of zeros.
func writeSilentWAV(path string, dur time.Duration) error {
	samples := int(dur.Seconds() * silenceSampleRate)
	dataLen := samples * 2 // 16-bit mono

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var header [44]byte
	copy(header[0:], "RIFF")
	binary.LittleEndian.PutUint32(header[4:], uint32(36+dataLen))
	copy(header[8:], "WAVE")
	copy(header[12:], "fmt ")
	binary.LittleEndian.PutUint32(header[16:], 16) // PCM chunk size
	binary.LittleEndian.PutUint16(header[20:], 1)  // PCM format
	binary.LittleEndian.PutUint16(header[22:], 1)  // mono
	binary.LittleEndian.PutUint32(header[24:], silenceSampleRate)
	binary.LittleEndian.PutUint32(header[28:], silenceSampleRate*2) // byte rate
	binary.LittleEndian.PutUint16(header[32:], 2)                   // block align
	binary.LittleEndian.PutUint16(header[34:], 16)                  // bits per sample
	copy(header[36:], "data")
	binary.LittleEndian.PutUint32(header[40:], uint32(dataLen))

	if _, err := f.Write(header[:]); err != nil {
		return err
	}

	zeros := make([]byte, 8192)
	for dataLen > 0 {
		n := len(zeros)
		if dataLen < n {
			n = dataLen
		}
		if _, err := f.Write(zeros[:n]); err != nil {
			return err
		}
		dataLen -= n
	}
	return nil
}
