package voice

import (
	"context"
	"encoding/binary"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-video-pipeline/provider"
	"story-video-pipeline/types"
)

func TestEstimateDurationClampsLow(t *testing.T) {
	assert.Equal(t, 3*time.Second, estimateDuration(""))
	assert.Equal(t, 3*time.Second, estimateDuration("one two"))
}

func TestEstimateDurationClampsHigh(t *testing.T) {
	long := strings.Repeat("word ", 500)
	assert.Equal(t, 10*time.Second, estimateDuration(long))
}

func TestEstimateDurationSpeakingRate(t *testing.T) {
	// 15 words at 150 wpm is 6 seconds.
	text := strings.Repeat("word ", 15)
	assert.Equal(t, 6*time.Second, estimateDuration(text))
}

func TestWriteSilentWAVStructure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "silence.wav")
	require.NoError(t, writeSilentWAV(path, 2*time.Second))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	samples := 2 * silenceSampleRate
	require.Len(t, raw, 44+samples*2)

	assert.Equal(t, "RIFF", string(raw[0:4]))
	assert.Equal(t, "WAVE", string(raw[8:12]))
	assert.Equal(t, "fmt ", string(raw[12:16]))
	assert.Equal(t, "data", string(raw[36:40]))

	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(raw[20:22]), "PCM format")
	assert.EqualValues(t, 1, binary.LittleEndian.Uint16(raw[22:24]), "mono")
	assert.EqualValues(t, silenceSampleRate, binary.LittleEndian.Uint32(raw[24:28]))
	assert.EqualValues(t, 16, binary.LittleEndian.Uint16(raw[34:36]))
	assert.EqualValues(t, samples*2, binary.LittleEndian.Uint32(raw[40:44]))

	// The payload must actually be silence.
	for _, b := range raw[44:100] {
		require.Zero(t, b)
	}
}

func TestConvertToWAVProducesUniformFormat(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not on PATH")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "source.audio")
	require.NoError(t, writeSilentWAV(src, time.Second))

	dst := filepath.Join(dir, "scene.wav")
	require.NoError(t, convertToWAV(context.Background(), src, dst))
	require.True(t, types.ValidAsset(dst))

	raw, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(raw[0:4]))
	assert.Equal(t, "WAVE", string(raw[8:12]))
}

func TestConvertToWAVFailureLeavesNoPartialFile(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not on PATH")
	}

	dir := t.TempDir()
	src := filepath.Join(dir, "garbage.mp3")
	require.NoError(t, os.WriteFile(src, []byte("not audio at all"), 0644))

	dst := filepath.Join(dir, "scene.wav")
	require.Error(t, convertToWAV(context.Background(), src, dst))
	assert.False(t, types.ValidAsset(dst))
}

func TestSilenceProviderWritesValidAsset(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.wav")
	err := silenceProvider{}.Generate(context.Background(), provider.Request{
		Scene:   types.Scene{Index: 3, Text: "a short narration line"},
		OutPath: out,
	})
	require.NoError(t, err)
	assert.True(t, types.ValidAsset(out))
}
