package images

import (
	"context"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-video-pipeline/provider"
	"story-video-pipeline/types"
)

func TestPlaceholderProducesDecodableJPEG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.jpg")
	p := placeholderProvider{width: 320, height: 180}

	err := p.Generate(context.Background(), provider.Request{
		Scene:   types.Scene{Index: 1, ImagePrompt: "ignored"},
		OutPath: out,
	})
	require.NoError(t, err)
	require.True(t, types.ValidAsset(out))

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 320, img.Bounds().Dx())
	assert.Equal(t, 180, img.Bounds().Dy())
}

func TestPlaceholderOverwriteIsIdempotent(t *testing.T) {
	out := filepath.Join(t.TempDir(), "scene.jpg")
	p := placeholderProvider{width: 160, height: 90}
	req := provider.Request{Scene: types.Scene{Index: 2}, OutPath: out}

	require.NoError(t, p.Generate(context.Background(), req))
	first, err := os.ReadFile(out)
	require.NoError(t, err)

	require.NoError(t, p.Generate(context.Background(), req))
	second, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGradientCyclesThroughPalette(t *testing.T) {
	top1, _ := gradientFor(1)
	top7, _ := gradientFor(1 + len(palette))
	assert.Equal(t, top1, top7)

	topA, _ := gradientFor(1)
	topB, _ := gradientFor(2)
	assert.NotEqual(t, topA, topB)
}

func TestParseResetHint(t *testing.T) {
	assert.EqualValues(t, 0, parseResetHint("no hint here"))
	assert.EqualValues(t, 12e9, parseResetHint(`{"detail":"rate limit exceeded, resets in ~12s"}`))
	assert.EqualValues(t, 5e9, parseResetHint("resets in 5s"))
}

func TestFirstOutputURL(t *testing.T) {
	url, err := firstOutputURL([]byte(`"https://example.com/a.jpg"`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.jpg", url)

	url, err = firstOutputURL([]byte(`["https://example.com/b.jpg","https://example.com/c.jpg"]`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/b.jpg", url)

	_, err = firstOutputURL(nil)
	assert.Error(t, err)

	_, err = firstOutputURL([]byte(`{"weird":true}`))
	assert.Error(t, err)
}
