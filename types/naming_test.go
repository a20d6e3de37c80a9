package types

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoryHashIsStable(t *testing.T) {
	assert.Equal(t, "098f6bcd", StoryHash("test"))
	assert.Equal(t, StoryHash("Kibritçi Kız"), StoryHash("Kibritçi Kız"))
	assert.NotEqual(t, StoryHash("a"), StoryHash("b"))
	assert.Len(t, StoryHash(strings.Repeat("very long title ", 100)), 8)
}

func TestAssetFilenameFormat(t *testing.T) {
	assert.Equal(t, "story_098f6bcd_scene_01.wav", AssetFilename("test", 1, "wav"))
	assert.Equal(t, "story_098f6bcd_scene_12.jpg", AssetFilename("test", 12, "jpg"))
}

func TestVideoFilenameFormat(t *testing.T) {
	assert.Equal(t, "story_098f6bcd.mp4", VideoFilename("test"))
}

func TestFilenamesStayBounded(t *testing.T) {
	long := strings.Repeat("a ridiculously long story title ", 50)
	assert.Less(t, len(AssetFilename(long, 20, "wav")), 40)
	assert.Less(t, len(VideoFilename(long)), 30)
}

func TestValidAsset(t *testing.T) {
	dir := t.TempDir()

	assert.False(t, ValidAsset(filepath.Join(dir, "missing.wav")))

	empty := filepath.Join(dir, "empty.wav")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	assert.False(t, ValidAsset(empty))

	full := filepath.Join(dir, "full.wav")
	require.NoError(t, os.WriteFile(full, []byte("data"), 0644))
	assert.True(t, ValidAsset(full))

	assert.False(t, ValidAsset(dir), "directories are not assets")
}
