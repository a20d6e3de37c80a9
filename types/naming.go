package types

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
)

// StoryHash returns a short stable identifier for a story title. Filenames
// built from it stay bounded regardless of title length (Windows caps paths
// at 260 chars) and re-runs of the same story overwrite the same files.
func StoryHash(title string) string {
	sum := md5.Sum([]byte(title))
	return hex.EncodeToString(sum[:])[:8]
}

// AssetFilename is the canonical name for a per-scene asset file,
// e.g. story_a1b2c3d4_scene_07.wav.
func AssetFilename(title string, sceneIndex int, ext string) string {
	return fmt.Sprintf("story_%s_scene_%02d.%s", StoryHash(title), sceneIndex, ext)
}

// VideoFilename is the canonical name for a story's final video.
func VideoFilename(title string) string {
	return fmt.Sprintf("story_%s.mp4", StoryHash(title))
}

// ValidAsset reports whether path points at a non-empty file.
func ValidAsset(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular() && fi.Size() > 0
}
