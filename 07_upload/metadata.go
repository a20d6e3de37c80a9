// Package upload publishes finished videos to YouTube via the Data API v3.
package upload

import (
	"strings"

	"story-video-pipeline/config"
	"story-video-pipeline/types"
)

// BuildMetadata fills video metadata from the upload config template and the
// story title. Titles are capped at YouTube's 100-character limit.
func BuildMetadata(cfg config.UploadConfig, storyTitle string) *types.VideoMetadata {
	title := storyTitle
	if cfg.TitlePrefix != "" {
		title = cfg.TitlePrefix + " " + title
	}
	if len(title) > 100 {
		title = title[:97] + "..."
	}

	desc := strings.ReplaceAll(cfg.Description, "{title}", storyTitle)

	return &types.VideoMetadata{
		Title:       title,
		Description: desc,
		Tags:        cfg.Tags,
		CategoryID:  cfg.CategoryID,
		Privacy:     cfg.Privacy,
	}
}
