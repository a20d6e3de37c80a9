package types

// Scene is one narrative unit of a story: a span of the original text to be
// voiced, plus an English visual prompt for image generation.
// StartChar/EndChar are rune offsets into the story text; spans are
// contiguous and in narrative order, and Text is always re-derived from the
// span, never taken from a remote payload.
type Scene struct {
	Index       int      `json:"scene_number"`
	StartChar   int      `json:"start_char"`
	EndChar     int      `json:"end_char"`
	Text        string   `json:"text"`
	ImagePrompt string   `json:"image_prompt"`
	Characters  []string `json:"characters"`
}

// CharacterInfo is one named character with its invariant visual description.
type CharacterInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AnalysisResult is the structured payload produced by the story analysis
// service: title, recurring characters, and scene boundaries.
type AnalysisResult struct {
	StoryTitle     string          `json:"story_title"`
	MainCharacters []CharacterInfo `json:"main_characters"`
	Scenes         []Scene         `json:"scenes"`
}

// VideoMetadata holds everything the upload step needs besides the file.
type VideoMetadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	CategoryID  string   `json:"category_id"`
	Privacy     string   `json:"privacy"`
}
