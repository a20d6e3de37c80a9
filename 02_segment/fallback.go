package segment

import (
	"fmt"
	"strings"
	"unicode"

	"story-video-pipeline/types"
)

const (
	// How far past the target boundary we look for a sentence end, and how
	// much drift we accept before settling for a plain word boundary.
	sentenceLookahead = 200
	maxSentenceDrift  = 100
	wordLookahead     = 50
)

// fallback divides the story into equal-length windows by rune count and
// nudges every boundary onto a sentence end or, failing that, a word
// boundary. The final scene always extends to end-of-text, so the spans
// cover the whole story contiguously.
func (s *Segmenter) fallback(runes []rune) []types.Scene {
	n := s.sceneCount
	total := len(runes)
	perScene := total / n
	if perScene < 1 {
		perScene = 1
	}

	scenes := make([]types.Scene, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := total
		if i < n-1 {
			end = adjustBoundary(runes, start, start+perScene)
		}

		text := strings.TrimSpace(string(runes[start:end]))
		scenes = append(scenes, types.Scene{
			Index:       i + 1,
			StartChar:   start,
			EndChar:     end,
			Text:        text,
			ImagePrompt: fallbackImagePrompt(text, i+1),
		})
		start = end
	}
	return scenes
}

// adjustBoundary moves target onto a safe cut point. It prefers the next
// sentence terminator within the lookahead; if the terminator drifts too far
// it settles for the next whitespace/punctuation, and as a last resort it
// walks backwards to the nearest word boundary.
func adjustBoundary(runes []rune, start, target int) int {
	total := len(runes)
	if target >= total {
		return total
	}

	limit := target + sentenceLookahead
	if limit > total {
		limit = total
	}
	for j := target; j < limit; j++ {
		if isSentenceEnd(runes[j]) {
			if j+1-target <= maxSentenceDrift {
				return j + 1
			}
			break
		}
	}

	limit = target + wordLookahead
	if limit > total {
		limit = total
	}
	for j := target; j < limit; j++ {
		if isWordBoundary(runes[j]) {
			return j + 1
		}
	}

	for j := target; j > start; j-- {
		if isWordBoundary(runes[j]) || isSentenceEnd(runes[j]) {
			return j + 1
		}
	}
	return target
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isWordBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == ',' || r == ';' || r == ':'
}

const promptStyleSuffix = "fairy tale illustration, cinematic lighting, detailed, beautiful"

// scenePrompts covers the opening scenes of a classic fairy-tale arc; later
// scenes fall through to keyword extraction.
var scenePrompts = map[int]string{
	1: "A little girl selling matches on a cold winter street, snow falling, warm street lamp light",
	2: "A little girl lighting a match, seeing a warm stove in the match light, magical glow",
	3: "A magical dining table with delicious food appearing in match light, fantasy scene",
	4: "A beautiful Christmas tree with lights and decorations, magical holiday scene",
	5: "A grandmother's spirit reaching out to a little girl, heavenly light, peaceful scene",
	6: "A peaceful morning scene, people finding the little girl, soft winter light",
}

// keywordGlossary maps Turkish story vocabulary onto English prompt
// fragments for the keyword-based prompts.
var keywordGlossary = []struct {
	turkish string
	english string
}{
	{"soğuk", "cold winter"},
	{"kış", "winter"},
	{"kibrit", "match"},
	{"kız", "little girl"},
	{"soba", "warm stove"},
	{"yemek", "food"},
	{"masa", "table"},
	{"ağaç", "tree"},
	{"büyükanne", "grandmother"},
	{"gülümseme", "smile"},
}

func fallbackImagePrompt(text string, sceneNumber int) string {
	prompt, ok := scenePrompts[sceneNumber]
	if !ok {
		keywords := extractKeywords(text)
		if len(keywords) == 0 {
			keywords = []string{"a storybook moment"}
		}
		prompt = fmt.Sprintf("A scene showing %s", strings.Join(keywords, ", "))
	}
	return fmt.Sprintf("%s, %s", prompt, promptStyleSuffix)
}

func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	var keywords []string
	for _, kw := range keywordGlossary {
		if strings.Contains(lower, kw.turkish) {
			keywords = append(keywords, kw.english)
			if len(keywords) == 3 {
				break
			}
		}
	}
	return keywords
}
