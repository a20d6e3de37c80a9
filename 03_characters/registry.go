// Package characters keeps every recurring character's visual description
// stable across a story's scenes, so image prompts describe the same person
// the same way every time.
package characters

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"strconv"
	"strings"

	"story-video-pipeline/types"
)

const seedRange = 1000000

// consistencyKeywords are appended whenever character descriptions are
// injected into a prompt.
const consistencyKeywords = "consistent character design, same appearance, character continuity"

// Registry maps character names to their invariant visual descriptions for
// one pipeline run. It does no I/O; every method is a pure in-memory
// transform, safe to call repeatedly.
type Registry struct {
	characters map[string]string
	templates  map[string]map[string]string
}

func New() *Registry {
	return &Registry{
		characters: make(map[string]string),
		templates:  make(map[string]map[string]string),
	}
}

// Extract reads the main character list from an analysis payload, replacing
// any previously stored mapping. Entries missing a name or description are
// skipped. A nil payload clears the registry (local segmentation produces no
// character data).
func (r *Registry) Extract(analysis *types.AnalysisResult) map[string]string {
	r.characters = make(map[string]string)
	if analysis == nil {
		return r.characters
	}
	for _, ch := range analysis.MainCharacters {
		if ch.Name == "" || ch.Description == "" {
			continue
		}
		r.characters[ch.Name] = ch.Description
		log.Printf("[characters] ✓ %s — %s", ch.Name, truncate(ch.Description, 50))
	}
	return r.characters
}

// Seed derives a stable pseudo-random seed from a character name. The same
// name yields the same seed in any process, which lets generation requests
// for one character stay visually reproducible.
func (r *Registry) Seed(name string) int {
	sum := md5.Sum([]byte(name))
	v, _ := strconv.ParseUint(hex.EncodeToString(sum[:])[:8], 16, 64)
	return int(v % seedRange)
}

// Augment appends the stored description of every tagged character to the
// prompt, plus consistency keywords. Tags with no stored description are
// silently skipped; when nothing matches the prompt is returned unchanged.
func (r *Registry) Augment(prompt string, names []string) string {
	if len(names) == 0 || len(r.characters) == 0 {
		return prompt
	}
	var described []string
	for _, name := range names {
		if desc, ok := r.characters[name]; ok {
			described = append(described, fmt.Sprintf("%s: %s", name, desc))
		}
	}
	if len(described) == 0 {
		return prompt
	}
	return fmt.Sprintf("%s. Characters: %s, %s",
		prompt, strings.Join(described, " | "), consistencyKeywords)
}

// Description returns the stored description for a name, if any.
func (r *Registry) Description(name string) (string, bool) {
	desc, ok := r.characters[name]
	return desc, ok
}

// ReferenceString builds a compact character reference tag for generation
// backends that understand them. Empty when the character is unknown.
func (r *Registry) ReferenceString(name string) string {
	desc, ok := r.characters[name]
	if !ok {
		return ""
	}
	return fmt.Sprintf("[CHAR:%s:%d] %s", name, r.Seed(name), desc)
}

// SaveTemplates snapshots the current mapping under a story title so a
// later run of the same story can reuse it.
func (r *Registry) SaveTemplates(storyTitle string) {
	snapshot := make(map[string]string, len(r.characters))
	for k, v := range r.characters {
		snapshot[k] = v
	}
	r.templates[storyTitle] = snapshot
}

// LoadTemplates restores a previously saved mapping; it reports whether one
// existed for the title.
func (r *Registry) LoadTemplates(storyTitle string) bool {
	snapshot, ok := r.templates[storyTitle]
	if !ok {
		return false
	}
	r.characters = make(map[string]string, len(snapshot))
	for k, v := range snapshot {
		r.characters[k] = v
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
