// Package stories manages the input queue: plain .txt files in a directory,
// title on the first line, body after. It can optionally top the queue up
// from Reddit.
package stories

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Story is one queued story with its source file.
type Story struct {
	File  string
	Title string
	Text  string
}

// List returns the queued story files sorted by name, so processing order
// is stable across runs.
func List(storiesDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(storiesDir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// Load reads one story file. The first non-empty line is the title; when the
// file has no separate title line the filename stem is used instead.
func Load(path string) (*Story, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, fmt.Errorf("story file %s is empty", filepath.Base(path))
	}

	title := strings.TrimSuffix(filepath.Base(path), ".txt")
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		first := strings.TrimSpace(text[:idx])
		if first != "" {
			title = first
		}
	}

	return &Story{File: path, Title: title, Text: text}, nil
}
