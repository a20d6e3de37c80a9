// Package progress persists which stories have been processed, so repeated
// cron runs skip finished work and failures leave a durable trace.
package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Failure records one story that could not be processed.
type Failure struct {
	Story     string `json:"story"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// Progress is the on-disk state shared across runs.
type Progress struct {
	Completed      []string  `json:"completed"`
	Failed         []Failure `json:"failed"`
	LastRun        string    `json:"last_run"`
	TotalRuns      int       `json:"total_runs"`
	TotalProcessed int       `json:"total_processed"`
}

// Store loads and saves progress at a fixed path. Saves go through a temp
// file and rename, so a crash mid-write never corrupts existing state.
type Store struct {
	path string
	data Progress
}

// Load reads the progress file, starting from zero state when it does not
// exist yet.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Printf("[progress] No progress file at %s — starting fresh", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse progress: %w", err)
	}
	log.Printf("[progress] Loaded: %d completed, %d failed, %d runs",
		len(s.data.Completed), len(s.data.Failed), s.data.TotalRuns)
	return s, nil
}

// Save writes the current state atomically.
func (s *Store) Save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace progress: %w", err)
	}
	return nil
}

// IsCompleted reports whether a story was already processed successfully.
func (s *Store) IsCompleted(story string) bool {
	for _, c := range s.data.Completed {
		if c == story {
			return true
		}
	}
	return false
}

// MarkCompleted records a successful story. Duplicate marks are ignored but
// the processed counter only advances on the first.
func (s *Store) MarkCompleted(story string) {
	if s.IsCompleted(story) {
		return
	}
	s.data.Completed = append(s.data.Completed, story)
	s.data.TotalProcessed++
}

// RecordFailure appends a failure entry with the current time.
func (s *Store) RecordFailure(story string, err error) {
	s.data.Failed = append(s.data.Failed, Failure{
		Story:     story,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// BeginRun stamps the run start and counts it.
func (s *Store) BeginRun() {
	s.data.LastRun = time.Now().Format(time.RFC3339)
	s.data.TotalRuns++
}

// Completed returns a copy of the completed list.
func (s *Store) Completed() []string {
	out := make([]string, len(s.data.Completed))
	copy(out, s.data.Completed)
	return out
}

// Failures returns a copy of the failure list.
func (s *Store) Failures() []Failure {
	out := make([]Failure, len(s.data.Failed))
	copy(out, s.data.Failed)
	return out
}

// TotalRuns reports how many runs have started, including the current one.
func (s *Store) TotalRuns() int { return s.data.TotalRuns }

// TotalProcessed reports how many stories have ever completed.
func (s *Store) TotalProcessed() int { return s.data.TotalProcessed }
