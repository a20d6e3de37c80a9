package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"story-video-pipeline/progress"
	"story-video-pipeline/types"
)

type stubSegmenter struct{ calls int }

func (s *stubSegmenter) Segment(ctx context.Context, storyText string) ([]types.Scene, error) {
	s.calls++
	return []types.Scene{
		{Index: 1, Text: "first half"},
		{Index: 2, Text: "second half"},
	}, nil
}

func (s *stubSegmenter) Analysis() *types.AnalysisResult { return nil }

type stubRegistry struct{ calls int }

func (r *stubRegistry) Extract(*types.AnalysisResult) map[string]string {
	r.calls++
	return nil
}

type stubVoice struct {
	failFor string
	calls   int
}

func (v *stubVoice) GenerateStoryAudio(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
	v.calls++
	if v.failFor != "" && strings.Contains(title, v.failFor) {
		return nil, errors.New("all voice providers exhausted")
	}
	paths := make([]string, len(scenes))
	for i := range scenes {
		paths[i] = fmt.Sprintf("audio/scene_%02d.wav", i+1)
	}
	return paths, nil
}

type stubImages struct{ calls int }

func (m *stubImages) GenerateStoryImages(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
	m.calls++
	paths := make([]string, len(scenes))
	for i := range scenes {
		paths[i] = fmt.Sprintf("images/scene_%02d.jpg", i+1)
	}
	return paths, nil
}

type stubAssembler struct{ calls int }

func (a *stubAssembler) AssembleVideo(ctx context.Context, title string, audioPaths, imagePaths []string) (string, error) {
	a.calls++
	if len(audioPaths) != len(imagePaths) {
		return "", errors.New("audio and image counts differ")
	}
	return "videos/" + types.VideoFilename(title), nil
}

type captureNotifier struct{ messages []string }

func (c *captureNotifier) Send(text string) { c.messages = append(c.messages, text) }

type fixture struct {
	runner   *Runner
	store    *progress.Store
	voice    *stubVoice
	images   *stubImages
	asm      *stubAssembler
	notifier *captureNotifier
	dir      string
}

func newFixture(t *testing.T, failFor string) *fixture {
	t.Helper()
	dir := t.TempDir()

	store, err := progress.Load(filepath.Join(dir, "cron_progress.json"))
	require.NoError(t, err)

	f := &fixture{
		store:    store,
		voice:    &stubVoice{failFor: failFor},
		images:   &stubImages{},
		asm:      &stubAssembler{},
		notifier: &captureNotifier{},
		dir:      dir,
	}
	f.runner = New(Options{
		Segmenter:  &stubSegmenter{},
		Registry:   &stubRegistry{},
		Voice:      f.voice,
		Images:     f.images,
		Assembler:  f.asm,
		Store:      store,
		Notifier:   f.notifier,
		StoriesDir: dir,
		StoryDelay: 0,
	})
	return f
}

func (f *fixture) addStory(t *testing.T, name, title string) {
	t.Helper()
	content := title + "\n\nOnce upon a time there was a story body.\n"
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte(content), 0644))
}

func TestRunProcessesAllPendingStories(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "a.txt", "Story A")
	f.addStory(t, "b.txt", "Story B")

	require.NoError(t, f.runner.Run(context.Background()))

	assert.Equal(t, 2, f.asm.calls)
	assert.True(t, f.store.IsCompleted("a"))
	assert.True(t, f.store.IsCompleted("b"))
	assert.Empty(t, f.store.Failures())
	assert.Equal(t, 2, f.store.TotalProcessed())
}

func TestRunContinuesAfterStoryFailure(t *testing.T) {
	f := newFixture(t, "Story A")
	f.addStory(t, "a.txt", "Story A")
	f.addStory(t, "b.txt", "Story B")

	require.NoError(t, f.runner.Run(context.Background()))

	assert.False(t, f.store.IsCompleted("a"))
	assert.True(t, f.store.IsCompleted("b"))

	failures := f.store.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "a", failures[0].Story)
	assert.Contains(t, failures[0].Error, "voice")
}

func TestRunSkipsCompletedStories(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "a.txt", "Story A")

	require.NoError(t, f.runner.Run(context.Background()))
	require.Equal(t, 1, f.asm.calls)

	// Second run with the same queue does nothing.
	require.NoError(t, f.runner.Run(context.Background()))
	assert.Equal(t, 1, f.asm.calls)
	assert.Equal(t, 1, f.store.TotalProcessed())
	assert.Equal(t, 2, f.store.TotalRuns())
}

func TestRunKeysProgressByStem(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "match_girl.txt", "The Little Match Girl")

	// A pre-existing progress file records stems, not filenames.
	f.store.MarkCompleted("match_girl")
	require.NoError(t, f.store.Save())

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Zero(t, f.asm.calls, "stories completed under stem keys must be skipped")
}

func TestRunPersistsProgressBetweenStories(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "a.txt", "Story A")

	require.NoError(t, f.runner.Run(context.Background()))

	// The on-disk state already reflects the completed story.
	reloaded, err := progress.Load(filepath.Join(f.dir, "cron_progress.json"))
	require.NoError(t, err)
	assert.True(t, reloaded.IsCompleted("a"))
	assert.Equal(t, 1, reloaded.TotalRuns())
}

func TestRunNotifiesStartAndSummary(t *testing.T) {
	f := newFixture(t, "Story A")
	f.addStory(t, "a.txt", "Story A")

	require.NoError(t, f.runner.Run(context.Background()))

	joined := strings.Join(f.notifier.messages, "\n")
	assert.Contains(t, joined, "started")
	assert.Contains(t, joined, "failed")
	assert.Contains(t, joined, "finished")
}

func TestRunFailureNotificationIsTruncated(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "a.txt", "Story A")

	// Force a very long error through the voice stage.
	f.voice.failFor = "Story A"
	longSuffix := strings.Repeat("x", 400)
	f.runner.voice = voiceFunc(func(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
		return nil, errors.New("voice blew up: " + longSuffix)
	})

	require.NoError(t, f.runner.Run(context.Background()))

	var failureMsg string
	for _, m := range f.notifier.messages {
		if strings.Contains(m, "failed:") && strings.Contains(m, "a") {
			failureMsg = m
		}
	}
	require.NotEmpty(t, failureMsg)
	assert.Less(t, len(failureMsg), 250, "notification must carry a truncated error")

	// The full error is preserved in the progress record.
	failures := f.store.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error, longSuffix)
}

func TestRunEmptyQueue(t *testing.T) {
	f := newFixture(t, "")

	require.NoError(t, f.runner.Run(context.Background()))
	assert.Zero(t, f.asm.calls)
	assert.Empty(t, f.notifier.messages, "no notifications when there is nothing to do")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t, "")
	f.addStory(t, "a.txt", "Story A")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.asm.calls)
}

// voiceFunc adapts a function to the VoiceGenerator interface.
type voiceFunc func(ctx context.Context, title string, scenes []types.Scene) ([]string, error)

func (f voiceFunc) GenerateStoryAudio(ctx context.Context, title string, scenes []types.Scene) ([]string, error) {
	return f(ctx, title, scenes)
}
