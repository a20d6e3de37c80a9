// Package assemble renders the final narrated video with ffmpeg: one
// ken-burns clip per scene pinned to that scene's measured audio duration,
// hard-cut concatenation, and looped background music under the narration.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"story-video-pipeline/config"
	"story-video-pipeline/types"
)

// ErrCardinalityMismatch reports audio and image lists of different lengths.
var ErrCardinalityMismatch = errors.New("audio and image counts differ")

// Assembler builds story videos from per-scene audio and imagery.
type Assembler struct {
	cfg      config.VideoConfig
	musicDir string
	videoDir string
}

func New(cfg config.VideoConfig, musicDir, videoDir string) *Assembler {
	return &Assembler{cfg: cfg, musicDir: musicDir, videoDir: videoDir}
}

// AssembleVideo produces videos/story_<hash>.mp4 from parallel audio and
// image lists. Scene timing comes from the measured audio durations; the
// image for scene i is shown for exactly as long as scene i's narration.
func (a *Assembler) AssembleVideo(ctx context.Context, title string, audioPaths, imagePaths []string) (string, error) {
	if len(audioPaths) != len(imagePaths) {
		return "", fmt.Errorf("%w: %d audio, %d images", ErrCardinalityMismatch, len(audioPaths), len(imagePaths))
	}
	if len(audioPaths) == 0 {
		return "", fmt.Errorf("no scenes to assemble")
	}
	if err := os.MkdirAll(a.videoDir, 0755); err != nil {
		return "", fmt.Errorf("create videos dir: %w", err)
	}

	workDir, err := os.MkdirTemp(a.videoDir, "assemble_")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(workDir)

	log.Printf("[assemble] Building %d scene clips...", len(audioPaths))

	// One clip per scene, each exactly as long as its narration.
	clips := make([]string, 0, len(audioPaths))
	for i := range audioPaths {
		dur, err := probeDuration(ctx, audioPaths[i])
		if err != nil {
			return "", fmt.Errorf("measure scene %d audio: %w", i+1, err)
		}

		clip := filepath.Join(workDir, fmt.Sprintf("clip_%02d.mp4", i+1))
		if err := a.kenBurnsClip(ctx, imagePaths[i], clip, dur, i); err != nil {
			log.Printf("[assemble] Warning: ken-burns failed for scene %d: %v — using static clip", i+1, err)
			if err := a.staticClip(ctx, imagePaths[i], clip, dur); err != nil {
				return "", fmt.Errorf("scene %d clip: %w", i+1, err)
			}
		}
		clips = append(clips, clip)
	}

	silentVideo, err := a.concatClips(ctx, clips, workDir)
	if err != nil {
		return "", fmt.Errorf("concatenate clips: %w", err)
	}

	narration, err := a.concatAudio(ctx, audioPaths, workDir)
	if err != nil {
		return "", fmt.Errorf("concatenate narration: %w", err)
	}

	// Background music is cosmetic: any failure here falls back to bare
	// narration.
	soundtrack := narration
	if mixed, err := a.mixMusic(ctx, narration, workDir); err != nil {
		log.Printf("[assemble] Warning: music mix failed: %v — using narration only", err)
	} else {
		soundtrack = mixed
	}

	outFile := filepath.Join(a.videoDir, types.VideoFilename(title))
	if err := a.combine(ctx, silentVideo, soundtrack, outFile); err != nil {
		os.Remove(outFile)
		return "", fmt.Errorf("combine video+audio: %w", err)
	}

	log.Printf("[assemble] ✅ Final video ready: %s", outFile)
	return outFile, nil
}

// kenBurnsClip renders a slow zoom over a still image. Even scenes zoom in,
// odd scenes zoom out.
func (a *Assembler) kenBurnsClip(ctx context.Context, imageFile, outFile string, dur float64, sceneIdx int) error {
	frames := int(dur * float64(a.cfg.FPS))
	if frames < 1 {
		frames = 1
	}

	zf := a.cfg.ZoomFactor
	var zoomExpr string
	if sceneIdx%2 == 0 {
		zoomExpr = fmt.Sprintf("1+%.4f*on/%d", zf-1, frames)
	} else {
		zoomExpr = fmt.Sprintf("%.4f-%.4f*on/%d", zf, zf-1, frames)
	}

	// Upscale before zoompan to avoid the filter's subpixel jitter.
	vf := fmt.Sprintf(
		"scale=%d:-2,zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		a.cfg.Width*2, zoomExpr, frames, a.cfg.Width, a.cfg.Height, a.cfg.FPS,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", imageFile,
		"-t", fmt.Sprintf("%.3f", dur),
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg zoompan: %v: %s", err, lastLines(out, 3))
	}
	return nil
}

// staticClip is the degraded form of a scene clip: the image held still for
// the narration's duration.
func (a *Assembler) staticClip(ctx context.Context, imageFile, outFile string, dur float64) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		a.cfg.Width, a.cfg.Height, a.cfg.Width, a.cfg.Height,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1",
		"-i", imageFile,
		"-t", fmt.Sprintf("%.3f", dur),
		"-vf", vf,
		"-r", strconv.Itoa(a.cfg.FPS),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "22",
		"-pix_fmt", "yuv420p",
		"-an",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg static clip: %v: %s", err, lastLines(out, 3))
	}
	return nil
}

// concatClips hard-cuts the scene clips together. Clips share codec and
// dimensions, so the concat demuxer can stream-copy.
func (a *Assembler) concatClips(ctx context.Context, clips []string, workDir string) (string, error) {
	listFile := filepath.Join(workDir, "clips_concat.txt")
	if err := writeConcatList(listFile, clips); err != nil {
		return "", err
	}

	outFile := filepath.Join(workDir, "visuals.mp4")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c", "copy",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg concat clips: %v: %s", err, lastLines(out, 3))
	}
	return outFile, nil
}

// concatAudio joins the scene narrations into one track, re-encoding so
// mixed source formats (API wav, edge-tts output, synthesized silence) line
// up.
func (a *Assembler) concatAudio(ctx context.Context, audioPaths []string, workDir string) (string, error) {
	listFile := filepath.Join(workDir, "audio_concat.txt")
	if err := writeConcatList(listFile, audioPaths); err != nil {
		return "", err
	}

	outFile := filepath.Join(workDir, "narration.wav")
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-ar", "44100",
		"-ac", "2",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg concat audio: %v: %s", err, lastLines(out, 3))
	}
	return outFile, nil
}

// mixMusic loops a randomly chosen background track under the narration at
// low volume. The mix is cut to the narration's length.
func (a *Assembler) mixMusic(ctx context.Context, narrationFile, workDir string) (string, error) {
	music, err := pickMusic(a.musicDir)
	if err != nil {
		return "", err
	}
	if music == "" {
		log.Println("[assemble] No background music found — narration only")
		return narrationFile, nil
	}

	log.Printf("[assemble] Mixing background music: %s", filepath.Base(music))

	outFile := filepath.Join(workDir, "soundtrack.wav")
	filter := fmt.Sprintf(
		"[1:a]volume=%.2f[bg];[0:a][bg]amix=inputs=2:duration=first:normalize=0[aout]",
		a.cfg.MusicVolume,
	)
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", narrationFile,
		"-stream_loop", "-1",
		"-i", music,
		"-filter_complex", filter,
		"-map", "[aout]",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg music mix: %v: %s", err, lastLines(out, 3))
	}
	return outFile, nil
}

func (a *Assembler) combine(ctx context.Context, videoFile, audioFile, outFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", videoFile,
		"-i", audioFile,
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", "192k",
		"-shortest",
		"-movflags", "+faststart",
		outFile,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg combine: %v: %s", err, lastLines(out, 3))
	}
	return nil
}

// pickMusic returns a random mp3 from the music pool, or "" when the pool
// is empty or missing.
func pickMusic(musicDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(musicDir, "*.mp3"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", nil
	}
	return matches[rand.Intn(len(matches))], nil
}

// probeDuration reads a media file's duration in seconds with ffprobe.
func probeDuration(ctx context.Context, file string) (float64, error) {
	out, err := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		file,
	).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", filepath.Base(file), err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration of %s: %w", filepath.Base(file), err)
	}
	if dur <= 0 {
		return 0, fmt.Errorf("non-positive duration for %s", filepath.Base(file))
	}
	return dur, nil
}

func writeConcatList(listFile string, files []string) error {
	lines := make([]string, 0, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		lines = append(lines, fmt.Sprintf("file '%s'", abs))
	}
	return os.WriteFile(listFile, []byte(strings.Join(lines, "\n")), 0644)
}

func lastLines(out []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
