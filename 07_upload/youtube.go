package upload

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"story-video-pipeline/config"
	"story-video-pipeline/types"
)

// Uploader pushes finished videos to YouTube.
type Uploader struct {
	cfg     config.UploadConfig
	secrets config.Secrets
}

func New(cfg config.UploadConfig, secrets config.Secrets) *Uploader {
	return &Uploader{cfg: cfg, secrets: secrets}
}

// UploadStory builds metadata from the config template and uploads.
func (u *Uploader) UploadStory(ctx context.Context, title, videoFile string) (string, error) {
	return u.Upload(ctx, videoFile, BuildMetadata(u.cfg, title))
}

// Upload sends the video with its metadata and returns the watch URL.
func (u *Uploader) Upload(ctx context.Context, videoFile string, metadata *types.VideoMetadata) (string, error) {
	log.Println("[upload] Authenticating with YouTube API...")

	client, err := u.oauthClient(ctx)
	if err != nil {
		return "", fmt.Errorf("youtube auth: %w", err)
	}

	svc, err := youtube.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("youtube service: %w", err)
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       metadata.Title,
			Description: metadata.Description,
			Tags:        metadata.Tags,
			CategoryId:  metadata.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: metadata.Privacy,
		},
	}

	f, err := os.Open(videoFile)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil {
		log.Printf("[upload] Uploading %q (%.1f MB)...", metadata.Title, float64(fi.Size())/1024/1024)
	}

	call := svc.Videos.Insert([]string{"snippet", "status"}, video)
	call.Media(f)

	uploaded, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("youtube upload: %w", err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", uploaded.Id)
	log.Printf("[upload] ✅ Uploaded: %s", url)
	return url, nil
}

// oauthClient builds an HTTP client from a stored refresh token. The
// pre-expired token forces an immediate refresh on first use.
func (u *Uploader) oauthClient(ctx context.Context) (*http.Client, error) {
	if u.secrets.YouTubeClientID == "" || u.secrets.YouTubeSecret == "" || u.secrets.YouTubeRefreshTok == "" {
		return nil, fmt.Errorf("YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, or YOUTUBE_REFRESH_TOKEN not set")
	}

	conf := &oauth2.Config{
		ClientID:     u.secrets.YouTubeClientID,
		ClientSecret: u.secrets.YouTubeSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}
	token := &oauth2.Token{
		RefreshToken: u.secrets.YouTubeRefreshTok,
		Expiry:       time.Now().Add(-time.Hour),
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, token)), nil
}
