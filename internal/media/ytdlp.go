// Package media wraps the yt-dlp and ffmpeg binaries used to fetch and shrink audio.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

// AudioBitrate is the mp3 quality requested from yt-dlp and ffmpeg. 32 kbit/s
// mono keeps roughly 100 minutes of speech under the 25 MB transcription limit.
const AudioBitrate = "32k"

// Downloader extracts the audio track of a video page with yt-dlp.
type Downloader struct {
	binary string
}

// NewDownloader returns a Downloader that runs binary ("yt-dlp" when empty).
func NewDownloader(binary string) *Downloader {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &Downloader{binary: binary}
}

type videoInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Duration  float64 `json:"duration"`
}

// Download writes <dir>/<video id>.mp3 and returns it with the page metadata.
func (d *Downloader) Download(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.MediaFile, error) {
	cmd := exec.CommandContext(ctx, d.binary, downloadArgs(sourceURL, dir, opts)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, domain.Wrap(domain.ErrDownloadFailed, fmt.Errorf("yt-dlp: %w: %s", err, lastLine(stderr.String())))
	}

	info, err := parseVideoInfo(stdout.Bytes())
	if err != nil {
		return nil, domain.Wrap(domain.ErrDownloadFailed, err)
	}

	path, err := findAudio(dir, info.ID)
	if err != nil {
		return nil, domain.Wrap(domain.ErrDownloadFailed, err)
	}

	return &domain.MediaFile{
		Path:      path,
		ID:        info.ID,
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Duration:  time.Duration(info.Duration * float64(time.Second)),
	}, nil
}

func downloadArgs(sourceURL, dir string, opts domain.DownloadOptions) []string {
	args := []string{
		"--format", "bestaudio/best",
		"--extract-audio",
		"--audio-format", "mp3",
		"--audio-quality", strings.ToUpper(AudioBitrate),
		"--postprocessor-args", "ffmpeg:-ac 1",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--print-json",
		"--no-progress",
		"--no-warnings",
		"--no-playlist",
	}
	if opts.CookiesFromBrowser != "" {
		args = append(args, "--cookies-from-browser", opts.CookiesFromBrowser)
	}
	return append(args, sourceURL)
}

// parseVideoInfo reads the last JSON object yt-dlp printed.
func parseVideoInfo(out []byte) (*videoInfo, error) {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info videoInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			return nil, fmt.Errorf("invalid yt-dlp output: %w", err)
		}
		if info.ID == "" {
			return nil, fmt.Errorf("yt-dlp output has no video id")
		}
		return &info, nil
	}
	return nil, fmt.Errorf("yt-dlp printed no metadata")
}

// findAudio prefers the converted mp3 and falls back to whatever yt-dlp left
// when conversion was skipped.
func findAudio(dir, id string) (string, error) {
	mp3 := filepath.Join(dir, id+".mp3")
	if _, err := os.Stat(mp3); err == nil {
		return mp3, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, id+".*"))
	if err != nil {
		return "", err
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, ".part") && !strings.HasSuffix(m, ".json") {
			return m, nil
		}
	}
	return "", fmt.Errorf("no audio file for %s in %s", id, dir)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
