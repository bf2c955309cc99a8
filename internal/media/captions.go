package media

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

// CaptionLanguages is the yt-dlp --sub-langs selector used for caption tracks.
const CaptionLanguages = "en.*,en"

var vttTag = regexp.MustCompile(`<[^>]*>`)

// Captions writes the video's English subtitle track to dir and returns its
// text. Uploaded subtitles win over automatic ones when yt-dlp finds both.
func (d *Downloader) Captions(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.Captions, error) {
	cmd := exec.CommandContext(ctx, d.binary, captionArgs(sourceURL, dir, opts)...)
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

	path, lang, err := findCaptions(dir, info.ID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read captions: %w", err)
	}

	text := ParseVTT(string(data))
	if text == "" {
		return nil, domain.Wrap(domain.ErrNoCaptions, fmt.Errorf("%s is empty", filepath.Base(path)))
	}

	return &domain.Captions{
		VideoID:  info.ID,
		Title:    info.Title,
		Language: lang,
		Text:     text,
	}, nil
}

func captionArgs(sourceURL, dir string, opts domain.DownloadOptions) []string {
	args := []string{
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", CaptionLanguages,
		"--sub-format", "vtt",
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

// findCaptions picks <id>.en.vtt when present, otherwise the first English
// variant in name order.
func findCaptions(dir, id string) (string, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, id+".*.vtt"))
	if err != nil {
		return "", "", err
	}
	if len(matches) == 0 {
		return "", "", domain.Wrap(domain.ErrNoCaptions, fmt.Errorf("no subtitle track for %s", id))
	}
	sort.Strings(matches)

	pick := matches[0]
	for _, m := range matches {
		if filepath.Base(m) == id+".en.vtt" {
			pick = m
			break
		}
	}
	lang := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(pick), id+"."), ".vtt")
	return pick, lang, nil
}

// ParseVTT flattens a WebVTT file into space-joined cue text. The header,
// NOTE, STYLE and REGION blocks are dropped, as are cue identifiers, timing
// lines and inline tags. Automatic captions repeat the previous line at the
// top of each cue, so a line equal to the one before it is skipped.
func ParseVTT(vtt string) string {
	var lines []string

	blocks := strings.Split(strings.ReplaceAll(vtt, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		cue := strings.Split(strings.TrimSpace(block), "\n")
		timing := -1
		for i, line := range cue {
			if strings.Contains(line, "-->") {
				timing = i
				break
			}
		}
		if timing < 0 {
			continue
		}

		for _, line := range cue[timing+1:] {
			text := strings.Join(strings.Fields(html.UnescapeString(vttTag.ReplaceAllString(line, ""))), " ")
			if text == "" {
				continue
			}
			if n := len(lines); n > 0 && lines[n-1] == text {
				continue
			}
			lines = append(lines, text)
		}
	}

	return strings.Join(lines, " ")
}
