package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

// Compressor re-encodes audio to mono mp3 at AudioBitrate with ffmpeg.
type Compressor struct {
	binary string
}

// NewCompressor returns a Compressor that runs binary ("ffmpeg" when empty).
func NewCompressor(binary string) *Compressor {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Compressor{binary: binary}
}

// Compress writes a mono, low bitrate copy of inputPath to outputPath.
func (c *Compressor) Compress(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, c.binary, compressArgs(inputPath, outputPath)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return domain.Wrap(domain.ErrCompressionFailed, fmt.Errorf("ffmpeg: %w: %s", err, lastLine(stderr.String())))
	}
	return nil
}

func compressArgs(inputPath, outputPath string) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", inputPath,
		"-ac", "1",
		"-b:a", AudioBitrate,
		outputPath,
	}
}
