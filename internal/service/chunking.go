package service

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloo-solutions/docseeder/internal/domain"
)

// TimestampRounding selects how fractional segment times become chunk seconds.
type TimestampRounding int

const (
	// TimestampTruncate drops the fractional part (toward zero).
	TimestampTruncate TimestampRounding = iota
	// TimestampNearest rounds half away from zero.
	TimestampNearest
)

func (r TimestampRounding) apply(seconds float64) int {
	if r == TimestampNearest {
		return int(math.Round(seconds))
	}
	return int(seconds)
}

// SegmentChunkConfig controls aggregation of transcript segments into chunks.
type SegmentChunkConfig struct {
	// Threshold is a soft cap: a chunk closes once its text is longer than this.
	Threshold int
	Rounding  TimestampRounding
}

// DefaultSegmentChunkConfig matches the chunk size used for all timed media.
func DefaultSegmentChunkConfig() SegmentChunkConfig {
	return SegmentChunkConfig{
		Threshold: 1000,
		Rounding:  TimestampTruncate,
	}
}

// AggregateSegments folds ordered segments into contiguous chunks. Each segment
// text is appended with a trailing space; the chunk closes when the accumulated
// text exceeds the threshold in characters or the last segment is reached. A chunk starts at
// its first segment's start and ends at its last segment's end.
func AggregateSegments(segments []domain.Segment, cfg SegmentChunkConfig) []domain.Chunk {
	if len(segments) == 0 {
		return nil
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSegmentChunkConfig().Threshold
	}

	var (
		chunks []domain.Chunk
		acc    strings.Builder
		size   int
		start  float64
	)
	last := len(segments) - 1

	for i, seg := range segments {
		if acc.Len() == 0 {
			start = seg.Start
		}
		acc.WriteString(seg.Text)
		acc.WriteByte(' ')
		size += utf8.RuneCountInString(seg.Text) + 1

		if size > cfg.Threshold || i == last {
			chunks = append(chunks, domain.Chunk{
				Text:      strings.TrimSpace(acc.String()),
				StartTime: cfg.Rounding.apply(start),
				EndTime:   cfg.Rounding.apply(seg.End),
			})
			acc.Reset()
			size = 0
		}
	}

	return chunks
}

// TextChunkConfig controls splitting of untimed text (web pages, articles, PDFs).
type TextChunkConfig struct {
	MaxChars  int
	MinChars  int
	Overlap   int
	MaxChunks int
}

// DefaultTextChunkConfig provides sane defaults for chunking.
func DefaultTextChunkConfig() TextChunkConfig {
	return TextChunkConfig{
		MaxChars:  1024,
		MinChars:  200,
		Overlap:   50,
		MaxChunks: 0,
	}
}

// SplitText cuts text into windows of at most MaxChars runes, preferring to
// break on whitespace after MinChars, with Overlap runes repeated between
// neighbours. MaxChunks of zero means no limit.
func SplitText(text string, cfg TextChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = DefaultTextChunkConfig()
	}
	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, len(runes)/cfg.MaxChars+1)
	start := 0
	for start < len(runes) {
		if cfg.MaxChunks > 0 && len(chunks) >= cfg.MaxChunks {
			break
		}

		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
			// resume on a word boundary inside the overlap window
			for nextStart < end && !unicode.IsSpace(runes[nextStart-1]) {
				nextStart++
			}
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
