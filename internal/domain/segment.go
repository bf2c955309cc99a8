package domain

import "time"

// Segment is a time-stamped fragment of transcribed speech. Start and End are
// seconds from the beginning of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the result of transcribing one audio file.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

// Chunk is an aggregated run of contiguous segments with integer second bounds.
type Chunk struct {
	Text      string
	StartTime int
	EndTime   int
}

// MediaFile is a downloaded audio file plus the metadata reported by the source.
type MediaFile struct {
	Path      string
	ID        string
	Title     string
	Thumbnail string
	Duration  time.Duration
}

// Captions is the plain text of a video's subtitle track.
type Captions struct {
	VideoID  string
	Title    string
	Language string
	Text     string
}
