package domain

import "fmt"

// ChunkMetadata is stored as JSON next to each knowledge chunk.
type ChunkMetadata struct {
	Source         string         `json:"source"`
	TimestampStart *int           `json:"timestampStart,omitempty"`
	TimestampEnd   *int           `json:"timestampEnd,omitempty"`
	VideoID        string         `json:"video_id,omitempty"`
	Author         string         `json:"author,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// KnowledgeChunk is one embedded unit of a document, stored for retrieval.
type KnowledgeChunk struct {
	ID         string
	ProviderID int64
	DocumentID string
	ChunkIndex int
	Content    string
	Embedding  []float32
	Metadata   ChunkMetadata
}

// TimedMetadata builds metadata for a chunk that maps back to a media time range.
func TimedMetadata(source string, c Chunk) ChunkMetadata {
	start, end := c.StartTime, c.EndTime
	return ChunkMetadata{
		Source:         source,
		TimestampStart: &start,
		TimestampEnd:   &end,
	}
}

// ValidateKnowledgeChunk validates a KnowledgeChunk before insert
func ValidateKnowledgeChunk(c *KnowledgeChunk) error {
	if c == nil {
		return fmt.Errorf("knowledge chunk cannot be nil")
	}

	if c.ProviderID <= 0 {
		return ErrInvalidProviderID
	}

	if c.DocumentID == "" {
		return fmt.Errorf("knowledge chunk DocumentID is required")
	}

	if c.Content == "" {
		return fmt.Errorf("knowledge chunk Content is required")
	}

	if len(c.Embedding) == 0 {
		return fmt.Errorf("knowledge chunk Embedding is required")
	}

	if c.Metadata.Source == "" {
		return fmt.Errorf("knowledge chunk Metadata.Source is required")
	}

	return nil
}
