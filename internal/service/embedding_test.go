package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testDocument() *domain.Document {
	doc := domain.NewDocument(12, "Episode", "https://example.com/e", domain.MediaTypeAudio)
	doc.ID = "doc-1"
	return doc
}

func TestEmbeddingService_EmbedChunks_Success(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)

	mockClient.On("GenerateEmbedding", mock.Anything, "first chunk").Return([]float32{1, 2}, nil)
	mockClient.On("GenerateEmbedding", mock.Anything, "second chunk").Return([]float32{3, 4}, nil)

	start, end := 0, 40
	rows, err := svc.EmbedChunks(context.Background(), testDocument(), []ChunkInput{
		{Text: " first chunk ", Metadata: domain.ChunkMetadata{Source: "s", TimestampStart: &start, TimestampEnd: &end}},
		{Text: "second chunk", Metadata: domain.ChunkMetadata{Source: "s"}},
	})

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "first chunk", rows[0].Content)
	assert.Equal(t, []float32{1, 2}, rows[0].Embedding)
	assert.Equal(t, int64(12), rows[0].ProviderID)
	assert.Equal(t, "doc-1", rows[0].DocumentID)
	assert.Equal(t, 0, rows[0].ChunkIndex)
	assert.Equal(t, 40, *rows[0].Metadata.TimestampEnd)
	assert.Equal(t, 1, rows[1].ChunkIndex)
	mockClient.AssertExpectations(t)
}

func TestEmbeddingService_EmbedChunks_SkipsBlank(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)
	mockClient.On("GenerateEmbedding", mock.Anything, "text").Return([]float32{1}, nil)

	rows, err := svc.EmbedChunks(context.Background(), testDocument(), []ChunkInput{{Text: "  "}, {Text: "text"}})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].ChunkIndex)
	mockClient.AssertNumberOfCalls(t, "GenerateEmbedding", 1)
}

func TestEmbeddingService_EmbedChunks_ClientError(t *testing.T) {
	mockClient := new(MockEmbeddingClient)
	svc := NewEmbeddingService(mockClient)

	mockClient.On("GenerateEmbedding", mock.Anything, "one").Return([]float32{1}, nil)
	mockClient.On("GenerateEmbedding", mock.Anything, "two").Return(nil, errors.New("rate limited"))

	rows, err := svc.EmbedChunks(context.Background(), testDocument(), []ChunkInput{{Text: "one"}, {Text: "two"}, {Text: "three"}})

	assert.Nil(t, rows)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "chunk 1")
	mockClient.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, "three")
}
