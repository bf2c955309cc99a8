package service

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockEmbeddingClient mocks the OpenAI client
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockDocumentStore mocks the document repository
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error) {
	args := m.Called(ctx, providerID, sourceURL)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentStore) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	args := m.Called(ctx, chunks)
	return args.Error(0)
}

// MockTranscriber mocks the Whisper transcriber
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audioPath string) (*domain.Transcript, error) {
	args := m.Called(ctx, audioPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transcript), args.Error(1)
}

// MockCaptionFetcher mocks the yt-dlp subtitle download
type MockCaptionFetcher struct {
	mock.Mock
}

func (m *MockCaptionFetcher) Captions(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.Captions, error) {
	args := m.Called(ctx, sourceURL, dir, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Captions), args.Error(1)
}

// MockDownloader mocks yt-dlp. Successful calls write a small file into dir.
type MockDownloader struct {
	mock.Mock
}

func (m *MockDownloader) Download(ctx context.Context, sourceURL, dir string, opts domain.DownloadOptions) (*domain.MediaFile, error) {
	args := m.Called(ctx, sourceURL, dir, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	file := *args.Get(0).(*domain.MediaFile)
	file.Path = dir + "/" + file.ID + ".mp3"
	if err := os.WriteFile(file.Path, []byte("audio"), 0o600); err != nil {
		return nil, err
	}
	return &file, args.Error(1)
}

// MockCompressor mocks ffmpeg
type MockCompressor struct {
	mock.Mock
}

func (m *MockCompressor) Compress(ctx context.Context, inputPath, outputPath string) error {
	args := m.Called(ctx, inputPath, outputPath)
	if err := args.Error(0); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte("small"), 0o600)
}

// MockEpisodeResolver mocks podcast lookup
type MockEpisodeResolver struct {
	mock.Mock
}

func (m *MockEpisodeResolver) Resolve(ctx context.Context, episodeURL string) (*domain.Episode, error) {
	args := m.Called(ctx, episodeURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Episode), args.Error(1)
}

// MockArchiver mocks the S3 source archive
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, key, path string) error {
	args := m.Called(ctx, key, path)
	return args.Error(0)
}

// fakeFetcher serves pages from memory and records requests in order.
type fakeFetcher struct {
	mu       sync.Mutex
	pages    map[string]string
	files    map[string]string
	requests []string
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, files: map[string]string{}}
}

func (f *fakeFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	body, ok := f.pages[url]
	if !ok {
		return nil, domain.Wrap(domain.ErrFetchStatus, fmt.Errorf("404 for %s", url))
	}
	return []byte(body), nil
}

func (f *fakeFetcher) DownloadFile(ctx context.Context, url, path string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	body, ok := f.files[url]
	if !ok {
		return 0, domain.Wrap(domain.ErrFetchStatus, fmt.Errorf("404 for %s", url))
	}
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		return 0, err
	}
	return int64(len(body)), nil
}

// memoryStore is an in-memory DocumentStore.
type memoryStore struct {
	mu        sync.Mutex
	documents []*domain.Document
	chunks    []domain.KnowledgeChunk
	failNext  int
}

func (s *memoryStore) ExistsBySourceURL(ctx context.Context, providerID int64, sourceURL string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.documents {
		if d.ProviderID == providerID && d.SourceURL == sourceURL {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryStore) CreateDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *doc
	s.documents = append(s.documents, &copied)
	return nil
}

func (s *memoryStore) InsertChunks(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return fmt.Errorf("connection reset")
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *memoryStore) titles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.documents))
	for i, d := range s.documents {
		out[i] = d.Title
	}
	return out
}

// sequentialUUIDs returns doc-1, doc-2, ...
type sequentialUUIDs struct {
	n int
}

func (g *sequentialUUIDs) NewString() string {
	g.n++
	return fmt.Sprintf("doc-%d", g.n)
}

// constantEmbedder returns the same small vector for every text.
type constantEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (e *constantEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func testIngestConfig() IngestConfig {
	cfg := DefaultIngestConfig()
	cfg.Batch.RetryDelay = 0
	return cfg
}
