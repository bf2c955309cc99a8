package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store DocumentStore, deps Dependencies) *IngestService {
	t.Helper()
	deps.Store = store
	if deps.Embedder == nil {
		deps.Embedder = &constantEmbedder{}
	}
	if deps.UUIDGen == nil {
		deps.UUIDGen = &sequentialUUIDs{}
	}
	cfg := testIngestConfig()
	cfg.WorkDir = t.TempDir()
	return NewIngestService(deps, cfg)
}

func longSegments(n, size int) []domain.Segment {
	segments := make([]domain.Segment, n)
	for i := range segments {
		segments[i] = domain.Segment{
			Start: float64(i * 10),
			End:   float64(i*10 + 10),
			Text:  strings.Repeat("x", size),
		}
	}
	return segments
}

func TestIngestTimedMedia_StoresTimestampedChunks(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(t, store, Dependencies{})

	result, err := svc.IngestTimedMedia(context.Background(), TimedMedia{
		ProviderID: 5,
		SourceURL:  "https://youtube.com/watch?v=abc",
		Title:      "Interview",
		MediaType:  domain.MediaTypeVideo,
		VideoID:    "abc",
		Segments:   longSegments(5, 250),
	})

	require.NoError(t, err)
	assert.Equal(t, "doc-1", result.DocumentID)
	assert.Equal(t, 2, result.Chunks)
	assert.Equal(t, 2, result.Report.Inserted)

	require.Len(t, store.documents, 1)
	assert.Equal(t, domain.MediaTypeVideo, store.documents[0].MediaType)

	require.Len(t, store.chunks, 2)
	first, second := store.chunks[0], store.chunks[1]
	assert.Equal(t, 0, *first.Metadata.TimestampStart)
	assert.Equal(t, 40, *first.Metadata.TimestampEnd)
	assert.Equal(t, 40, *second.Metadata.TimestampStart)
	assert.Equal(t, 50, *second.Metadata.TimestampEnd)
	assert.Equal(t, "abc", first.Metadata.VideoID)
	assert.Equal(t, "https://youtube.com/watch?v=abc", first.Metadata.Source)
	assert.Equal(t, "doc-1", second.DocumentID)
}

func TestIngestTimedMedia_EmptyTranscript(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(t, store, Dependencies{})

	_, err := svc.IngestTimedMedia(context.Background(), TimedMedia{
		ProviderID: 5,
		SourceURL:  "https://example.com",
		Title:      "Silence",
		MediaType:  domain.MediaTypeVideo,
	})

	assert.ErrorIs(t, err, domain.ErrEmptyTranscript)
	assert.Empty(t, store.documents)
}

func TestIngestTimedMedia_PartialPersistenceFailure(t *testing.T) {
	store := &memoryStore{failNext: 3}
	svc := newTestService(t, store, Dependencies{})

	result, err := svc.IngestTimedMedia(context.Background(), TimedMedia{
		ProviderID: 5,
		SourceURL:  "https://example.com",
		Title:      "Flaky",
		MediaType:  domain.MediaTypeAudio,
		Segments:   longSegments(2, 10),
	})

	assert.ErrorIs(t, err, domain.ErrPersistenceFailed)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.Report.Failed())
	assert.Len(t, store.documents, 1)
}

func TestIngestTimedMedia_EmbeddingFailureCreatesNoDocument(t *testing.T) {
	store := new(MockDocumentStore)
	embedder := new(MockEmbeddingClient)
	archiver := new(MockArchiver)
	svc := newTestService(t, store, Dependencies{Embedder: embedder, Archiver: archiver})
	embedder.On("GenerateEmbedding", mock.Anything, mock.Anything).Return(nil, errors.New("rate limited"))

	audio := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("a"), 0o600))

	result, err := svc.IngestTimedMedia(context.Background(), TimedMedia{
		ProviderID:  5,
		SourceURL:   "https://example.com/talk",
		Title:       "Talk",
		MediaType:   domain.MediaTypeVideo,
		Segments:    longSegments(3, 10),
		ArchivePath: audio,
	})

	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Nil(t, result)
	store.AssertNotCalled(t, "CreateDocument", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "InsertChunks", mock.Anything, mock.Anything)
	archiver.AssertNotCalled(t, "Archive", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestTimedMedia_ArchivesSource(t *testing.T) {
	archiver := new(MockArchiver)
	svc := newTestService(t, &memoryStore{}, Dependencies{Archiver: archiver})

	audio := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("a"), 0o600))
	archiver.On("Archive", mock.Anything, "5/doc-1/talk.mp3", audio).Return(errors.New("bucket missing"))

	_, err := svc.IngestTimedMedia(context.Background(), TimedMedia{
		ProviderID:  5,
		SourceURL:   "https://example.com/talk",
		Title:       "Talk",
		MediaType:   domain.MediaTypeVideo,
		Segments:    longSegments(1, 10),
		ArchivePath: audio,
	})

	require.NoError(t, err)
	archiver.AssertExpectations(t)
}

func TestIngestVideo_Success(t *testing.T) {
	store := &memoryStore{}
	downloader := new(MockDownloader)
	transcriber := new(MockTranscriber)
	svc := newTestService(t, store, Dependencies{Downloader: downloader, Transcriber: transcriber})

	url := "https://youtube.com/watch?v=xyz"
	downloader.On("Download", mock.Anything, url, mock.Anything, domain.DownloadOptions{}).
		Return(&domain.MediaFile{ID: "xyz", Title: "Keynote", Thumbnail: "https://i.ytimg.com/xyz.jpg"}, nil)
	transcriber.On("Transcribe", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.HasSuffix(p, "xyz.mp3")
	})).Return(&domain.Transcript{Segments: []domain.Segment{{Start: 0, End: 4.7, Text: "Welcome"}}}, nil)

	result, err := svc.IngestVideo(context.Background(), VideoRequest{URL: url, ProviderID: 7})

	require.NoError(t, err)
	assert.Equal(t, "Keynote", result.Title)
	require.Len(t, store.documents, 1)
	assert.Equal(t, "https://i.ytimg.com/xyz.jpg", store.documents[0].CoverImageURL)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "xyz", store.chunks[0].Metadata.VideoID)
	assert.Equal(t, 4, *store.chunks[0].Metadata.TimestampEnd)
}

func TestIngestVideo_TitleOverrideAndCookies(t *testing.T) {
	store := &memoryStore{}
	downloader := new(MockDownloader)
	transcriber := new(MockTranscriber)
	svc := newTestService(t, store, Dependencies{Downloader: downloader, Transcriber: transcriber})

	opts := domain.DownloadOptions{CookiesFromBrowser: "chrome"}
	downloader.On("Download", mock.Anything, "https://vimeo.com/1", mock.Anything, opts).
		Return(&domain.MediaFile{ID: "1", Title: "untitled"}, nil)
	transcriber.On("Transcribe", mock.Anything, mock.Anything).
		Return(&domain.Transcript{Segments: []domain.Segment{{Start: 0, End: 1, Text: "hi"}}}, nil)

	result, err := svc.IngestVideo(context.Background(), VideoRequest{
		URL:        "https://vimeo.com/1",
		ProviderID: 12,
		Title:      "Module 1",
		Options:    opts,
	})

	require.NoError(t, err)
	assert.Equal(t, "Module 1", result.Title)
	downloader.AssertExpectations(t)
}

func TestIngestVideo_DuplicateSkipsDownload(t *testing.T) {
	store := new(MockDocumentStore)
	downloader := new(MockDownloader)
	svc := newTestService(t, store, Dependencies{Downloader: downloader, Transcriber: new(MockTranscriber)})

	store.On("ExistsBySourceURL", mock.Anything, int64(7), "https://youtube.com/watch?v=dup").Return(true, nil)

	_, err := svc.IngestVideo(context.Background(), VideoRequest{URL: "https://youtube.com/watch?v=dup", ProviderID: 7})

	assert.ErrorIs(t, err, domain.ErrDocumentExists)
	downloader.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestVideo_TranscriptionErrorCreatesNothing(t *testing.T) {
	store := &memoryStore{}
	downloader := new(MockDownloader)
	transcriber := new(MockTranscriber)
	svc := newTestService(t, store, Dependencies{Downloader: downloader, Transcriber: transcriber})

	downloader.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.MediaFile{ID: "big"}, nil)
	transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(nil, domain.ErrAudioTooLarge)

	_, err := svc.IngestVideo(context.Background(), VideoRequest{URL: "https://youtube.com/watch?v=big", ProviderID: 1})

	assert.ErrorIs(t, err, domain.ErrAudioTooLarge)
	assert.Empty(t, store.documents)
}

func TestIngestVideo_InvalidProvider(t *testing.T) {
	svc := newTestService(t, &memoryStore{}, Dependencies{Downloader: new(MockDownloader), Transcriber: new(MockTranscriber)})
	_, err := svc.IngestVideo(context.Background(), VideoRequest{URL: "https://youtube.com/watch?v=a", ProviderID: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidProviderID)
}

func TestIngestVideo_RemovesWorkDir(t *testing.T) {
	downloader := new(MockDownloader)
	transcriber := new(MockTranscriber)
	svc := newTestService(t, &memoryStore{}, Dependencies{Downloader: downloader, Transcriber: transcriber})

	downloader.On("Download", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.MediaFile{ID: "v"}, nil)
	transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	_, err := svc.IngestVideo(context.Background(), VideoRequest{URL: "https://youtube.com/watch?v=v", ProviderID: 1})
	require.Error(t, err)

	entries, err := os.ReadDir(svc.cfg.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestIngestPodcast_Success(t *testing.T) {
	store := &memoryStore{}
	resolver := new(MockEpisodeResolver)
	compressor := new(MockCompressor)
	transcriber := new(MockTranscriber)
	fetcher := newFakeFetcher(nil)
	fetcher.files["https://cdn.example.com/ep1.mp3"] = "raw audio"

	svc := newTestService(t, store, Dependencies{
		Episodes:    resolver,
		Compressor:  compressor,
		Transcriber: transcriber,
		Fetcher:     fetcher,
	})

	resolver.On("Resolve", mock.Anything, "https://spotify.link/abc").Return(&domain.Episode{
		SourceURL: "https://open.spotify.com/episode/123",
		ShowName:  "Career Talk",
		Title:     "Ep 1: Getting Started",
		AudioURL:  "https://cdn.example.com/ep1.mp3",
	}, nil)
	compressor.On("Compress", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	transcriber.On("Transcribe", mock.Anything, mock.MatchedBy(func(p string) bool {
		return filepath.Base(p) == "compressed.mp3"
	})).Return(&domain.Transcript{Segments: []domain.Segment{{Start: 1.2, End: 3.9, Text: "Hello"}}}, nil)

	result, err := svc.IngestPodcast(context.Background(), "https://spotify.link/abc", 3)

	require.NoError(t, err)
	assert.Equal(t, "https://open.spotify.com/episode/123", result.SourceURL)
	require.Len(t, store.documents, 1)
	assert.Equal(t, domain.MediaTypeAudio, store.documents[0].MediaType)
	assert.Equal(t, "Ep 1: Getting Started", store.documents[0].Title)
	require.Len(t, store.chunks, 1)
	assert.Equal(t, 1, *store.chunks[0].Metadata.TimestampStart)
	assert.Equal(t, 3, *store.chunks[0].Metadata.TimestampEnd)
	compressor.AssertExpectations(t)
}

func TestIngestPodcast_ResolveError(t *testing.T) {
	resolver := new(MockEpisodeResolver)
	svc := newTestService(t, &memoryStore{}, Dependencies{
		Episodes:    resolver,
		Transcriber: new(MockTranscriber),
		Fetcher:     newFakeFetcher(nil),
	})
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(nil, domain.ErrNoFeedFound)

	_, err := svc.IngestPodcast(context.Background(), "https://open.spotify.com/episode/x", 3)
	assert.ErrorIs(t, err, domain.ErrNoFeedFound)
}

func TestIngestPodcast_DownloadError(t *testing.T) {
	resolver := new(MockEpisodeResolver)
	svc := newTestService(t, &memoryStore{}, Dependencies{
		Episodes:    resolver,
		Transcriber: new(MockTranscriber),
		Fetcher:     newFakeFetcher(nil),
	})
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(&domain.Episode{
		SourceURL: "https://open.spotify.com/episode/1",
		Title:     "t",
		AudioURL:  "https://cdn.example.com/missing.mp3",
	}, nil)

	_, err := svc.IngestPodcast(context.Background(), "https://open.spotify.com/episode/1", 3)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestTranscribe_CompressesOnlyOversizedAudio(t *testing.T) {
	compressor := new(MockCompressor)
	transcriber := new(MockTranscriber)
	svc := newTestService(t, &memoryStore{}, Dependencies{Compressor: compressor, Transcriber: transcriber})
	svc.cfg.MaxAudioBytes = 4

	dir := t.TempDir()
	small := filepath.Join(dir, "small.mp3")
	big := filepath.Join(dir, "big.mp3")
	require.NoError(t, os.WriteFile(small, []byte("abc"), 0o600))
	require.NoError(t, os.WriteFile(big, []byte("abcdef"), 0o600))

	compressor.On("Compress", mock.Anything, big, filepath.Join(dir, "compressed.mp3")).Return(nil)
	transcriber.On("Transcribe", mock.Anything, mock.Anything).Return(&domain.Transcript{}, nil)

	_, used, err := svc.transcribe(context.Background(), small, dir, false)
	require.NoError(t, err)
	assert.Equal(t, small, used)

	_, used, err = svc.transcribe(context.Background(), big, dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "compressed.mp3"), used)
	compressor.AssertNumberOfCalls(t, "Compress", 1)
}

const transcriptJSON = `{
  "text": "Hello there. General Kenobi.",
  "segments": [
    {"start": 0.0, "end": 2.5, "text": " Hello there."},
    {"start": 2.5, "end": 3.0, "text": "   "},
    {"start": 3.0, "end": 5.9, "text": " General Kenobi."}
  ]
}`

func TestLoadTranscriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp3.json")
	require.NoError(t, os.WriteFile(path, []byte(transcriptJSON), 0o600))

	transcript, err := LoadTranscriptFile(path)

	require.NoError(t, err)
	require.Len(t, transcript.Segments, 2)
	assert.Equal(t, "Hello there.", transcript.Segments[0].Text)
	assert.Equal(t, 5.9, transcript.Segments[1].End)
}

func TestLoadTranscriptFile_Errors(t *testing.T) {
	_, err := LoadTranscriptFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, domain.ErrSourceNotFound)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = LoadTranscriptFile(bad)
	assert.ErrorIs(t, err, domain.ErrMissingRequiredField)
}

func TestTranscriptTitle(t *testing.T) {
	assert.Equal(t, "Episode 4", TranscriptTitle("/data/Episode 4.mp3.json"))
	assert.Equal(t, "notes", TranscriptTitle("notes.json"))
}

func TestIngestTranscriptFile_Defaults(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(t, store, Dependencies{})

	path := filepath.Join(t.TempDir(), "Career Moves.mp3.json")
	require.NoError(t, os.WriteFile(path, []byte(transcriptJSON), 0o600))

	result, err := svc.IngestTranscriptFile(context.Background(), TranscriptFileRequest{Path: path, ProviderID: 5})

	require.NoError(t, err)
	assert.Equal(t, "Career Moves", result.Title)
	assert.True(t, strings.HasPrefix(result.SourceURL, "file://"))
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "Hello there. General Kenobi.", store.chunks[0].Content)
	assert.Equal(t, 0, *store.chunks[0].Metadata.TimestampStart)
	assert.Equal(t, 5, *store.chunks[0].Metadata.TimestampEnd)
}

func TestIngestTranscriptDir(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(t, store, Dependencies{})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(transcriptJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.mp3.json"), []byte(transcriptJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`{"segments": []}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("skip"), 0o600))

	stored, err := svc.IngestTranscriptDir(context.Background(), dir, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)
	assert.ElementsMatch(t, []string{"a", "b"}, store.titles())

	stored, err = svc.IngestTranscriptDir(context.Background(), dir, 5)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
	assert.Len(t, store.documents, 2)
}

func TestArchiveKey(t *testing.T) {
	assert.Equal(t, "12/doc-9/ep.mp3", ArchiveKey(12, "doc-9", "ep.mp3"))
}
