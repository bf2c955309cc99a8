package service

import (
	"context"
	"log"
	"path/filepath"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/cloo-solutions/docseeder/internal/extract"
	"github.com/cloo-solutions/docseeder/internal/telemetry"
)

// PDFReader extracts the text layer of a local PDF.
type PDFReader func(path string) (*extract.PDFDocument, error)

// IngestPDF stores the text of a local PDF file as a pdf document titled with
// the file name.
func (s *IngestService) IngestPDF(ctx context.Context, path string, providerID int64) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.IngestPDF", telemetry.SpanAttributes{
		ProviderID: providerID,
		Source:     path,
		Operation:  "pdf",
	})
	defer span.End()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	read := s.readPDF
	if read == nil {
		read = extract.PDFText
	}
	doc, err := read(abs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	log.Printf("pdf: extracted %d characters from %d pages", len(doc.Text), doc.Pages)

	name := filepath.Base(abs)
	return s.IngestText(ctx, TextDocument{
		ProviderID: providerID,
		SourceURL:  "file://" + filepath.ToSlash(abs),
		Title:      name,
		MediaType:  domain.MediaTypePDF,
		Text:       doc.Text,
		MinChars:   1,
		Metadata: domain.ChunkMetadata{
			Extra: map[string]any{"file_name": name, "pages": doc.Pages},
		},
		ArchivePath: abs,
	})
}
