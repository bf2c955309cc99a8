package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/cloo-solutions/docseeder/internal/domain"
	"github.com/ledongthuc/pdf"
)

// PDFDocument is the plain text of a PDF file.
type PDFDocument struct {
	Text  string
	Pages int
}

// PDFText extracts the text layer of the PDF at path.
func PDFText(path string) (*PDFDocument, error) {
	if path == "" {
		return nil, domain.Wrap(domain.ErrMissingRequiredField, fmt.Errorf("pdf path is empty"))
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, domain.Wrap(domain.ErrExtractionFailed, err)
	}
	defer file.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return nil, domain.Wrap(domain.ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return nil, domain.Wrap(domain.ErrExtractionFailed, err)
	}

	return &PDFDocument{
		Text:  strings.TrimSpace(buf.String()),
		Pages: reader.NumPage(),
	}, nil
}
