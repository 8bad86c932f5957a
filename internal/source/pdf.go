package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PDFSource reads page text from a PDF on disk.
// Page counting goes through pdfcpu, which handles damaged cross-reference
// tables better; text extraction uses ledongthuc/pdf for its per-page API.
type PDFSource struct {
	name      string
	path      string
	pageCount int
	file      *os.File
	reader    *pdf.Reader
	logger    *slog.Logger
}

// OpenPDF opens the document at path. An unreadable document is an error
// here (job-fatal); unreadable individual pages are not.
func OpenPDF(path string, logger *slog.Logger) (*PDFSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}

	pageCount, err := api.PageCount(f, nil)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to count pages in %s: %w", filepath.Base(path), err)
	}
	if pageCount < 1 {
		f.Close()
		return nil, fmt.Errorf("document %s has no pages", filepath.Base(path))
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to parse document %s: %w", filepath.Base(path), err)
	}
	f.Close()

	return &PDFSource{
		name:      filepath.Base(path),
		path:      path,
		pageCount: pageCount,
		file:      file,
		reader:    reader,
		logger:    logger,
	}, nil
}

func (s *PDFSource) Name() string   { return s.name }
func (s *PDFSource) PageCount() int { return s.pageCount }

// PageText extracts plain text from one page. Extraction failures on a
// single page are logged and yield "".
func (s *PDFSource) PageText(pageNumber int) (text string) {
	// The pdf package panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("page text extraction panicked",
				"document", s.name,
				"page", pageNumber,
				"panic", r)
			text = ""
		}
	}()

	if pageNumber < 1 || pageNumber > s.reader.NumPage() {
		return ""
	}

	page := s.reader.Page(pageNumber)
	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		s.logger.Warn("failed to extract page text",
			"document", s.name,
			"page", pageNumber,
			"error", err)
		return ""
	}
	return strings.TrimSpace(content)
}

func (s *PDFSource) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}
