package source

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestMemorySource(t *testing.T) {
	src := &MemorySource{
		DocName: "exam.pdf",
		Pages:   []string{"page one", "page two"},
	}

	if src.PageCount() != 2 {
		t.Errorf("expected 2 pages, got %d", src.PageCount())
	}
	if got := src.PageText(1); got != "page one" {
		t.Errorf("page 1 = %q", got)
	}
	if got := src.PageText(0); got != "" {
		t.Errorf("out-of-range page should be empty, got %q", got)
	}
	if got := src.PageText(3); got != "" {
		t.Errorf("out-of-range page should be empty, got %q", got)
	}
}

func TestOpenPDFMissingFile(t *testing.T) {
	_, err := OpenPDF(filepath.Join(t.TempDir(), "missing.pdf"), slog.Default())
	if err == nil {
		t.Fatal("expected error opening missing document")
	}
}

func TestOpenPDFNotAPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-pdf.pdf")
	if err := writeFile(path, "plain text, not a pdf"); err != nil {
		t.Fatal(err)
	}

	_, err := OpenPDF(path, slog.Default())
	if err == nil {
		t.Fatal("expected error opening non-PDF content")
	}
}
