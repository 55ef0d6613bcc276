package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docfill/internal/docxtest"
)

func TestLoadAndValidate_Valid(t *testing.T) {
	dir := t.TempDir()
	body := docxtest.Paragraph("", docxtest.Run("", "Hello {name}"))
	path := docxtest.WriteFile(t, dir, "ok.docx", docxtest.Document(body), docxtest.Options{})

	doc, err := LoadAndValidate(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Text(); got != "Hello {name}" {
		t.Errorf("expected %q, got %q", "Hello {name}", got)
	}
}

func TestLoad_CountsParagraphs(t *testing.T) {
	dir := t.TempDir()
	body := docxtest.Paragraph("", docxtest.Run("", "one")) + docxtest.Paragraph("", docxtest.Run("", "two"))
	path := docxtest.WriteFile(t, dir, "two.docx", docxtest.Document(body), docxtest.Options{})

	tmpl, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.MainPart != "word/document.xml" {
		t.Errorf("expected main part %q, got %q", "word/document.xml", tmpl.MainPart)
	}
	if n := tmpl.Paragraphs(); n != 2 {
		t.Errorf("expected 2 paragraphs, got %d", n)
	}
}

func TestLoadAndValidate_Missing(t *testing.T) {
	_, err := LoadAndValidate(filepath.Join(t.TempDir(), "missing.docx"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadAndValidate_Directory(t *testing.T) {
	_, err := LoadAndValidate(t.TempDir())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a directory, got %v", err)
	}
}

func TestLoadAndValidate_CorruptInputs(t *testing.T) {
	dir := t.TempDir()
	noBody := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:document>`
	brokenXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p></w:body></w:document>`

	files := map[string][]byte{
		"text.docx":      []byte("definitely not a zip"),
		"empty.docx":     {},
		"nobody.docx":    docxtest.Build(noBody, docxtest.Options{}),
		"badxml.docx":    docxtest.Build(brokenXML, docxtest.Options{}),
		"truncated.docx": docxtest.Build(docxtest.Document(""), docxtest.Options{})[:40],
	}
	for name, data := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		_, err := LoadAndValidate(path)
		if !errors.Is(err, ErrCorrupt) {
			t.Errorf("%s: expected ErrCorrupt, got %v", name, err)
			continue
		}
		if err.Error() != "file contains corrupted data" {
			t.Errorf("%s: expected fixed message, got %q", name, err.Error())
		}
	}
}
