package ooxml

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docfill/internal/docxtest"
)

func openBytes(t *testing.T, data []byte) *Package {
	t.Helper()
	p, err := NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewReader_RejectsNonZip(t *testing.T) {
	data := []byte("this is not a zip archive")
	if _, err := NewReader(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("expected error for non-zip input")
	}
}

func TestMainDocumentPart_FromPackageRels(t *testing.T) {
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{}))
	name, err := p.MainDocumentPart()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "word/document.xml" {
		t.Errorf("expected %q, got %q", "word/document.xml", name)
	}
}

func TestResolveTarget(t *testing.T) {
	cases := []struct{ source, target, want string }{
		{"", "word/document.xml", "word/document.xml"},
		{"", "/word/document.xml", "word/document.xml"},
		{"word/document.xml", "settings.xml", "word/settings.xml"},
		{"word/document.xml", "../customXml/item1.xml", "customXml/item1.xml"},
	}
	for _, c := range cases {
		if got := ResolveTarget(c.source, c.target); got != c.want {
			t.Errorf("ResolveTarget(%q, %q): expected %q, got %q", c.source, c.target, c.want, got)
		}
	}
}

func TestReadPart_Missing(t *testing.T) {
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{}))
	if _, err := p.ReadPart("word/nope.xml"); !errors.Is(err, ErrPartNotFound) {
		t.Errorf("expected ErrPartNotFound, got %v", err)
	}
}

func TestSettings_CreatesPartRelationshipAndOverride(t *testing.T) {
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{}))
	tree, err := p.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tree.Is(tree.Root(), "w", "settings") {
		t.Fatalf("expected w:settings root")
	}

	dir := t.TempDir()
	out := filepath.Join(dir, "out.docx")
	if err := p.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}

	rels := docxtest.ReadPart(t, out, "word/_rels/document.xml.rels")
	if !strings.Contains(rels, `Type="`+relTypeSettings+`"`) || !strings.Contains(rels, `Target="settings.xml"`) {
		t.Errorf("expected settings relationship, got %s", rels)
	}
	ct := docxtest.ReadPart(t, out, "[Content_Types].xml")
	if !strings.Contains(ct, `PartName="/word/settings.xml"`) {
		t.Errorf("expected settings override, got %s", ct)
	}
	if s := docxtest.ReadPart(t, out, "word/settings.xml"); !strings.Contains(s, "<w:settings") {
		t.Errorf("expected settings part, got %s", s)
	}
}

func TestSettings_ReusesExistingPart(t *testing.T) {
	settings := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:settings xmlns:w="` + WordNamespace + `"><w:zoom w:percent="100"/></w:settings>`
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{Settings: settings}))
	tree, err := p.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.FirstChild(tree.Root(), "w", "zoom") == -1 {
		t.Error("expected the existing settings tree to be returned")
	}
	rels, err := p.Relationships("word/document.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rels) != 1 {
		t.Errorf("expected no new relationship, got %d", len(rels))
	}
}

func TestSettings_LinksOrphanedPart(t *testing.T) {
	settings := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:settings xmlns:w="` + WordNamespace + `"><w:zoom w:percent="120"/></w:settings>`
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{
		Extra: map[string]string{"word/settings.xml": settings},
	}))
	tree, err := p.Settings()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.FirstChild(tree.Root(), "w", "zoom") == -1 {
		t.Error("expected the orphaned settings content to be kept")
	}

	out := filepath.Join(t.TempDir(), "out.docx")
	if err := p.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}
	if s := docxtest.ReadPart(t, out, "word/settings.xml"); !strings.Contains(s, `<w:zoom w:percent="120"/>`) {
		t.Errorf("settings content lost: %s", s)
	}
	if rels := docxtest.ReadPart(t, out, "word/_rels/document.xml.rels"); !strings.Contains(rels, `Target="settings.xml"`) {
		t.Errorf("expected settings relationship, got %s", rels)
	}
}

func TestSave_CopiesUntouchedPartsVerbatim(t *testing.T) {
	extra := map[string]string{"word/styles.xml": "<w:styles xmlns:w=\"" + WordNamespace + "\">  </w:styles>"}
	p := openBytes(t, docxtest.Build(docxtest.Document(""), docxtest.Options{Extra: extra}))
	out := filepath.Join(t.TempDir(), "copy.docx")
	if err := p.Save(out); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := docxtest.ReadPart(t, out, "word/styles.xml"); got != extra["word/styles.xml"] {
		t.Errorf("expected untouched part to be byte-identical, got %q", got)
	}
	reopened, err := Open(out)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if parts := reopened.Parts(); len(parts) != 5 || parts[0] != "[Content_Types].xml" {
		t.Errorf("expected part order preserved, got %v", parts)
	}
}
