package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/docxtest"
	"github.com/dgallion1/docfill/internal/ooxml"
	"github.com/dgallion1/docfill/internal/placeholder"
)

func writeTemplate(t *testing.T, dir string, body string, opts docxtest.Options) string {
	t.Helper()
	return docxtest.WriteFile(t, dir, "template.docx", docxtest.Document(body), opts)
}

func readDoc(t *testing.T, path string) *doctree.Document {
	t.Helper()
	doc, err := doctree.Parse([]byte(docxtest.ReadPart(t, path, "word/document.xml")))
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	return doc
}

func TestGenerate_ConcreteScenario(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("",
		docxtest.Run("", "Hello "),
		docxtest.Run("", "{fu"),
		docxtest.Run("", "llName}, id: {id}"),
	), docxtest.Options{})
	out := filepath.Join(dir, "out", "nested", "result.docx")

	res, err := NewGenerator(nil).Generate(tmpl, out, map[string]string{"fullName": "Amina", "id": "77"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OutputPath != out {
		t.Errorf("expected output %q, got %q", out, res.OutputPath)
	}
	if res.ReplacedPass1 != 1 || res.ReplacedPass2 != 1 || res.RunsMerged != 2 {
		t.Errorf("unexpected stats %+v", res)
	}

	doc := readDoc(t, out)
	if got := doc.Text(); got != "Hello Amina, id: 77" {
		t.Errorf("expected %q, got %q", "Hello Amina, id: 77", got)
	}
	if runs := doc.Paragraphs()[0].Runs(); len(runs) != 1 {
		t.Errorf("expected one run, got %d", len(runs))
	}
}

func TestGenerate_SingleRunSubstitution(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir,
		docxtest.Paragraph("", docxtest.Run("<w:b/>", "Name: "), docxtest.Run("", "[{fullName}]"), docxtest.Run("<w:i/>", " end")),
		docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	if _, err := Generate(tmpl, out, map[string]string{"fullName": "Amina"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs := readDoc(t, out).Paragraphs()[0].Runs()
	var texts []string
	for _, r := range runs {
		texts = append(texts, r.Text())
	}
	if strings.Join(texts, "|") != "Name: |[Amina]| end" {
		t.Errorf("unexpected runs %q", texts)
	}
}

func TestGenerate_UnknownTokenPreserved(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "keep {unknownKey} here")), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	if _, err := Generate(tmpl, out, map[string]string{"other": "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	part := docxtest.ReadPart(t, out, "word/document.xml")
	if !strings.Contains(part, ">keep {unknownKey} here<") {
		t.Errorf("expected token verbatim in output:\n%s", part)
	}
}

func TestGenerate_SplitAcrossDifferentFormattingUnresolved(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("",
		docxtest.Run("<w:b/>", "{full"),
		docxtest.Run("", "Name}"),
	), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	res, err := NewGenerator(nil).Generate(tmpl, out, map[string]string{"fullName": "Amina"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReplacedPass1 != 0 || res.ReplacedPass2 != 0 || res.RunsMerged != 0 {
		t.Errorf("unexpected stats %+v", res)
	}
	if got := readDoc(t, out).Text(); got != "{fullName}" {
		t.Errorf("expected token left split, got %q", got)
	}
}

func TestGenerate_SplitAroundBookmarkResolved(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("",
		docxtest.Run("", "{full"),
		`<w:bookmarkStart w:id="0" w:name="_GoBack"/><w:bookmarkEnd w:id="0"/>`,
		docxtest.Run("", "Name}"),
	), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	res, err := NewGenerator(nil).Generate(tmpl, out, map[string]string{"fullName": "Amina"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ReplacedPass1 != 0 || res.ReplacedPass2 != 1 || res.RunsMerged != 1 {
		t.Errorf("unexpected stats %+v", res)
	}
	if got := readDoc(t, out).Text(); got != "Amina" {
		t.Errorf("expected %q, got %q", "Amina", got)
	}
	if part := docxtest.ReadPart(t, out, "word/document.xml"); !strings.Contains(part, `w:name="_GoBack"`) {
		t.Errorf("expected bookmark kept:\n%s", part)
	}
}

func TestGenerate_NoOpRoundTrip(t *testing.T) {
	dir := t.TempDir()
	body := docxtest.Paragraph("", docxtest.Run("<w:b/>", "نص ثابت"), docxtest.Run("", " بدون حقول")) +
		docxtest.Paragraph(`<w:jc w:val="center"/>`, docxtest.Run("", "عنوان"))
	tmpl := writeTemplate(t, dir, body, docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	if _, err := Generate(tmpl, out, map[string]string{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, err := doctree.Parse([]byte(docxtest.Document(body)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got, want := readDoc(t, out).Text(), before.Text(); got != want {
		t.Errorf("text changed: want %q, got %q", want, got)
	}
}

func TestGenerate_DirectionalityCoverage(t *testing.T) {
	dir := t.TempDir()
	body := docxtest.Paragraph("", docxtest.Run("", "a")) +
		docxtest.Paragraph(`<w:jc w:val="left"/>`, docxtest.Run("", "b")) +
		docxtest.Paragraph(`<w:jc w:val="center"/>`, docxtest.Run("", "c")) +
		docxtest.Paragraph(`<w:jc w:val="both"/>`, docxtest.Run("", "d"))
	tmpl := writeTemplate(t, dir, body, docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	res, err := NewGenerator(nil).Generate(tmpl, out, map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ParagraphsEnforced != 4 || !res.TabStopAdded || res.Diagnostic != "" {
		t.Errorf("unexpected stats %+v", res)
	}

	want := []doctree.Alignment{doctree.AlignRight, doctree.AlignRight, doctree.AlignCenter, doctree.AlignJustify}
	for i, p := range readDoc(t, out).Paragraphs() {
		if !p.BiDi() {
			t.Errorf("paragraph %d: expected bidi", i)
		}
		if a, _ := p.Alignment(); a != want[i] {
			t.Errorf("paragraph %d: expected %q, got %q", i, want[i], a)
		}
	}

	settings := docxtest.ReadPart(t, out, "word/settings.xml")
	if !strings.Contains(settings, `<w:defaultTabStop w:val="708"/>`) {
		t.Errorf("expected default tab stop in settings:\n%s", settings)
	}
	if rels := docxtest.ReadPart(t, out, "word/_rels/document.xml.rels"); !strings.Contains(rels, `Target="settings.xml"`) {
		t.Errorf("expected settings relationship:\n%s", rels)
	}
}

func TestGenerate_ExistingSettingsKept(t *testing.T) {
	dir := t.TempDir()
	settings := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:settings xmlns:w="` + doctree.WordNamespace + `"><w:zoom w:percent="120"/><w:defaultTabStop w:val="720"/></w:settings>`
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "x")), docxtest.Options{Settings: settings})
	out := filepath.Join(dir, "out.docx")

	res, err := NewGenerator(nil).Generate(tmpl, out, map[string]string{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TabStopAdded {
		t.Error("expected existing tab stop to be kept")
	}
	got := docxtest.ReadPart(t, out, "word/settings.xml")
	if !strings.Contains(got, `<w:defaultTabStop w:val="720"/>`) || !strings.Contains(got, `<w:zoom w:percent="120"/>`) {
		t.Errorf("settings altered:\n%s", got)
	}
}

func TestGenerate_OverwritesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "{x}")), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")
	if err := os.WriteFile(out, []byte("stale"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Generate(tmpl, out, map[string]string{"x": "fresh"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readDoc(t, out).Text(); got != "fresh" {
		t.Errorf("expected %q, got %q", "fresh", got)
	}
}

func TestGenerate_DoubleBraceSyntax(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "{{name}} / {name}")), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	g := NewGenerator(nil)
	g.Syntax = placeholder.DoubleBrace
	if _, err := g.Generate(tmpl, out, map[string]string{"name": "Amina"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := readDoc(t, out).Text(); got != "Amina / {name}" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestGenerate_InvalidArguments(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "x")), docxtest.Options{})
	cases := []struct {
		name     string
		tmpl     string
		out      string
		fields   map[string]string
		wantKind Kind
	}{
		{"blank template", "  ", "out.docx", map[string]string{}, KindInvalidArgument},
		{"blank output", tmpl, "", map[string]string{}, KindInvalidArgument},
		{"nil map", tmpl, filepath.Join(dir, "o.docx"), nil, KindInvalidArgument},
		{"same path", tmpl, tmpl, map[string]string{}, KindInvalidArgument},
	}
	for _, c := range cases {
		_, err := Generate(c.tmpl, c.out, c.fields)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected invalid argument, got %v", c.name, err)
		}
		if KindOf(err) != c.wantKind {
			t.Errorf("%s: expected kind %v, got %v", c.name, c.wantKind, KindOf(err))
		}
	}
}

func TestGenerate_MissingTemplate(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out", "result.docx")

	_, err := Generate(filepath.Join(dir, "missing.docx"), out, map[string]string{})
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected template not found, got %v", err)
	}
	var perr *Error
	if !errors.As(err, &perr) || !filepath.IsAbs(perr.Path) {
		t.Errorf("expected absolute path in error, got %+v", perr)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Dir(out)); !os.IsNotExist(err) {
		t.Errorf("expected no output directory, stat err = %v", err)
	}
}

func TestGenerate_CorruptTemplate(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(tmpl, []byte("this is not a zip package"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := filepath.Join(dir, "out.docx")

	_, err := Generate(tmpl, out, map[string]string{"a": "b"})
	if !errors.Is(err, ErrTemplateCorrupt) {
		t.Fatalf("expected template corrupt, got %v", err)
	}
	if err.Error() != "file contains corrupted data" {
		t.Errorf("expected fixed message, got %q", err.Error())
	}
	if errors.Is(err, ErrGenerationFailed) {
		t.Error("corrupt template must not match generation failed")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("expected no output file, stat err = %v", err)
	}
}

func TestGenerate_FailureAfterCopyLeavesPartialOutput(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "{x}")), docxtest.Options{})
	out := filepath.Join(dir, "out.docx")

	g := NewGenerator(nil)
	g.save = func(*ooxml.Package, string) error { return errors.New("disk full") }

	_, err := g.Generate(tmpl, out, map[string]string{"x": "y"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected generation failed, got %v", err)
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
	// No rollback: the untransformed copy stays at the output path.
	if got := readDoc(t, out).Text(); got != "{x}" {
		t.Errorf("expected partial copy with original text, got %q", got)
	}
}

func TestGenerate_PanicBecomesGenerationFailed(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "x")), docxtest.Options{})

	g := NewGenerator(nil)
	g.save = func(*ooxml.Package, string) error { panic("writer exploded") }

	_, err := g.Generate(tmpl, filepath.Join(dir, "out.docx"), map[string]string{})
	if !errors.Is(err, ErrGenerationFailed) || !strings.Contains(err.Error(), "writer exploded") {
		t.Errorf("expected recovered generation failure, got %v", err)
	}
}

func TestGenerate_OutputDirectoryIsAFile(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "x")), docxtest.Options{})
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := Generate(tmpl, filepath.Join(blocker, "out.docx"), map[string]string{})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("expected generation failed, got %v", err)
	}
}

func TestGenerate_TemplateUnchanged(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeTemplate(t, dir, docxtest.Paragraph("", docxtest.Run("", "{x}")), docxtest.Options{})
	before, err := os.ReadFile(tmpl)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := Generate(tmpl, filepath.Join(dir, "out.docx"), map[string]string{"x": "y"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after, err := os.ReadFile(tmpl)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(before) != string(after) {
		t.Error("template was modified")
	}
}
