// Package loader opens a template package read-only and checks that it has
// the structure the generator needs.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/ooxml"
	"github.com/fumiama/go-docx"
)

var (
	// ErrNotFound means no regular file exists at the template path.
	ErrNotFound = errors.New("template not found")
	// ErrCorrupt is the single kind every malformed-package cause collapses to.
	ErrCorrupt = errors.New("file contains corrupted data")
)

// corruptError prints only the fixed corruption message; the underlying
// cause stays reachable through errors.Unwrap for diagnostics.
type corruptError struct {
	cause error
}

func (e *corruptError) Error() string   { return ErrCorrupt.Error() }
func (e *corruptError) Unwrap() []error { return []error{ErrCorrupt, e.cause} }

func corrupt(cause error) error {
	return &corruptError{cause: cause}
}

// Template is a validated, read-only view of a template package.
type Template struct {
	Path     string
	MainPart string
	Doc      *doctree.Document
	// Probe is the independent parse by go-docx. Its body items drive the
	// text preview.
	Probe *docx.Docx
}

// Load reads and validates the package at path.
func Load(path string) (*Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("stat template: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrNotFound)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}

	pkg, err := ooxml.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt(err)
	}

	// Both go-docx and our own tree must accept the package.
	probe, err := parseProbe(data)
	if err != nil {
		return nil, corrupt(err)
	}

	main, err := pkg.MainDocumentPart()
	if err != nil {
		return nil, corrupt(err)
	}
	tree, err := pkg.XMLPart(main)
	if err != nil {
		return nil, corrupt(err)
	}
	doc, err := doctree.FromTree(tree)
	if err != nil {
		return nil, corrupt(err)
	}

	return &Template{Path: path, MainPart: main, Doc: doc, Probe: probe}, nil
}

// LoadAndValidate returns the template's Document Tree, or ErrNotFound /
// ErrCorrupt. Nothing is written.
func LoadAndValidate(path string) (*doctree.Document, error) {
	t, err := Load(path)
	if err != nil {
		return nil, err
	}
	return t.Doc, nil
}

func parseProbe(data []byte) (doc *docx.Docx, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("parse docx: panic: %v", r)
		}
	}()
	doc, err = docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	return doc, nil
}

// Paragraphs counts the paragraphs go-docx found at the top level of the body.
func (t *Template) Paragraphs() int {
	n := 0
	for _, item := range t.Probe.Document.Body.Items {
		if _, ok := item.(*docx.Paragraph); ok {
			n++
		}
	}
	return n
}
