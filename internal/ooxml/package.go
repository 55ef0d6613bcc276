// Package ooxml reads and writes the zip container of a WordprocessingML
// document. Parts that are never modified are copied to the output raw.
package ooxml

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dgallion1/docfill/internal/xmltree"
)

// ErrPartNotFound is returned when a named part is absent from the package.
var ErrPartNotFound = errors.New("part not found")

// Package is an open document package. Close releases the underlying file.
type Package struct {
	closer io.Closer
	order  []string
	files  map[string]*zip.File
	trees  map[string]*xmltree.Tree
	dirty  map[string][]byte
	touch  map[string]bool
}

// Open opens the package at path. The file stays open until Close.
func Open(path string) (*Package, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat package: %w", err)
	}
	p, err := NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f
	return p, nil
}

// NewReader reads a package from r. The caller keeps ownership of r.
func NewReader(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("read zip: %w", err)
	}
	p := &Package{
		files: make(map[string]*zip.File, len(zr.File)),
		trees: make(map[string]*xmltree.Tree),
		dirty: make(map[string][]byte),
		touch: make(map[string]bool),
	}
	for _, f := range zr.File {
		if _, dup := p.files[f.Name]; dup {
			return nil, fmt.Errorf("duplicate part %s", f.Name)
		}
		p.files[f.Name] = f
		p.order = append(p.order, f.Name)
	}
	if !p.Has(contentTypesPart) {
		return nil, fmt.Errorf("missing %s", contentTypesPart)
	}
	return p, nil
}

// Close releases the file opened by Open. It is safe to call more than once.
func (p *Package) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// Has reports whether the package contains a part.
func (p *Package) Has(name string) bool {
	if _, ok := p.dirty[name]; ok {
		return true
	}
	if _, ok := p.trees[name]; ok && p.touch[name] {
		return true
	}
	_, ok := p.files[name]
	return ok
}

// Parts lists part names in package order, new parts last.
func (p *Package) Parts() []string {
	return append([]string(nil), p.order...)
}

// ReadPart returns the current bytes of a part.
func (p *Package) ReadPart(name string) ([]byte, error) {
	if t, ok := p.trees[name]; ok && p.touch[name] {
		return t.Bytes()
	}
	if b, ok := p.dirty[name]; ok {
		return b, nil
	}
	f, ok := p.files[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrPartNotFound)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open part %s: %w", name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read part %s: %w", name, err)
	}
	return b, nil
}

// WritePart replaces or adds a part.
func (p *Package) WritePart(name string, data []byte) {
	p.addName(name)
	delete(p.trees, name)
	delete(p.touch, name)
	p.dirty[name] = data
}

// XMLPart parses a part, caching the tree so later calls share it.
// Mutations are persisted only after PutXMLPart.
func (p *Package) XMLPart(name string) (*xmltree.Tree, error) {
	if t, ok := p.trees[name]; ok {
		return t, nil
	}
	b, err := p.ReadPart(name)
	if err != nil {
		return nil, err
	}
	t, err := xmltree.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("parse part %s: %w", name, err)
	}
	p.trees[name] = t
	return t, nil
}

// PutXMLPart marks a tree to be serialized into name on Save.
func (p *Package) PutXMLPart(name string, t *xmltree.Tree) {
	p.addName(name)
	delete(p.dirty, name)
	p.trees[name] = t
	p.touch[name] = true
}

func (p *Package) addName(name string) {
	if _, ok := p.files[name]; ok {
		return
	}
	if _, ok := p.dirty[name]; ok {
		return
	}
	if p.touch[name] {
		return
	}
	p.order = append(p.order, name)
}

// WriteTo writes the whole package as a zip archive.
func (p *Package) WriteTo(w io.Writer) (int64, error) {
	cw := &countWriter{w: w}
	zw := zip.NewWriter(cw)
	for _, name := range p.order {
		data, replaced := p.dirty[name]
		switch {
		case p.touch[name]:
			b, err := p.trees[name].Bytes()
			if err != nil {
				return cw.n, fmt.Errorf("serialize %s: %w", name, err)
			}
			data = b
		case replaced:
		default:
			if err := zw.Copy(p.files[name]); err != nil {
				return cw.n, fmt.Errorf("copy %s: %w", name, err)
			}
			continue
		}

		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()}
		if f, ok := p.files[name]; ok {
			hdr.Modified = f.Modified
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return cw.n, fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return cw.n, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return cw.n, fmt.Errorf("close zip: %w", err)
	}
	return cw.n, nil
}

// Save writes the package to path, replacing any file there.
func (p *Package) Save(path string) error {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write package: %w", err)
	}
	return nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
