// Package doctree exposes the paragraph/run structure of a WordprocessingML
// main document part as a view over an xmltree arena.
package doctree

import (
	"errors"
	"fmt"

	"github.com/dgallion1/docfill/internal/xmltree"
)

// WordNamespace is the WordprocessingML main namespace.
const WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// ErrNoBody is returned for a main part without a w:body under w:document.
var ErrNoBody = errors.New("document has no body")

// Document is the root owner of the tree. Paragraph, Run and TextLeaf values
// are lightweight handles into it.
type Document struct {
	tree *xmltree.Tree
	w    string
	body xmltree.NodeID
}

// Parse builds a Document from main part bytes.
func Parse(data []byte) (*Document, error) {
	t, err := xmltree.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	return FromTree(t)
}

// FromTree wraps an already parsed main part.
func FromTree(t *xmltree.Tree) (*Document, error) {
	w, ok := t.NamespacePrefix(WordNamespace)
	if !ok {
		w = "w"
	}
	if !t.Is(t.Root(), w, "document") {
		return nil, fmt.Errorf("root element is <%s>: %w", t.Name(t.Root()).Local, ErrNoBody)
	}
	body := t.FirstChild(t.Root(), w, "body")
	if body == xmltree.None {
		return nil, ErrNoBody
	}
	return &Document{tree: t, w: w, body: body}, nil
}

// Tree returns the underlying arena.
func (d *Document) Tree() *xmltree.Tree { return d.tree }

// Prefix is the namespace prefix bound to WordNamespace.
func (d *Document) Prefix() string { return d.w }

// Bytes serializes the whole main part.
func (d *Document) Bytes() ([]byte, error) { return d.tree.Bytes() }

// Paragraphs returns every paragraph under the body in document order,
// including paragraphs nested in tables and content controls.
func (d *Document) Paragraphs() []Paragraph {
	ids := d.tree.Descendants(d.body, d.w, "p")
	out := make([]Paragraph, len(ids))
	for i, id := range ids {
		out[i] = Paragraph{d: d, id: id}
	}
	return out
}

// BodyParagraphs returns only the paragraphs that are direct children of the
// body.
func (d *Document) BodyParagraphs() []Paragraph {
	ids := d.tree.ChildElements(d.body, d.w, "p")
	out := make([]Paragraph, len(ids))
	for i, id := range ids {
		out[i] = Paragraph{d: d, id: id}
	}
	return out
}

// TextLeaves returns every w:t under the body in document order.
func (d *Document) TextLeaves() []TextLeaf {
	ids := d.tree.Descendants(d.body, d.w, "t")
	out := make([]TextLeaf, len(ids))
	for i, id := range ids {
		out[i] = TextLeaf{d: d, id: id}
	}
	return out
}

// Text returns the text of all paragraphs joined by newlines.
func (d *Document) Text() string {
	var buf []byte
	for i, p := range d.Paragraphs() {
		if i > 0 {
			buf = append(buf, '\n')
		}
		buf = append(buf, p.Text()...)
	}
	return string(buf)
}

// child returns the first w:<local> child of id, creating it at position 0
// when create is set.
func (d *Document) child(id xmltree.NodeID, local string, create bool) xmltree.NodeID {
	c := d.tree.FirstChild(id, d.w, local)
	if c != xmltree.None || !create {
		return c
	}
	c = d.tree.NewElement(d.w, local)
	d.tree.InsertChild(id, 0, c)
	return c
}
