package doctree

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docfill/internal/xmltree"
)

// Signature is the part of run formatting that decides whether two adjacent
// runs may be merged. It is a plain value; compare with ==.
type Signature struct {
	Bold        bool
	Italic      bool
	FontSize    int // half-points, meaningful only when HasFontSize
	HasFontSize bool
	RightToLeft bool
}

// Run is a handle to a w:r element.
type Run struct {
	d  *Document
	id xmltree.NodeID
}

// ID returns the arena index of the run.
func (r Run) ID() xmltree.NodeID { return r.id }

// Properties returns the w:rPr element, or None. With create set a missing
// w:rPr is inserted as the first child.
func (r Run) Properties(create bool) xmltree.NodeID {
	return r.d.child(r.id, "rPr", create)
}

// HasProperties reports whether the run carries a w:rPr at all.
func (r Run) HasProperties() bool {
	return r.Properties(false) != xmltree.None
}

// Signature reads the merge-relevant formatting. A run without w:rPr has the
// zero Signature.
func (r Run) Signature() Signature {
	rpr := r.Properties(false)
	if rpr == xmltree.None {
		return Signature{}
	}
	sig := Signature{
		Bold:        r.d.toggle(rpr, "b"),
		Italic:      r.d.toggle(rpr, "i"),
		RightToLeft: r.d.toggle(rpr, "rtl"),
	}
	if sz := r.d.tree.FirstChild(rpr, r.d.w, "sz"); sz != xmltree.None {
		if v, ok := r.d.tree.Attr(sz, r.d.w, "val"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				sig.FontSize = n
				sig.HasFontSize = true
			}
		}
	}
	return sig
}

// Leaf returns the run's single text element when the run is a plain text
// run: besides w:rPr and w:lastRenderedPageBreak it holds exactly one w:t.
// Runs with tabs, breaks, drawings or field characters report false.
func (r Run) Leaf() (TextLeaf, bool) {
	t := r.d.tree
	leaf := xmltree.None
	for _, c := range t.Children(r.id) {
		if t.Kind(c) != xmltree.ElementNode {
			continue
		}
		switch {
		case t.Is(c, r.d.w, "rPr"), t.Is(c, r.d.w, "lastRenderedPageBreak"):
		case t.Is(c, r.d.w, "t") && leaf == xmltree.None:
			leaf = c
		default:
			return TextLeaf{}, false
		}
	}
	if leaf == xmltree.None {
		return TextLeaf{}, false
	}
	return TextLeaf{d: r.d, id: leaf}, true
}

// Text returns the text of every w:t in the run.
func (r Run) Text() string {
	var b strings.Builder
	for _, id := range r.d.tree.ChildElements(r.id, r.d.w, "t") {
		b.WriteString(r.d.tree.Text(id))
	}
	return b.String()
}

// Remove detaches the run from its paragraph.
func (r Run) Remove() {
	r.d.tree.Remove(r.id)
}

// TextLeaf is a handle to a w:t element.
type TextLeaf struct {
	d  *Document
	id xmltree.NodeID
}

// ID returns the arena index of the text element.
func (l TextLeaf) ID() xmltree.NodeID { return l.id }

// Text returns the leaf's character data.
func (l TextLeaf) Text() string {
	return l.d.tree.Text(l.id)
}

// SetText replaces the leaf's character data. Leading, trailing or repeated
// whitespace is kept by marking the element xml:space="preserve".
func (l TextLeaf) SetText(s string) {
	l.d.tree.SetText(l.id, s)
	if needsPreserve(s) {
		l.d.tree.SetAttr(l.id, "xml", "space", "preserve")
	}
}

func needsPreserve(s string) bool {
	if s == "" {
		return false
	}
	return strings.TrimSpace(s) != s || strings.Contains(s, "  ") || strings.ContainsAny(s, "\t\n")
}

// toggle evaluates an on/off property such as w:b: present and not switched
// off by w:val.
func (d *Document) toggle(parent xmltree.NodeID, local string) bool {
	el := d.tree.FirstChild(parent, d.w, local)
	if el == xmltree.None {
		return false
	}
	v, ok := d.tree.Attr(el, d.w, "val")
	if !ok {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "0", "false", "off":
		return false
	}
	return true
}
