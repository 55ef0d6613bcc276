package doctree

import (
	"strings"

	"github.com/dgallion1/docfill/internal/xmltree"
)

// Alignment is the w:jc value of a paragraph.
type Alignment string

const (
	AlignLeft    Alignment = "left"
	AlignRight   Alignment = "right"
	AlignCenter  Alignment = "center"
	AlignJustify Alignment = "both"
)

// Paragraph is a handle to a w:p element.
type Paragraph struct {
	d  *Document
	id xmltree.NodeID
}

// ID returns the arena index of the paragraph.
func (p Paragraph) ID() xmltree.NodeID { return p.id }

// Runs returns the direct w:r children in order.
func (p Paragraph) Runs() []Run {
	ids := p.d.tree.ChildElements(p.id, p.d.w, "r")
	out := make([]Run, len(ids))
	for i, id := range ids {
		out[i] = Run{d: p.d, id: id}
	}
	return out
}

// AllRuns returns every w:r below the paragraph, including runs inside
// hyperlinks, smart tags and field wrappers.
func (p Paragraph) AllRuns() []Run {
	ids := p.d.tree.Descendants(p.id, p.d.w, "r")
	out := make([]Run, len(ids))
	for i, id := range ids {
		out[i] = Run{d: p.d, id: id}
	}
	return out
}

// Properties returns the w:pPr element, or None. With create set a missing
// w:pPr is inserted as the first child.
func (p Paragraph) Properties(create bool) xmltree.NodeID {
	return p.d.child(p.id, "pPr", create)
}

// Alignment returns the paragraph's w:jc value if one is set.
func (p Paragraph) Alignment() (Alignment, bool) {
	ppr := p.Properties(false)
	if ppr == xmltree.None {
		return "", false
	}
	jc := p.d.tree.FirstChild(ppr, p.d.w, "jc")
	if jc == xmltree.None {
		return "", false
	}
	v, ok := p.d.tree.Attr(jc, p.d.w, "val")
	if !ok {
		return "", false
	}
	return Alignment(v), true
}

// BiDi reports whether the paragraph carries an enabled w:bidi flag.
func (p Paragraph) BiDi() bool {
	ppr := p.Properties(false)
	if ppr == xmltree.None {
		return false
	}
	return p.d.toggle(ppr, "bidi")
}

// zeroWidth lists the markers that occupy no text and never separate runs.
var zeroWidth = []string{
	"proofErr",
	"bookmarkStart", "bookmarkEnd",
	"commentRangeStart", "commentRangeEnd",
	"permStart", "permEnd",
}

// Adjacent reports whether b follows a with nothing but zero-width markers
// (proofing, bookmark, comment range and permission marks), XML comments or
// whitespace between them. The markers stay where they are.
func (p Paragraph) Adjacent(a, b Run) bool {
	t := p.d.tree
	kids := t.Children(p.id)
	start := -1
	for i, c := range kids {
		if c == a.id {
			start = i
			break
		}
	}
	if start < 0 {
		return false
	}
	for _, c := range kids[start+1:] {
		if c == b.id {
			return true
		}
		switch t.Kind(c) {
		case xmltree.CommentNode, xmltree.TextNode:
			continue
		case xmltree.ElementNode:
			if p.d.isZeroWidth(c) {
				continue
			}
		}
		return false
	}
	return false
}

// Text returns the concatenated text of every w:t in the paragraph.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, id := range p.d.tree.Descendants(p.id, p.d.w, "t") {
		b.WriteString(p.d.tree.Text(id))
	}
	return b.String()
}

func (d *Document) isZeroWidth(id xmltree.NodeID) bool {
	for _, name := range zeroWidth {
		if d.tree.Is(id, d.w, name) {
			return true
		}
	}
	return false
}
