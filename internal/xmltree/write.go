package xmltree

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\r", "&#xD;")
	attrEscaper = strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;",
		"\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;",
	)
)

// WriteTo serializes the attached document. Elements without children are
// written self-closing.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: bufio.NewWriter(w)}
	for _, id := range t.top {
		t.writeNode(cw, id)
		if t.nodes[id].kind == ProcInstNode && t.nodes[id].target == "xml" {
			cw.WriteString("\r\n")
		}
	}
	if cw.err == nil {
		cw.err = cw.w.Flush()
	}
	return cw.n, cw.err
}

// Bytes serializes the document into memory.
func (t *Tree) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := t.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (t *Tree) writeNode(w *countingWriter, id NodeID) {
	n := &t.nodes[id]
	switch n.kind {
	case TextNode:
		textEscaper.WriteString(w, string(n.data))
	case CommentNode:
		w.WriteString("<!--")
		w.Write(n.data)
		w.WriteString("-->")
	case ProcInstNode:
		w.WriteString("<?")
		w.WriteString(n.target)
		if len(n.data) > 0 {
			if !isSpace(n.data[0]) {
				w.WriteString(" ")
			}
			w.Write(n.data)
		}
		w.WriteString("?>")
	case DirectiveNode:
		w.WriteString("<!")
		w.Write(n.data)
		w.WriteString(">")
	case ElementNode:
		name := qname(n.name)
		w.WriteString("<")
		w.WriteString(name)
		for _, a := range n.attr {
			w.WriteString(" ")
			w.WriteString(qname(a.Name))
			w.WriteString(`="`)
			attrEscaper.WriteString(w, a.Value)
			w.WriteString(`"`)
		}
		if len(n.children) == 0 {
			w.WriteString("/>")
			return
		}
		w.WriteString(">")
		for _, c := range n.children {
			t.writeNode(w, c)
		}
		w.WriteString("</")
		w.WriteString(name)
		w.WriteString(">")
	}
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// countingWriter keeps the first error and the byte count so writeNode can
// stay free of error plumbing.
type countingWriter struct {
	w   *bufio.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

func (c *countingWriter) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}
