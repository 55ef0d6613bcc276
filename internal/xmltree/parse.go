package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// Parse reads a complete XML document. Start and end tags must balance and the
// document must have exactly one root element.
func Parse(r io.Reader) (*Tree, error) {
	t := &Tree{root: None}
	d := xml.NewDecoder(r)
	var stack []NodeID

	attach := func(id NodeID) {
		if len(stack) == 0 {
			t.top = append(t.top, id)
			return
		}
		parent := stack[len(stack)-1]
		t.nodes[id].parent = parent
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}

	for {
		tok, err := d.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("xml token: %w", err)
		}

		switch tk := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && t.root != None {
				return nil, fmt.Errorf("multiple root elements: <%s>", qname(tk.Name))
			}
			id := t.add(node{
				kind:   ElementNode,
				name:   tk.Name,
				attr:   append([]xml.Attr(nil), tk.Attr...),
				parent: None,
			})
			attach(id)
			if len(stack) == 0 {
				t.root = id
			}
			stack = append(stack, id)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected </%s>", qname(tk.Name))
			}
			open := stack[len(stack)-1]
			if t.nodes[open].name != tk.Name {
				return nil, fmt.Errorf("element <%s> closed by </%s>", qname(t.nodes[open].name), qname(tk.Name))
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(tk)) != 0 {
					return nil, errors.New("character data outside root element")
				}
				continue
			}
			parent := stack[len(stack)-1]
			kids := t.nodes[parent].children
			if n := len(kids); n > 0 && t.nodes[kids[n-1]].kind == TextNode {
				last := kids[n-1]
				t.nodes[last].data = append(t.nodes[last].data, tk...)
				continue
			}
			attach(t.add(node{kind: TextNode, data: bytes.Clone(tk), parent: None}))

		case xml.Comment:
			attach(t.add(node{kind: CommentNode, data: bytes.Clone(tk), parent: None}))

		case xml.ProcInst:
			attach(t.add(node{kind: ProcInstNode, target: tk.Target, data: bytes.Clone(tk.Inst), parent: None}))

		case xml.Directive:
			attach(t.add(node{kind: DirectiveNode, data: bytes.Clone(tk), parent: None}))
		}
	}

	if len(stack) != 0 {
		return nil, fmt.Errorf("unclosed element <%s>", qname(t.nodes[stack[len(stack)-1]].name))
	}
	if t.root == None {
		return nil, errors.New("no root element")
	}
	return t, nil
}

// ParseBytes is Parse over an in-memory part.
func ParseBytes(b []byte) (*Tree, error) {
	return Parse(bytes.NewReader(b))
}

func qname(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return n.Space + ":" + n.Local
}
