// Package xmltree holds an XML document as an arena of indexed nodes.
//
// Names keep the prefix exactly as written in the source (xml.Name.Space is
// the prefix, not the namespace URI), so a part can be mutated and written back
// without the namespace rewriting encoding/xml performs on round trips.
package xmltree

import (
	"encoding/xml"
	"slices"
)

// NodeID indexes a node in its Tree. IDs stay valid for the life of the tree,
// including after the node is detached.
type NodeID int32

// None is the zero reference.
const None NodeID = -1

// Kind identifies what a node holds.
type Kind uint8

const (
	ElementNode Kind = iota
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

type node struct {
	kind     Kind
	name     xml.Name
	attr     []xml.Attr
	data     []byte
	target   string
	parent   NodeID
	children []NodeID
}

// Tree is an owned XML document. Callers hold only NodeIDs into it.
type Tree struct {
	nodes []node
	top   []NodeID
	root  NodeID
}

// Root returns the document element.
func (t *Tree) Root() NodeID {
	return t.root
}

// Len reports how many nodes the arena holds, attached or not.
func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) add(n node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

func (t *Tree) valid(id NodeID) bool {
	return id >= 0 && int(id) < len(t.nodes)
}

// Kind returns the node's kind.
func (t *Tree) Kind(id NodeID) Kind {
	return t.nodes[id].kind
}

// Name returns the element name with its source prefix in Space.
func (t *Tree) Name(id NodeID) xml.Name {
	return t.nodes[id].name
}

// Is reports whether id is an element named prefix:local.
func (t *Tree) Is(id NodeID, prefix, local string) bool {
	if !t.valid(id) {
		return false
	}
	n := &t.nodes[id]
	return n.kind == ElementNode && n.name.Local == local && n.name.Space == prefix
}

// Parent returns the parent element, or None for top-level and detached nodes.
func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Children returns a copy of the child list.
func (t *Tree) Children(id NodeID) []NodeID {
	return slices.Clone(t.nodes[id].children)
}

// ChildElements returns the direct children named prefix:local.
func (t *Tree) ChildElements(id NodeID, prefix, local string) []NodeID {
	var out []NodeID
	for _, c := range t.nodes[id].children {
		if t.Is(c, prefix, local) {
			out = append(out, c)
		}
	}
	return out
}

// FirstChild returns the first direct child named prefix:local, or None.
func (t *Tree) FirstChild(id NodeID, prefix, local string) NodeID {
	for _, c := range t.nodes[id].children {
		if t.Is(c, prefix, local) {
			return c
		}
	}
	return None
}

// Descendants returns every element below id named prefix:local in document order.
func (t *Tree) Descendants(id NodeID, prefix, local string) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		for _, c := range t.nodes[n].children {
			if t.Is(c, prefix, local) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(id)
	return out
}

// Attr looks up an attribute by prefix and local name.
func (t *Tree) Attr(id NodeID, prefix, local string) (string, bool) {
	for _, a := range t.nodes[id].attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns a copy of the attribute list in source order.
func (t *Tree) Attrs(id NodeID) []xml.Attr {
	return slices.Clone(t.nodes[id].attr)
}

// SetAttr replaces an attribute value in place or appends the attribute.
func (t *Tree) SetAttr(id NodeID, prefix, local, value string) {
	n := &t.nodes[id]
	for i := range n.attr {
		if n.attr[i].Name.Space == prefix && n.attr[i].Name.Local == local {
			n.attr[i].Value = value
			return
		}
	}
	n.attr = append(n.attr, xml.Attr{Name: xml.Name{Space: prefix, Local: local}, Value: value})
}

// RemoveAttr drops an attribute if present.
func (t *Tree) RemoveAttr(id NodeID, prefix, local string) {
	n := &t.nodes[id]
	n.attr = slices.DeleteFunc(n.attr, func(a xml.Attr) bool {
		return a.Name.Space == prefix && a.Name.Local == local
	})
}

// Text returns the concatenated character data of id's direct text children.
func (t *Tree) Text(id NodeID) string {
	var buf []byte
	for _, c := range t.nodes[id].children {
		if t.nodes[c].kind == TextNode {
			buf = append(buf, t.nodes[c].data...)
		}
	}
	return string(buf)
}

// SetText replaces all children of id with a single text node.
// An empty string leaves the element empty.
func (t *Tree) SetText(id NodeID, s string) {
	for _, c := range t.nodes[id].children {
		t.nodes[c].parent = None
	}
	t.nodes[id].children = nil
	if s == "" {
		return
	}
	tn := t.add(node{kind: TextNode, data: []byte(s), parent: id})
	t.nodes[id].children = []NodeID{tn}
}

// NewElement allocates a detached element.
func (t *Tree) NewElement(prefix, local string) NodeID {
	return t.add(node{kind: ElementNode, name: xml.Name{Space: prefix, Local: local}, parent: None})
}

// AppendChild attaches child as the last child of parent.
func (t *Tree) AppendChild(parent, child NodeID) {
	t.InsertChild(parent, len(t.nodes[parent].children), child)
}

// InsertChild attaches child at position index among parent's children.
func (t *Tree) InsertChild(parent NodeID, index int, child NodeID) {
	t.Remove(child)
	p := &t.nodes[parent]
	index = max(0, min(index, len(p.children)))
	p.children = slices.Insert(p.children, index, child)
	t.nodes[child].parent = parent
}

// InsertOrdered attaches child among parent's element children according to a
// schema sequence of local names: child goes before the first existing sibling
// whose name appears later in order. Siblings not listed are skipped over.
func (t *Tree) InsertOrdered(parent, child NodeID, order []string) {
	rank := slices.Index(order, t.nodes[child].name.Local)
	if rank < 0 {
		t.AppendChild(parent, child)
		return
	}
	for i, c := range t.nodes[parent].children {
		if t.nodes[c].kind != ElementNode {
			continue
		}
		if r := slices.Index(order, t.nodes[c].name.Local); r > rank {
			t.InsertChild(parent, i, child)
			return
		}
	}
	t.AppendChild(parent, child)
}

// Remove detaches id from its parent. The node stays in the arena.
func (t *Tree) Remove(id NodeID) {
	p := t.nodes[id].parent
	if p == None {
		return
	}
	siblings := t.nodes[p].children
	if i := slices.Index(siblings, id); i >= 0 {
		t.nodes[p].children = slices.Delete(siblings, i, i+1)
	}
	t.nodes[id].parent = None
}

// NamespacePrefix returns the prefix the root element binds to uri.
func (t *Tree) NamespacePrefix(uri string) (string, bool) {
	if t.root == None {
		return "", false
	}
	for _, a := range t.nodes[t.root].attr {
		if a.Value != uri {
			continue
		}
		if a.Name.Space == "xmlns" {
			return a.Name.Local, true
		}
		if a.Name.Space == "" && a.Name.Local == "xmlns" {
			return "", true
		}
	}
	return "", false
}
