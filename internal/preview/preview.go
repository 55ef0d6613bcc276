// Package preview renders a read-only HTML view of a document's body text.
package preview

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/loader"
	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// RenderFile loads the document at path and renders it.
func RenderFile(w io.Writer, path, title string) error {
	t, err := loader.Load(path)
	if err != nil {
		return err
	}
	return Render(w, t, title)
}

// Render writes an HTML page with one block per top-level body paragraph.
// Heading styles become h1-h6; paragraph alignment is carried over when
// both parsers agree on the paragraph count.
func Render(w io.Writer, t *loader.Template, title string) error {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})

	root := element(atom.Html, attr("lang", "ar"), attr("dir", "rtl"))
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	titleEl := element(atom.Title)
	titleEl.AppendChild(&html.Node{Type: html.TextNode, Data: title})
	head.AppendChild(titleEl)
	root.AppendChild(head)

	body := element(atom.Body)
	root.AppendChild(body)

	var paras []*docx.Paragraph
	for _, item := range t.Probe.Document.Body.Items {
		if p, ok := item.(*docx.Paragraph); ok {
			paras = append(paras, p)
		}
	}
	aligned := t.Doc.BodyParagraphs()
	if len(aligned) != len(paras) {
		aligned = nil
	}

	for i, p := range paras {
		text := paragraphText(p)
		if text == "" {
			continue
		}
		el := element(atom.P)
		if level := headingLevel(p); level > 0 {
			el = element(headings[level-1])
		}
		if aligned != nil {
			if a, ok := aligned[i].Alignment(); ok {
				el.Attr = append(el.Attr, attr("style", "text-align: "+cssAlign(a)))
			}
		}
		el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		body.AppendChild(el)
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render preview: %w", err)
	}
	return nil
}

var headings = [...]atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func cssAlign(a doctree.Alignment) string {
	switch a {
	case doctree.AlignJustify:
		return "justify"
	case doctree.AlignCenter, doctree.AlignLeft, doctree.AlignRight:
		return string(a)
	}
	return "right"
}

func headingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if len(style) == len("heading1") && strings.HasPrefix(style, "heading") {
		if n := int(style[7] - '0'); n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
