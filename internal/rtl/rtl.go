// Package rtl applies right-to-left layout to a document: paragraph bidi and
// alignment, run direction, and a default tab stop in the settings part.
package rtl

import (
	"fmt"

	"github.com/dgallion1/docfill/internal/doctree"
	"github.com/dgallion1/docfill/internal/xmltree"
)

// DefaultTabStop is the tab stop written to settings, in twentieths of a point.
const DefaultTabStop = "708"

// SettingsPart supplies the document settings tree, creating it when absent.
// *ooxml.Package satisfies it.
type SettingsPart interface {
	Settings() (*xmltree.Tree, error)
}

// Report describes what Enforce changed. Err is set when the stage stopped
// early; the document keeps whatever state was reached.
type Report struct {
	Paragraphs int
	Runs       int
	TabStop    bool
	Err        error
}

// Enforce marks every paragraph and run of doc right-to-left and ensures the
// settings part carries a default tab stop. It never returns an error;
// failures, including panics, are reported through Report.Err. settings may
// be nil.
func Enforce(doc *doctree.Document, settings SettingsPart) (rep Report) {
	defer func() {
		if r := recover(); r != nil {
			rep.Err = fmt.Errorf("rtl: panic: %v", r)
		}
	}()

	t := doc.Tree()
	w := doc.Prefix()
	for _, p := range doc.Paragraphs() {
		paragraph(t, w, p)
		rep.Paragraphs++
		for _, r := range p.AllRuns() {
			run(t, w, r)
			rep.Runs++
		}
	}

	if settings == nil {
		return rep
	}
	st, err := settings.Settings()
	if err != nil {
		rep.Err = fmt.Errorf("rtl: settings: %w", err)
		return rep
	}
	rep.TabStop, rep.Err = tabStop(st)
	return rep
}

func paragraph(t *xmltree.Tree, w string, p doctree.Paragraph) {
	ppr := p.Properties(true)

	ensureFlag(t, w, ppr, "bidi", pPrOrder)

	jc := t.FirstChild(ppr, w, "jc")
	if jc != xmltree.None {
		v, ok := t.Attr(jc, w, "val")
		if ok && v != string(doctree.AlignLeft) {
			return
		}
		t.Remove(jc)
	}
	jc = t.NewElement(w, "jc")
	t.SetAttr(jc, w, "val", string(doctree.AlignRight))
	t.InsertOrdered(ppr, jc, pPrOrder)
}

func run(t *xmltree.Tree, w string, r doctree.Run) {
	ensureFlag(t, w, r.Properties(true), "rtl", rPrOrder)
}

// ensureFlag makes an on/off property present and on. A flag switched off by
// w:val loses the attribute.
func ensureFlag(t *xmltree.Tree, w string, parent xmltree.NodeID, local string, order []string) {
	el := t.FirstChild(parent, w, local)
	if el == xmltree.None {
		t.InsertOrdered(parent, t.NewElement(w, local), order)
		return
	}
	if v, ok := t.Attr(el, w, "val"); ok {
		switch v {
		case "0", "false", "off":
			t.RemoveAttr(el, w, "val")
		}
	}
}

func tabStop(st *xmltree.Tree) (bool, error) {
	w, ok := st.NamespacePrefix(doctree.WordNamespace)
	if !ok {
		w = "w"
	}
	root := st.Root()
	if !st.Is(root, w, "settings") {
		return false, fmt.Errorf("rtl: settings root is <%s>", st.Name(root).Local)
	}
	if st.FirstChild(root, w, "defaultTabStop") != xmltree.None {
		return false, nil
	}
	el := st.NewElement(w, "defaultTabStop")
	st.SetAttr(el, w, "val", DefaultTabStop)
	st.InsertOrdered(root, el, settingsOrder)
	return true, nil
}
