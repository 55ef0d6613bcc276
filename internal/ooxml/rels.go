package ooxml

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/dgallion1/docfill/internal/xmltree"
)

const (
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
	defaultMainPart  = "word/document.xml"

	relsNamespace         = "http://schemas.openxmlformats.org/package/2006/relationships"
	contentTypesNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

	// WordNamespace is the WordprocessingML main namespace.
	WordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	relTypeSettings     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/settings"
	settingsContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.settings+xml"
)

// Relationship is one entry of a .rels part.
type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// RelsPartFor returns the relationships part name for a source part,
// e.g. word/document.xml -> word/_rels/document.xml.rels.
func RelsPartFor(part string) string {
	dir, base := path.Split(part)
	return dir + "_rels/" + base + ".rels"
}

// Relationships lists the relationships of a source part. A missing .rels part
// yields no relationships.
func (p *Package) Relationships(part string) ([]Relationship, error) {
	name := packageRelsPart
	if part != "" {
		name = RelsPartFor(part)
	}
	if !p.Has(name) {
		return nil, nil
	}
	t, err := p.XMLPart(name)
	if err != nil {
		return nil, err
	}
	prefix, _ := t.NamespacePrefix(relsNamespace)
	var out []Relationship
	for _, id := range t.ChildElements(t.Root(), prefix, "Relationship") {
		rel := Relationship{}
		rel.ID, _ = t.Attr(id, "", "Id")
		rel.Type, _ = t.Attr(id, "", "Type")
		rel.Target, _ = t.Attr(id, "", "Target")
		rel.TargetMode, _ = t.Attr(id, "", "TargetMode")
		out = append(out, rel)
	}
	return out, nil
}

// ResolveTarget turns a relationship target into a part name relative to the
// package root.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir("/"+source), target), "/")
}

// MainDocumentPart finds the officeDocument part through _rels/.rels, falling
// back to word/document.xml for packages without package relationships.
func (p *Package) MainDocumentPart() (string, error) {
	rels, err := p.Relationships("")
	if err != nil {
		return "", err
	}
	for _, rel := range rels {
		if strings.HasSuffix(rel.Type, "/officeDocument") && rel.TargetMode != "External" {
			name := ResolveTarget("", rel.Target)
			if !p.Has(name) {
				return "", fmt.Errorf("main document %s: %w", name, ErrPartNotFound)
			}
			return name, nil
		}
	}
	if p.Has(defaultMainPart) {
		return defaultMainPart, nil
	}
	return "", fmt.Errorf("main document: %w", ErrPartNotFound)
}

// Settings returns the document settings tree of the main part, creating the
// part together with its relationship and content-type override when absent.
// A settings part that exists without a relationship is linked, not replaced.
// The returned tree is persisted on Save.
func (p *Package) Settings() (*xmltree.Tree, error) {
	main, err := p.MainDocumentPart()
	if err != nil {
		return nil, err
	}
	rels, err := p.Relationships(main)
	if err != nil {
		return nil, err
	}
	for _, rel := range rels {
		if strings.HasSuffix(rel.Type, "/settings") && rel.TargetMode != "External" {
			name := ResolveTarget(main, rel.Target)
			if p.Has(name) {
				t, err := p.XMLPart(name)
				if err != nil {
					return nil, err
				}
				p.PutXMLPart(name, t)
				return t, nil
			}
		}
	}
	return p.createSettings(main)
}

func (p *Package) createSettings(main string) (*xmltree.Tree, error) {
	name := path.Join(path.Dir(main), "settings.xml")

	relsName := RelsPartFor(main)
	var rels *xmltree.Tree
	if p.Has(relsName) {
		t, err := p.XMLPart(relsName)
		if err != nil {
			return nil, err
		}
		rels = t
	} else {
		t, err := xmltree.ParseBytes([]byte(xmlHeader + `<Relationships xmlns="` + relsNamespace + `"/>`))
		if err != nil {
			return nil, err
		}
		rels = t
	}
	relPrefix, _ := rels.NamespacePrefix(relsNamespace)
	rel := rels.NewElement(relPrefix, "Relationship")
	rels.SetAttr(rel, "", "Id", nextRelID(rels, relPrefix))
	rels.SetAttr(rel, "", "Type", relTypeSettings)
	rels.SetAttr(rel, "", "Target", path.Base(name))
	rels.AppendChild(rels.Root(), rel)

	ct, err := p.XMLPart(contentTypesPart)
	if err != nil {
		return nil, err
	}
	ctPrefix, _ := ct.NamespacePrefix(contentTypesNamespace)
	partName := "/" + name
	found := false
	for _, o := range ct.ChildElements(ct.Root(), ctPrefix, "Override") {
		if v, _ := ct.Attr(o, "", "PartName"); strings.EqualFold(v, partName) {
			ct.SetAttr(o, "", "ContentType", settingsContentType)
			found = true
		}
	}
	if !found {
		o := ct.NewElement(ctPrefix, "Override")
		ct.SetAttr(o, "", "PartName", partName)
		ct.SetAttr(o, "", "ContentType", settingsContentType)
		ct.AppendChild(ct.Root(), o)
	}

	var settings *xmltree.Tree
	if p.Has(name) {
		// An orphaned part keeps its content; only the links are added.
		settings, err = p.XMLPart(name)
	} else {
		settings, err = xmltree.ParseBytes([]byte(xmlHeader + `<w:settings xmlns:w="` + WordNamespace + `"/>`))
	}
	if err != nil {
		return nil, err
	}

	p.PutXMLPart(relsName, rels)
	p.PutXMLPart(contentTypesPart, ct)
	p.PutXMLPart(name, settings)
	return settings, nil
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

func nextRelID(rels *xmltree.Tree, prefix string) string {
	used := make(map[string]bool)
	for _, r := range rels.ChildElements(rels.Root(), prefix, "Relationship") {
		if id, ok := rels.Attr(r, "", "Id"); ok {
			used[id] = true
		}
	}
	for n := len(used) + 1; ; n++ {
		id := "rId" + strconv.Itoa(n)
		if !used[id] {
			return id
		}
	}
}
