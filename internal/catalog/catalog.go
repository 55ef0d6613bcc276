// Package catalog defines the document types that can be generated, the
// fields each one collects, and where their templates and outputs live.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Field is one input of a document type. Key is the placeholder name used in
// the template; Label is shown to the user.
type Field struct {
	Key   string `yaml:"key" json:"key"`
	Label string `yaml:"label" json:"label"`
}

// DocType is a generatable document.
type DocType struct {
	Label    string  `yaml:"label" json:"label"`
	Template string  `yaml:"template,omitempty" json:"template"`
	Fields   []Field `yaml:"fields" json:"fields"`
}

// TemplateFile is the template filename: the explicit Template, or the label
// with a .docx extension.
func (t DocType) TemplateFile() string {
	if t.Template != "" {
		return t.Template
	}
	return t.Label + ".docx"
}

// OutputFile names a generated document as <label>_<yyyyMMddHHmmss>.docx.
// Two generations of the same type within one second share a name.
func (t DocType) OutputFile(now time.Time) string {
	return t.Label + "_" + now.Format("20060102150405") + ".docx"
}

// Keys returns the field keys in display order.
func (t DocType) Keys() []string {
	keys := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		keys[i] = f.Key
	}
	return keys
}

// Collection is the placeholder map built from user input.
type Collection struct {
	Fields  map[string]string
	Unknown []string // input keys that are not fields of the type
	Blank   bool     // every value is empty or whitespace
}

// Collect builds the placeholder map for t. Every field gets an entry; a
// missing value becomes the empty string so its token is removed. With nfc
// set, values are normalized to Unicode NFC.
func (t DocType) Collect(values map[string]string, nfc bool) Collection {
	c := Collection{Fields: make(map[string]string, len(t.Fields)), Blank: true}
	known := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		known[f.Key] = true
		v := values[f.Key]
		if nfc {
			v = norm.NFC.String(v)
		}
		c.Fields[f.Key] = v
		if strings.TrimSpace(v) != "" {
			c.Blank = false
		}
	}
	for k := range values {
		if !known[k] {
			c.Unknown = append(c.Unknown, k)
		}
	}
	return c
}

// Catalog is an ordered, immutable set of document types.
type Catalog struct {
	types   []DocType
	byLabel map[string]int
}

// New validates types and builds a Catalog.
func New(types []DocType) (*Catalog, error) {
	if len(types) == 0 {
		return nil, errors.New("catalog: no document types")
	}
	c := &Catalog{byLabel: make(map[string]int, len(types))}
	for i, t := range types {
		t.Label = strings.TrimSpace(t.Label)
		if t.Label == "" {
			return nil, fmt.Errorf("catalog: type %d has no label", i)
		}
		if _, dup := c.byLabel[t.Label]; dup {
			return nil, fmt.Errorf("catalog: duplicate type %q", t.Label)
		}
		if strings.ContainsAny(t.TemplateFile(), `/\`) {
			return nil, fmt.Errorf("catalog: type %q: template must be a file name", t.Label)
		}
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if strings.TrimSpace(f.Key) == "" {
				return nil, fmt.Errorf("catalog: type %q has a field without key", t.Label)
			}
			if seen[f.Key] {
				return nil, fmt.Errorf("catalog: type %q: duplicate field %q", t.Label, f.Key)
			}
			seen[f.Key] = true
		}
		t.Fields = append([]Field(nil), t.Fields...)
		c.byLabel[t.Label] = len(c.types)
		c.types = append(c.types, t)
	}
	return c, nil
}

type file struct {
	Types []DocType `yaml:"types"`
}

// Load reads a catalog from a YAML file of the form
//
//	types:
//	  - label: شهادة السكنى
//	    fields:
//	      - {key: fullName, label: الاسم الكامل}
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(f.Types)
}

// LoadOrBuiltin loads path, or returns Builtin when path is empty.
func LoadOrBuiltin(path string) (*Catalog, error) {
	if path == "" {
		return Builtin(), nil
	}
	return Load(path)
}

// Types returns the document types in catalog order.
func (c *Catalog) Types() []DocType {
	out := make([]DocType, len(c.types))
	copy(out, c.types)
	return out
}

// Lookup finds a type by label.
func (c *Catalog) Lookup(label string) (DocType, bool) {
	i, ok := c.byLabel[strings.TrimSpace(label)]
	if !ok {
		return DocType{}, false
	}
	return c.types[i], true
}
