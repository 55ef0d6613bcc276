// Package placeholder replaces {key} tokens in text leaves with field values.
package placeholder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// Syntax is the token delimiter style.
type Syntax int

const (
	// SingleBrace tokens look like {key}.
	SingleBrace Syntax = iota
	// DoubleBrace tokens look like {{key}}.
	DoubleBrace
)

func (s Syntax) String() string {
	switch s {
	case SingleBrace:
		return "single"
	case DoubleBrace:
		return "double"
	}
	return fmt.Sprintf("Syntax(%d)", int(s))
}

// ParseSyntax maps a configuration value to a Syntax. Empty means single.
func ParseSyntax(s string) (Syntax, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single":
		return SingleBrace, nil
	case "double":
		return DoubleBrace, nil
	}
	return 0, fmt.Errorf("unknown token syntax %q", s)
}

// Token renders the placeholder for key.
func (s Syntax) Token(key string) string {
	if s == DoubleBrace {
		return "{{" + key + "}}"
	}
	return "{" + key + "}"
}

// Replacer substitutes every known token in a string in one left-to-right
// scan. Replacement values are never rescanned.
type Replacer struct {
	tokens []string
	values map[string]string
}

// NewReplacer builds a Replacer for fields. Blank keys are skipped.
func NewReplacer(fields map[string]string, syntax Syntax) *Replacer {
	r := &Replacer{values: make(map[string]string, len(fields))}
	for k, v := range fields {
		if strings.TrimSpace(k) == "" {
			continue
		}
		tok := syntax.Token(k)
		r.tokens = append(r.tokens, tok)
		r.values[tok] = v
	}
	// Longest first so {{a}} wins over a shorter overlapping token.
	sort.Slice(r.tokens, func(i, j int) bool {
		if len(r.tokens[i]) != len(r.tokens[j]) {
			return len(r.tokens[i]) > len(r.tokens[j])
		}
		return r.tokens[i] < r.tokens[j]
	})
	return r
}

// Replace returns s with known tokens substituted and the number of tokens
// replaced. Unknown tokens are left as-is.
func (r *Replacer) Replace(s string) (string, int) {
	if len(r.tokens) == 0 || !strings.Contains(s, "{") {
		return s, 0
	}
	var b strings.Builder
	n := 0
	i := 0
	for i < len(s) {
		j := strings.IndexByte(s[i:], '{')
		if j < 0 {
			break
		}
		b.WriteString(s[i : i+j])
		i += j
		matched := false
		for _, tok := range r.tokens {
			if strings.HasPrefix(s[i:], tok) {
				b.WriteString(r.values[tok])
				i += len(tok)
				n++
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte('{')
			i++
		}
	}
	if n == 0 {
		return s, 0
	}
	b.WriteString(s[i:])
	return b.String(), n
}

// Substitute applies fields to every text leaf of doc and returns the number
// of tokens replaced. Leaves without a match are not touched.
func Substitute(doc *doctree.Document, fields map[string]string, syntax Syntax) int {
	r := NewReplacer(fields, syntax)
	total := 0
	for _, leaf := range doc.TextLeaves() {
		out, n := r.Replace(leaf.Text())
		if n == 0 {
			continue
		}
		leaf.SetText(out)
		total += n
	}
	return total
}
