// Package normalize merges adjacent text runs so that placeholder tokens
// split across runs by an editor become contiguous again.
package normalize

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docfill/internal/doctree"
)

// Policy decides when two adjacent plain runs count as identically formatted.
type Policy int

const (
	// PolicySignature merges runs whose Formatting Signatures are equal.
	PolicySignature Policy = iota
	// PolicyStrict merges only runs that carry no w:rPr at all.
	PolicyStrict
)

func (p Policy) String() string {
	switch p {
	case PolicySignature:
		return "signature"
	case PolicyStrict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a configuration value to a Policy. Empty means signature.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "signature":
		return PolicySignature, nil
	case "strict":
		return PolicyStrict, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q", s)
}

func (p Policy) equal(a, b doctree.Run) bool {
	if p == PolicyStrict {
		return !a.HasProperties() && !b.HasProperties()
	}
	return a.Signature() == b.Signature()
}

// Document merges runs in every paragraph of doc and returns how many runs
// were absorbed into a predecessor.
func Document(doc *doctree.Document, policy Policy) int {
	merged := 0
	for _, p := range doc.Paragraphs() {
		merged += Paragraph(p, policy)
	}
	return merged
}

// Paragraph merges runs within a single paragraph. After a merge the
// surviving run is compared again with the next one, so chains of any length
// collapse into one run. The surviving run keeps its own formatting.
func Paragraph(p doctree.Paragraph, policy Policy) int {
	runs := p.Runs()
	merged := 0
	i := 0
	for i+1 < len(runs) {
		a, b := runs[i], runs[i+1]
		la, okA := a.Leaf()
		lb, okB := b.Leaf()
		if !okA || !okB || !p.Adjacent(a, b) || !policy.equal(a, b) {
			i++
			continue
		}
		la.SetText(la.Text() + lb.Text())
		b.Remove()
		runs = append(runs[:i+1], runs[i+2:]...)
		merged++
	}
	return merged
}
