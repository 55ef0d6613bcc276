package pipeline

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", templateNotFound("/t.docx", errors.New("stat")))
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Error("expected wrapped error to match its kind")
	}
	for _, other := range []error{ErrInvalidArgument, ErrTemplateCorrupt, ErrGenerationFailed} {
		if errors.Is(err, other) {
			t.Errorf("did not expect match with %v", other)
		}
	}
	if KindOf(err) != KindTemplateNotFound {
		t.Errorf("expected KindTemplateNotFound, got %v", KindOf(err))
	}
	if KindOf(errors.New("plain")) != 0 {
		t.Error("expected zero kind for foreign error")
	}
}

func TestError_Messages(t *testing.T) {
	cause := errors.New("zip: not a valid zip file")
	cases := []struct {
		err  error
		want string
	}{
		{invalidArgument("template path is empty"), "template path is empty"},
		{templateNotFound("/t.docx", nil), "/t.docx: template not found"},
		{templateCorrupt("/t.docx", cause), "file contains corrupted data"},
		{generationFailed("/o.docx", cause), "/o.docx: generation failed: zip: not a valid zip file"},
	}
	for _, c := range cases {
		if got := c.err.Error(); got != c.want {
			t.Errorf("expected %q, got %q", c.want, got)
		}
	}
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := generationFailed("/o.docx", cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause reachable for diagnostics")
	}
}

func TestKind_String(t *testing.T) {
	if KindTemplateCorrupt.String() != "template_corrupt" {
		t.Errorf("unexpected %q", KindTemplateCorrupt.String())
	}
	if Kind(42).String() != "Kind(42)" {
		t.Errorf("unexpected %q", Kind(42).String())
	}
}
