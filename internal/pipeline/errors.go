package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a generation failure. These are the only kinds callers
// branch on.
type Kind int

const (
	KindInvalidArgument Kind = iota + 1
	KindTemplateNotFound
	KindTemplateCorrupt
	KindGenerationFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindTemplateNotFound:
		return "template_not_found"
	case KindTemplateCorrupt:
		return "template_corrupt"
	case KindGenerationFailed:
		return "generation_failed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrTemplateNotFound = &Error{Kind: KindTemplateNotFound}
	ErrTemplateCorrupt  = &Error{Kind: KindTemplateCorrupt}
	ErrGenerationFailed = &Error{Kind: KindGenerationFailed}
)

const corruptMessage = "file contains corrupted data"

// Error is the caller-facing failure of Generate.
type Error struct {
	Kind    Kind
	Path    string // absolute path the failure concerns, if any
	Message string
	Err     error // underlying cause, for diagnostics only
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Kind == KindTemplateCorrupt {
		return msg
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func invalidArgument(msg string) error {
	return &Error{Kind: KindInvalidArgument, Message: msg}
}

func templateNotFound(path string, err error) error {
	return &Error{Kind: KindTemplateNotFound, Path: path, Message: "template not found", Err: err}
}

func templateCorrupt(path string, err error) error {
	return &Error{Kind: KindTemplateCorrupt, Path: path, Message: corruptMessage, Err: err}
}

func generationFailed(path string, err error) error {
	return &Error{Kind: KindGenerationFailed, Path: path, Message: "generation failed", Err: err}
}
