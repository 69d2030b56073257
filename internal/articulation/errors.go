package articulation

import (
	"errors"
	"fmt"
)

// ErrUnrecoverable is returned when a payload survives no stage of the
// recovery pipeline. Callers check it with errors.Is and fall back to
// treating the raw output as plain text.
var ErrUnrecoverable = errors.New("articulation: unrecoverable payload")

// ParseError reports where a parse gave up. Offset is a byte offset into
// the raw payload when the decoder reported one, -1 otherwise. Snippet is
// a short window of the payload around the offset so log lines stay useful
// without dumping the whole response.
type ParseError struct {
	Offset  int64
	Snippet string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("parse failed at offset %d near %q: %v", e.Offset, e.Snippet, e.Cause)
	}
	return fmt.Sprintf("parse failed near %q: %v", e.Snippet, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// snippetAround extracts up to 40 runes on each side of a byte offset,
// clamped to valid rune boundaries.
func snippetAround(s string, offset int64) string {
	if len(s) == 0 {
		return ""
	}
	pos := int(offset)
	if pos < 0 {
		pos = 0
	}
	if pos > len(s) {
		pos = len(s)
	}

	runes := []rune(s)
	// Translate the byte offset to a rune index
	ri := 0
	for bi := 0; bi < pos && ri < len(runes); ri++ {
		bi += len(string(runes[ri]))
	}

	const window = 40
	lo := ri - window
	if lo < 0 {
		lo = 0
	}
	hi := ri + window
	if hi > len(runes) {
		hi = len(runes)
	}
	return string(runes[lo:hi])
}

// newParseError builds a ParseError wrapping ErrUnrecoverable so that
// errors.Is(err, ErrUnrecoverable) holds for every terminal failure.
func newParseError(raw string, offset int64, cause error) *ParseError {
	return &ParseError{
		Offset:  offset,
		Snippet: snippetAround(raw, offset),
		Cause:   fmt.Errorf("%w: %v", ErrUnrecoverable, cause),
	}
}
