package internal

import (
	"io"
	"strings"
)

// htmlEscaper replaces the four HTML-significant characters. All of them are ASCII,
// so multi-byte UTF-8 sequences pass through untouched.
var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	"&", "&amp;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapingWriter wraps a writer and HTML-escapes everything written through it
type EscapingWriter struct {
	w io.Writer
}

// NewEscapingWriter creates an escaping writer forwarding to w
func NewEscapingWriter(w io.Writer) *EscapingWriter {
	return &EscapingWriter{w: w}
}

// Write escapes p and forwards it. On success it reports len(p), the number of
// input bytes consumed, not the number of bytes emitted downstream.
func (e *EscapingWriter) Write(p []byte) (int, error) {
	if _, err := htmlEscaper.WriteString(e.w, string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteString escapes s and forwards it
func (e *EscapingWriter) WriteString(s string) (int, error) {
	if _, err := htmlEscaper.WriteString(e.w, s); err != nil {
		return 0, err
	}
	return len(s), nil
}

// EscapeString returns the escaped form of s
func EscapeString(s string) string {
	return htmlEscaper.Replace(s)
}
