package internal

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Name is a scope-relative path expression such as "..user.address.city" or "items()".
type Name struct {
	LeadingDots  int      // Number of enclosing scopes to ascend (0 = context-stack lookup)
	Segments     []string // Identifiers or non-negative integer indices
	FunctionCall bool     // Last segment is invoked as a zero-argument accessor
}

// ParseName parses the body of a tag into a Name.
func ParseName(text string) (Name, error) {
	input := strings.TrimSpace(text)

	dots := 0
	for dots < len(input) && input[dots] == CharDot {
		dots++
	}
	input = strings.TrimLeftFunc(input[dots:], unicode.IsSpace)

	call := false
	if strings.HasSuffix(input, StrCallSuffix) {
		call = true
		input = strings.TrimRightFunc(input[:len(input)-len(StrCallSuffix)], unicode.IsSpace)
	}

	if dots == 0 && input == StringValueEmpty {
		return Name{}, &NameError{Message: ErrMsgEmptyName, Text: text}
	}
	if call && input == StringValueEmpty {
		return Name{}, &NameError{Message: ErrMsgCallWithoutName, Text: text}
	}

	segments, err := parseSegments(input)
	if err != nil {
		err.Text = text
		return Name{}, err
	}

	return Name{
		LeadingDots:  dots,
		Segments:     segments,
		FunctionCall: call,
	}, nil
}

// parseSegments splits a dotted path and validates every segment.
func parseSegments(input string) ([]string, *NameError) {
	if input == StringValueEmpty {
		return nil, nil
	}

	parts := strings.Split(input, StrSegmentSep)
	for _, part := range parts {
		if part == StringValueEmpty {
			return nil, &NameError{Message: ErrMsgEmptySegment}
		}
		if !isIdentifier(part) && !isIndex(part) {
			return nil, &NameError{Message: ErrMsgInvalidSegment, Segment: part}
		}
	}
	return parts, nil
}

// isIdentifier reports whether s is a letter or underscore followed by letters, digits or underscores.
func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == CharUnderscore || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return utf8.RuneCountInString(s) > 0
}

// isIndex reports whether s is a non-negative integer literal usable as a positional index.
func isIndex(s string) bool {
	_, err := strconv.ParseUint(s, 10, 32)
	return err == nil
}

// IsRoot reports whether the name addresses a scope itself rather than a path inside it.
func (n Name) IsRoot() bool {
	return len(n.Segments) == 0
}

// Equal reports structural equality.
func (n Name) Equal(other Name) bool {
	if n.LeadingDots != other.LeadingDots || n.FunctionCall != other.FunctionCall {
		return false
	}
	if len(n.Segments) != len(other.Segments) {
		return false
	}
	for i := range n.Segments {
		if n.Segments[i] != other.Segments[i] {
			return false
		}
	}
	return true
}

// String renders the name in template syntax.
func (n Name) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat(StrSegmentSep, n.LeadingDots))
	sb.WriteString(strings.Join(n.Segments, StrSegmentSep))
	if n.FunctionCall {
		sb.WriteString(StrCallSuffix)
	}
	return sb.String()
}

// NameError describes a name grammar failure.
type NameError struct {
	Message string
	Text    string // Full tag body that failed to parse
	Segment string // Offending segment, if any
}

func (e *NameError) Error() string {
	if e.Segment != StringValueEmpty {
		return e.Message + ": " + strconv.Quote(e.Segment)
	}
	return e.Message + ": " + strconv.Quote(e.Text)
}

// Name grammar error message constants
const (
	ErrMsgEmptyName       = "empty name"
	ErrMsgCallWithoutName = "function call requires a name"
	ErrMsgEmptySegment    = "empty path segment"
	ErrMsgInvalidSegment  = "invalid path segment"
)
