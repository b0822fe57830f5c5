package internal

import "fmt"

// Position represents a location in the source template
type Position struct {
	Offset int // Byte offset from start
	Line   int // 1-indexed line number
	Column int // 1-indexed column number
}

// String returns a human-readable position string
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token represents a lexical token produced by the scanner
type Token struct {
	Type     TokenType   // The type of token
	Value    string      // Literal text, or the partial name for partial includes
	Name     Name        // Parsed tag name (root name for partial includes)
	Section  SectionType // Section flavor for section openers
	Position Position    // Source position
}

// String returns a human-readable representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenTypeLiteral:
		return fmt.Sprintf("Token{%s: %q @ %s}", t.Type, t.Value, t.Position)
	case TokenTypeSectionOpener:
		return fmt.Sprintf("Token{%s %s: %s @ %s}", t.Type, t.Section, t.Name, t.Position)
	case TokenTypePartialInclude:
		return fmt.Sprintf("Token{%s: %s root=%s @ %s}", t.Type, t.Value, t.Name, t.Position)
	case TokenTypeEOF:
		return fmt.Sprintf("Token{%s @ %s}", t.Type, t.Position)
	default:
		return fmt.Sprintf("Token{%s: %s @ %s}", t.Type, t.Name, t.Position)
	}
}

// IsEOF returns true if this is the end-of-input sentinel
func (t Token) IsEOF() bool {
	return t.Type == TokenTypeEOF
}

// NewLiteralToken creates a literal text token
func NewLiteralToken(text string, pos Position) Token {
	return Token{
		Type:     TokenTypeLiteral,
		Value:    text,
		Position: pos,
	}
}

// NewInterpolationToken creates an escaped interpolation token
func NewInterpolationToken(name Name, pos Position) Token {
	return Token{
		Type:     TokenTypeInterpolation,
		Name:     name,
		Position: pos,
	}
}

// NewUnescapedInterpolationToken creates a raw interpolation token
func NewUnescapedInterpolationToken(name Name, pos Position) Token {
	return Token{
		Type:     TokenTypeUnescapedInterpolation,
		Name:     name,
		Position: pos,
	}
}

// NewSectionOpenerToken creates a section opener token
func NewSectionOpenerToken(section SectionType, name Name, pos Position) Token {
	return Token{
		Type:     TokenTypeSectionOpener,
		Name:     name,
		Section:  section,
		Position: pos,
	}
}

// NewSectionCloserToken creates a section closer token
func NewSectionCloserToken(name Name, pos Position) Token {
	return Token{
		Type:     TokenTypeSectionCloser,
		Name:     name,
		Position: pos,
	}
}

// NewPartialIncludeToken creates a partial include token
func NewPartialIncludeToken(partial string, root Name, pos Position) Token {
	return Token{
		Type:     TokenTypePartialInclude,
		Value:    partial,
		Name:     root,
		Position: pos,
	}
}

// NewEOFToken creates the end-of-input sentinel returned past the last token
func NewEOFToken(pos Position) Token {
	return Token{
		Type:     TokenTypeEOF,
		Position: pos,
	}
}
