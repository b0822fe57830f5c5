package internal

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Scanner tokenizes template source into a token stream
type Scanner struct {
	source string
	pos    int // Current byte position
	line   int // Current line (1-indexed)
	column int // Current column (1-indexed)
	logger *zap.Logger
}

// NewScanner creates a new scanner over source
func NewScanner(source string, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgScannerCreated, zap.Int(LogFieldSource, len(source)))
	return &Scanner{
		source: source,
		line:   1,
		column: 1,
		logger: logger,
	}
}

// Tokenize processes the source and returns the token stream terminated by an EOF token.
func (s *Scanner) Tokenize() ([]Token, error) {
	s.logger.Debug(LogMsgScanStart)
	var tokens []Token

	for !s.isAtEnd() {
		if literal := s.scanLiteral(); literal.Value != StringValueEmpty {
			tokens = append(tokens, literal)
		}
		if s.isAtEnd() {
			break
		}

		tag, err := s.scanTag()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tag)
	}

	tokens = append(tokens, NewEOFToken(s.currentPosition()))
	s.logger.Debug(LogMsgScanEnd, zap.Int(LogFieldTokens, len(tokens)))
	return tokens, nil
}

// scanLiteral consumes text up to the next tag opener or end of input
func (s *Scanner) scanLiteral() Token {
	startPos := s.currentPosition()
	end := strings.Index(s.source[s.pos:], StrTagOpen)
	if end < 0 {
		end = len(s.source) - s.pos
	}
	text := s.source[s.pos : s.pos+end]
	s.advanceN(end)
	return NewLiteralToken(text, startPos)
}

// scanTag consumes one complete tag starting at "{{"
func (s *Scanner) scanTag() (Token, error) {
	startPos := s.currentPosition()
	s.advanceN(len(StrTagOpen))

	raw := s.peek() == CharOpenBrace
	closer := StrTagClose
	if raw {
		s.advance()
		closer = StrUnescapedTagClose
	}

	end := strings.Index(s.source[s.pos:], closer)
	if end < 0 {
		return Token{}, &ScannerError{
			Message:  ErrMsgUnterminatedTag,
			Position: startPos,
			Text:     truncate(s.source[startPos.Offset:]),
		}
	}
	body := s.source[s.pos : s.pos+end]
	s.advanceN(end + len(closer))

	if raw {
		name, err := ParseName(body)
		if err != nil {
			return Token{}, newNameScanError(err, body, startPos)
		}
		return NewUnescapedInterpolationToken(name, startPos), nil
	}

	trimmed := strings.TrimLeftFunc(body, unicode.IsSpace)
	if trimmed == StringValueEmpty {
		_, err := ParseName(body)
		return Token{}, newNameScanError(err, body, startPos)
	}

	switch trimmed[0] {
	case CharHash, CharCaret:
		return scanSectionOpener(trimmed, startPos)
	case CharSlash:
		name, err := ParseName(trimmed[1:])
		if err != nil {
			return Token{}, newNameScanError(err, body, startPos)
		}
		return NewSectionCloserToken(name, startPos), nil
	case CharGreater:
		return scanPartialInclude(trimmed[1:], startPos)
	default:
		name, err := ParseName(body)
		if err != nil {
			return Token{}, newNameScanError(err, body, startPos)
		}
		return NewInterpolationToken(name, startPos), nil
	}
}

// scanSectionOpener classifies a "#" or "^" tag body by its head and tail characters
func scanSectionOpener(body string, pos Position) (Token, error) {
	body = strings.TrimSpace(body)
	negative := body[0] == CharCaret
	rest := body[1:]

	conditional, scope := false, false
	switch {
	case len(rest) > 0 && rest[len(rest)-1] == CharQuestionMark:
		conditional = true
		rest = rest[:len(rest)-1]
	case len(rest) > 1 && rest[len(rest)-1] == CharDot:
		scope = true
		rest = rest[:len(rest)-1]
	}

	name, err := ParseName(rest)
	if err != nil {
		return Token{}, newNameScanError(err, body, pos)
	}

	var section SectionType
	switch {
	case scope && negative:
		return Token{}, &ScannerError{
			Message:  ErrMsgInvalidSectionType,
			Position: pos,
			Text:     body,
		}
	case scope:
		section = SectionScope
	case conditional && negative:
		section = SectionNegativeConditional
	case conditional:
		section = SectionConditional
	case negative:
		section = SectionNegativeIteration
	default:
		section = SectionIteration
	}

	return NewSectionOpenerToken(section, name, pos), nil
}

// scanPartialInclude splits a ">" tag body into the partial name and optional root name
func scanPartialInclude(body string, pos Position) (Token, error) {
	body = strings.TrimSpace(body)
	if body == StringValueEmpty {
		return Token{}, &ScannerError{
			Message:  ErrMsgEmptyPartialName,
			Position: pos,
		}
	}

	partial, rootText := body, StringValueEmpty
	if idx := strings.IndexFunc(body, unicode.IsSpace); idx >= 0 {
		_, size := utf8.DecodeRuneInString(body[idx:])
		partial, rootText = body[:idx], body[idx+size:]
	}

	root := Name{LeadingDots: 1}
	if strings.TrimSpace(rootText) != StringValueEmpty {
		name, err := ParseName(rootText)
		if err != nil {
			return Token{}, newNameScanError(err, rootText, pos)
		}
		root = name
	}

	return NewPartialIncludeToken(partial, root, pos), nil
}

// Helper methods

// currentPosition returns the current position
func (s *Scanner) currentPosition() Position {
	return Position{
		Offset: s.pos,
		Line:   s.line,
		Column: s.column,
	}
}

// isAtEnd returns true if we've reached the end of source
func (s *Scanner) isAtEnd() bool {
	return s.pos >= len(s.source)
}

// peek returns the current byte without advancing
func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.source[s.pos]
}

// advance consumes one byte and keeps line and column in step
func (s *Scanner) advance() {
	if s.isAtEnd() {
		return
	}
	if s.source[s.pos] == CharNewline {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
	s.pos++
}

// advanceN advances by n bytes
func (s *Scanner) advanceN(n int) {
	for i := 0; i < n && !s.isAtEnd(); i++ {
		s.advance()
	}
}

// truncate shortens long source excerpts for error messages
func truncate(s string) string {
	if len(s) > MaxStringDisplayLength {
		return s[:TruncatedStringLength] + TruncationSuffix
	}
	return s
}

func newNameScanError(err error, text string, pos Position) error {
	return &ScannerError{
		Message:  ErrMsgInvalidName,
		Position: pos,
		Text:     text,
		Cause:    err,
	}
}

// ScannerError represents a scanner error with position
type ScannerError struct {
	Message  string
	Position Position
	Text     string // Offending tag text
	Cause    error
}

func (e *ScannerError) Error() string {
	msg := fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position)
	if e.Cause != nil {
		return fmt.Sprintf(ErrFmtWithCause, msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying name grammar error, if any
func (e *ScannerError) Unwrap() error {
	return e.Cause
}

// Error message constants for scanner
const (
	ErrMsgUnterminatedTag    = "unterminated tag"
	ErrMsgInvalidSectionType = "invalid section type"
	ErrMsgEmptyPartialName   = "empty partial name"
	ErrMsgInvalidName        = "invalid name"
)
