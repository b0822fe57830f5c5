package internal

import (
	"fmt"

	"go.uber.org/zap"
)

// Parser produces an AST from a token stream
type Parser struct {
	tokens []Token
	pos    int
	logger *zap.Logger
}

// NewParser creates a new parser for the given token stream
func NewParser(tokens []Token, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgParserCreated, zap.Int(LogFieldTokens, len(tokens)))
	return &Parser{
		tokens: tokens,
		logger: logger,
	}
}

// Parse produces the root sequence from the token stream. The whole stream must be
// consumed: a section closer left over at top level is an error.
func (p *Parser) Parse() (*SequenceNode, error) {
	p.logger.Debug(LogMsgParserStart)

	root, err := p.parseSequence()
	if err != nil {
		return nil, err
	}
	if tok := p.current(); !tok.IsEOF() {
		return nil, &ParserError{
			Message:  ErrMsgUnexpectedToken,
			Position: tok.Position,
			Token:    tok,
			Actual:   tok.Name.String(),
		}
	}

	p.logger.Debug(LogMsgParserEnd, zap.Int(LogFieldNodes, len(root.Children)))
	return root, nil
}

// parseSequence parses nodes until end of input or a section closer, which is left unconsumed
func (p *Parser) parseSequence() (*SequenceNode, error) {
	start := p.current().Position
	var children []Node

	for {
		tok := p.current()
		switch tok.Type {
		case TokenTypeEOF, TokenTypeSectionCloser:
			return NewSequenceNode(children, start), nil
		case TokenTypeLiteral:
			p.advance()
			children = append(children, NewLiteralNode(tok.Value, tok.Position))
		case TokenTypeInterpolation:
			p.advance()
			children = append(children, NewInterpolationNode(tok.Name, tok.Position))
		case TokenTypeUnescapedInterpolation:
			p.advance()
			children = append(children, NewUnescapedInterpolationNode(tok.Name, tok.Position))
		case TokenTypePartialInclude:
			p.advance()
			children = append(children, NewPartialNode(tok.Value, tok.Name, tok.Position))
		case TokenTypeSectionOpener:
			section, err := p.parseSection()
			if err != nil {
				return nil, err
			}
			children = append(children, section)
		default:
			return nil, &ParserError{
				Message:  ErrMsgUnexpectedToken,
				Position: tok.Position,
				Token:    tok,
			}
		}
	}
}

// parseSection parses an opener, its nested sequence and the matching closer
func (p *Parser) parseSection() (*SectionNode, error) {
	opener := p.advance()

	nested, err := p.parseSequence()
	if err != nil {
		return nil, err
	}

	closer := p.current()
	if closer.IsEOF() {
		return nil, &ParserError{
			Message:  ErrMsgUnexpectedEOF,
			Position: closer.Position,
			Token:    opener,
			Expected: opener.Name.String(),
		}
	}
	if !closer.Name.Equal(opener.Name) {
		return nil, &ParserError{
			Message:  ErrMsgCloserMismatch,
			Position: closer.Position,
			Token:    closer,
			Expected: opener.Name.String(),
			Actual:   closer.Name.String(),
		}
	}
	p.advance()

	return NewSectionNode(opener.Section, opener.Name, nested, opener.Position), nil
}

// Helper methods

// current returns the current token; past the end it returns the EOF token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return NewEOFToken(p.tokens[len(p.tokens)-1].Position)
		}
		return NewEOFToken(Position{Line: 1, Column: 1})
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token
func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// ParserError represents a parser error with context
type ParserError struct {
	Message  string
	Position Position
	Token    Token
	Expected string // Name of the open section, if any
	Actual   string // Name found instead
}

func (e *ParserError) Error() string {
	switch {
	case e.Expected != StringValueEmpty && e.Actual != StringValueEmpty:
		return fmt.Sprintf(ErrFmtWithPosition, fmt.Sprintf(ErrFmtExpectedActual, e.Message, e.Expected, e.Actual), e.Position)
	case e.Expected != StringValueEmpty:
		return fmt.Sprintf(ErrFmtWithName, e.Message, e.Expected, e.Position)
	case e.Actual != StringValueEmpty:
		return fmt.Sprintf(ErrFmtWithName, e.Message, e.Actual, e.Position)
	default:
		return fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position)
	}
}

// Parser error message constants
const (
	ErrMsgUnexpectedToken = "unexpected token"
	ErrMsgUnexpectedEOF   = "unexpected end of input"
	ErrMsgCloserMismatch  = "section closer mismatch"
	ErrFmtExpectedActual  = "%s: expected %q, found %q"
)
