package internal

// TokenType represents the type of a lexical token
type TokenType string

// Token type constants
const (
	TokenTypeLiteral                TokenType = "LITERAL"
	TokenTypeInterpolation          TokenType = "INTERPOLATION"
	TokenTypeUnescapedInterpolation TokenType = "UNESCAPED_INTERPOLATION"
	TokenTypeSectionOpener          TokenType = "SECTION_OPENER"
	TokenTypeSectionCloser          TokenType = "SECTION_CLOSER"
	TokenTypePartialInclude         TokenType = "PARTIAL_INCLUDE"
	TokenTypeEOF                    TokenType = "EOF"
)

// SectionType identifies the flavor of a section opener
type SectionType int

// Section type constants
const (
	SectionIteration SectionType = iota
	SectionNegativeIteration
	SectionConditional
	SectionNegativeConditional
	SectionScope
)

// Section type names for debugging
const (
	SectionNameIteration           = "ITERATION"
	SectionNameNegativeIteration   = "NEGATIVE_ITERATION"
	SectionNameConditional         = "CONDITIONAL"
	SectionNameNegativeConditional = "NEGATIVE_CONDITIONAL"
	SectionNameScope               = "SCOPE"
	SectionNameUnknown             = "UNKNOWN"
)

// String returns the string representation of the section type
func (s SectionType) String() string {
	switch s {
	case SectionIteration:
		return SectionNameIteration
	case SectionNegativeIteration:
		return SectionNameNegativeIteration
	case SectionConditional:
		return SectionNameConditional
	case SectionNegativeConditional:
		return SectionNameNegativeConditional
	case SectionScope:
		return SectionNameScope
	default:
		return SectionNameUnknown
	}
}

// NodeType identifies AST node types
type NodeType int

// Node type constants
const (
	NodeTypeSequence NodeType = iota
	NodeTypeLiteral
	NodeTypeInterpolation
	NodeTypeUnescapedInterpolation
	NodeTypeIteration
	NodeTypeNegativeIteration
	NodeTypeConditional
	NodeTypeNegativeConditional
	NodeTypeScope
	NodeTypePartialInclude
)

// Node type string names for debugging
const (
	NodeTypeNameSequence               = "SEQUENCE"
	NodeTypeNameLiteral                = "LITERAL"
	NodeTypeNameInterpolation          = "INTERPOLATION"
	NodeTypeNameUnescapedInterpolation = "UNESCAPED_INTERPOLATION"
	NodeTypeNamePartialInclude         = "PARTIAL_INCLUDE"
)

// String returns the string representation of the node type
func (n NodeType) String() string {
	switch n {
	case NodeTypeSequence:
		return NodeTypeNameSequence
	case NodeTypeLiteral:
		return NodeTypeNameLiteral
	case NodeTypeInterpolation:
		return NodeTypeNameInterpolation
	case NodeTypeUnescapedInterpolation:
		return NodeTypeNameUnescapedInterpolation
	case NodeTypeIteration:
		return SectionNameIteration
	case NodeTypeNegativeIteration:
		return SectionNameNegativeIteration
	case NodeTypeConditional:
		return SectionNameConditional
	case NodeTypeNegativeConditional:
		return SectionNameNegativeConditional
	case NodeTypeScope:
		return SectionNameScope
	case NodeTypePartialInclude:
		return NodeTypeNamePartialInclude
	default:
		return NodeTypeNameSequence
	}
}

// sectionNodeTypes maps each section flavor to its node type
var sectionNodeTypes = map[SectionType]NodeType{
	SectionIteration:           NodeTypeIteration,
	SectionNegativeIteration:   NodeTypeNegativeIteration,
	SectionConditional:         NodeTypeConditional,
	SectionNegativeConditional: NodeTypeNegativeConditional,
	SectionScope:               NodeTypeScope,
}

// Character constants
const (
	CharDot          = '.'
	CharUnderscore   = '_'
	CharHash         = '#'
	CharCaret        = '^'
	CharSlash        = '/'
	CharGreater      = '>'
	CharOpenBrace    = '{'
	CharQuestionMark = '?'
	CharNewline      = '\n'
)

// String constants for delimiter matching
const (
	StrTagOpen           = "{{"
	StrTagClose          = "}}"
	StrUnescapedTagClose = "}}}"
	StrCallSuffix        = "()"
	StrSegmentSep        = "."
)

// Log message constants
const (
	LogMsgScannerCreated  = "scanner created"
	LogMsgScanStart       = "starting scan"
	LogMsgScanEnd         = "scan complete"
	LogMsgParserCreated   = "parser created"
	LogMsgParserStart     = "starting parse"
	LogMsgParserEnd       = "parse complete"
	LogMsgRendererCreated = "renderer created"
	LogMsgRenderStart     = "starting render"
	LogMsgRenderEnd       = "render complete"
	LogMsgPartialInclude  = "including partial"
	LogMsgPartialDone     = "partial rendered"
)

// Log field names
const (
	LogFieldSource   = "source_length"
	LogFieldTokens   = "token_count"
	LogFieldNodes    = "node_count"
	LogFieldTemplate = "template"
	LogFieldPartial  = "partial"
	LogFieldDepth    = "depth"
)

// Formatting constants for String() dumps
const (
	MaxStringDisplayLength = 40
	TruncatedStringLength  = 37
	TruncationSuffix       = "..."
	ErrFmtWithPosition     = "%s at %s"
	ErrFmtWithName         = "%s (%s) at %s"
	ErrFmtWithCause        = "%s: %v"
	StringValueEmpty       = ""
)

// Default configuration values
const (
	DefaultMaxDepth = 100
)
