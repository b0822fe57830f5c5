package stache

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-stache/internal"
)

// Error message constants
const (
	ErrMsgSyntax             = "template syntax error"
	ErrMsgStructure          = "template structure error"
	ErrMsgResolution         = "template data resolution failed"
	ErrMsgParseFailed        = "template parsing failed"
	ErrMsgRenderFailed       = "template rendering failed"
	ErrMsgLoadFailed         = "template loading failed"
	ErrMsgEmptyPartialName   = "partial name cannot be empty"
	ErrMsgPartialEscapesBase = "partial name escapes the base directory"
	ErrMsgInvalidMaxDepth    = "max depth cannot be negative"
	ErrMsgWatchUnsupported   = "loader does not support watching"
	ErrMsgInvalidConfig      = "invalid configuration"
	ErrMsgReadConfig         = "failed to read configuration file"
	ErrMsgReadData           = "failed to read data file"
	ErrMsgParseData          = "failed to parse data file"
)

// ErrTemplateNotFound is the cause of every "template not found" error returned by loaders.
var ErrTemplateNotFound = errors.New("template not found")

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

func positionFrom(p internal.Position) Position {
	return Position{Offset: p.Offset, Line: p.Line, Column: p.Column}
}

// withPosition attaches line, column and offset metadata
func withPosition(err *cuserr.CustomError, pos Position) *cuserr.CustomError {
	return err.
		WithMetadata(MetaKeyLine, strconv.Itoa(pos.Line)).
		WithMetadata(MetaKeyColumn, strconv.Itoa(pos.Column)).
		WithMetadata(MetaKeyOffset, strconv.Itoa(pos.Offset))
}

// withMetadata adds a metadata entry when err is a public error
func withMetadata(err error, key, value string) error {
	var custom *cuserr.CustomError
	if errors.As(err, &custom) {
		return custom.WithMetadata(key, value)
	}
	return err
}

// NewSyntaxError creates a syntax error for a scanner or name grammar failure
func NewSyntaxError(templateID string, pos Position, cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeSyntax, ErrMsgSyntax).
		WithMetadata(MetaKeyCategory, CategorySyntax).
		WithMetadata(MetaKeyTemplate, templateID)
	return withPosition(err, pos)
}

// NewStructuralError creates a structural error for a section nesting failure
func NewStructuralError(templateID string, pos Position, expected, actual string, cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeStructure, ErrMsgStructure).
		WithMetadata(MetaKeyCategory, CategoryStructure).
		WithMetadata(MetaKeyTemplate, templateID).
		WithMetadata(MetaKeyExpected, expected).
		WithMetadata(MetaKeyActual, actual)
	return withPosition(err, pos)
}

// NewResolutionError creates a render-time data resolution error
func NewResolutionError(templateID string, pos Position, name, segment string, cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeResolution, ErrMsgResolution).
		WithMetadata(MetaKeyCategory, CategoryResolution).
		WithMetadata(MetaKeyTemplate, templateID).
		WithMetadata(MetaKeyName, name).
		WithMetadata(MetaKeySegment, segment)
	return withPosition(err, pos)
}

// NewCollaboratorError creates an error for a loader, resolver or output failure
func NewCollaboratorError(msg, templateID, partial string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeCollaborator, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeCollaborator, msg)
	}
	return err.
		WithMetadata(MetaKeyCategory, CategoryCollaborator).
		WithMetadata(MetaKeyTemplate, templateID).
		WithMetadata(MetaKeyPartial, partial)
}

// NewConfigError creates a configuration error
func NewConfigError(msg, path string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return err.WithMetadata(MetaKeyPath, path)
}

// wrapParseError converts scanner and parser failures into public errors
func wrapParseError(templateID string, err error) error {
	var scanErr *internal.ScannerError
	if errors.As(err, &scanErr) {
		return NewSyntaxError(templateID, positionFrom(scanErr.Position), err)
	}
	var parseErr *internal.ParserError
	if errors.As(err, &parseErr) {
		return NewStructuralError(templateID, positionFrom(parseErr.Position), parseErr.Expected, parseErr.Actual, err)
	}
	return NewCollaboratorError(ErrMsgParseFailed, templateID, StringValueEmpty, err)
}

// wrapRenderError converts renderer failures into public errors. Errors that are
// already public (raised by a partial resolver while parsing a partial) keep their category.
func wrapRenderError(err error) error {
	var renderErr *internal.RenderError
	if !errors.As(err, &renderErr) {
		return NewCollaboratorError(ErrMsgRenderFailed, StringValueEmpty, StringValueEmpty, err)
	}

	if renderErr.Kind == internal.RenderErrorCollaborator {
		if category, ok := errorCategory(renderErr.Cause); ok && category != CategoryCollaborator {
			return renderErr.Cause
		}
	}

	switch renderErr.Kind {
	case internal.RenderErrorResolution:
		err := NewResolutionError(renderErr.Template, positionFrom(renderErr.Position), renderErr.Name, renderErr.Segment, renderErr)
		if renderErr.Partial != StringValueEmpty {
			return withMetadata(err, MetaKeyPartial, renderErr.Partial)
		}
		return err
	default:
		err := NewCollaboratorError(ErrMsgRenderFailed, renderErr.Template, renderErr.Partial, renderErr)
		var custom *cuserr.CustomError
		if errors.As(err, &custom) {
			return withPosition(custom, positionFrom(renderErr.Position))
		}
		return err
	}
}

// errorCategory returns the category metadata of the outermost public error in err's chain
func errorCategory(err error) (string, bool) {
	var custom *cuserr.CustomError
	if err == nil || !errors.As(err, &custom) {
		return StringValueEmpty, false
	}
	return custom.GetMetadata(MetaKeyCategory)
}

// ErrorCategory returns the category of a public error: syntax, structure,
// resolution or collaborator. Returns "" for any other error.
func ErrorCategory(err error) string {
	category, _ := errorCategory(err)
	return category
}

// ErrorPosition returns the template position recorded on a public error.
func ErrorPosition(err error) (Position, bool) {
	var custom *cuserr.CustomError
	if err == nil || !errors.As(err, &custom) {
		return Position{}, false
	}
	line, okLine := custom.GetMetadata(MetaKeyLine)
	column, okColumn := custom.GetMetadata(MetaKeyColumn)
	if !okLine || !okColumn {
		return Position{}, false
	}
	var pos Position
	pos.Line, _ = strconv.Atoi(line)
	pos.Column, _ = strconv.Atoi(column)
	if offset, ok := custom.GetMetadata(MetaKeyOffset); ok {
		pos.Offset, _ = strconv.Atoi(offset)
	}
	return pos, true
}

func hasCategory(err error, category string) bool {
	got, ok := errorCategory(err)
	return ok && got == category
}

// IsSyntaxError reports whether err is a scanner or name grammar failure
func IsSyntaxError(err error) bool {
	return hasCategory(err, CategorySyntax)
}

// IsStructuralError reports whether err is a section nesting failure
func IsStructuralError(err error) bool {
	return hasCategory(err, CategoryStructure)
}

// IsResolutionError reports whether err is a render-time data resolution failure
func IsResolutionError(err error) bool {
	return hasCategory(err, CategoryResolution)
}

// IsCollaboratorError reports whether err is a loader, resolver or output failure
func IsCollaboratorError(err error) bool {
	return hasCategory(err, CategoryCollaborator)
}

// IsNotFound reports whether err was caused by a missing template
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}
