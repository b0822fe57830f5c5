package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"
)

// Partial is a resolved, parsed partial template.
type Partial struct {
	ID   string        // Canonical identity, used for cycle detection and relative lookups
	Root *SequenceNode // Parsed template
}

// PartialResolver maps a partial name, relative to the including template, to a parsed template.
type PartialResolver interface {
	ResolvePartial(ctx context.Context, name, from string) (*Partial, error)
}

// RendererConfig holds renderer configuration options.
type RendererConfig struct {
	MaxDepth int // Maximum partial nesting depth (0 = unlimited)
}

// DefaultRendererConfig returns the default renderer configuration.
func DefaultRendererConfig() RendererConfig {
	return RendererConfig{
		MaxDepth: DefaultMaxDepth,
	}
}

// Renderer walks an AST against a scope stack and writes the output.
// A Renderer holds no per-render state and may be shared between goroutines.
type Renderer struct {
	partials PartialResolver
	config   RendererConfig
	logger   *zap.Logger
}

// NewRenderer creates a new renderer. partials may be nil for templates without includes.
func NewRenderer(partials PartialResolver, config RendererConfig, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(LogMsgRendererCreated)
	return &Renderer{
		partials: partials,
		config:   config,
		logger:   logger,
	}
}

// renderState is owned by a single Render call.
type renderState struct {
	ctx     context.Context
	w       io.Writer
	escaped *EscapingWriter
	chain   []string // In-flight template ids, outermost first
}

func (s *renderState) current() string {
	return s.chain[len(s.chain)-1]
}

// Render writes root rendered against data to w. templateID identifies root for
// relative partial lookups and circular include detection.
func (r *Renderer) Render(ctx context.Context, root *SequenceNode, data any, w io.Writer, templateID string) error {
	r.logger.Debug(LogMsgRenderStart, zap.String(LogFieldTemplate, templateID))

	state := &renderState{
		ctx:     ctx,
		w:       w,
		escaped: NewEscapingWriter(w),
		chain:   []string{templateID},
	}
	if err := r.renderSequence(state, root, []any{data}); err != nil {
		return err
	}

	r.logger.Debug(LogMsgRenderEnd, zap.String(LogFieldTemplate, templateID))
	return nil
}

// renderSequence renders each child in order
func (r *Renderer) renderSequence(state *renderState, seq *SequenceNode, stack []any) error {
	for _, child := range seq.Children {
		if err := r.renderNode(state, child, stack); err != nil {
			return err
		}
	}
	return nil
}

// renderNode dispatches on the node type
func (r *Renderer) renderNode(state *renderState, node Node, stack []any) error {
	switch n := node.(type) {
	case *LiteralNode:
		if _, err := io.WriteString(state.w, n.Text); err != nil {
			return r.writeError(state, n, err)
		}
		return nil
	case *InterpolationNode:
		return r.renderInterpolation(state, n, n.Name, stack, state.escaped)
	case *UnescapedInterpolationNode:
		return r.renderInterpolation(state, n, n.Name, stack, state.w)
	case *SectionNode:
		return r.renderSection(state, n, stack)
	case *PartialNode:
		return r.renderPartial(state, n, stack)
	case *SequenceNode:
		return r.renderSequence(state, n, stack)
	default:
		return &RenderError{
			Kind:     RenderErrorResolution,
			Message:  ErrMsgUnknownNode,
			Position: node.Pos(),
			Template: state.current(),
		}
	}
}

// renderInterpolation resolves name and writes its display form to out
func (r *Renderer) renderInterpolation(state *renderState, node Node, name Name, stack []any, out io.Writer) error {
	value, err := resolveName(stack, name)
	if err != nil {
		return r.resolutionError(state, node, name, err)
	}
	text, err := Display(value)
	if err != nil {
		return r.resolutionError(state, node, name, err)
	}
	if _, err := io.WriteString(out, text); err != nil {
		return r.writeError(state, node, err)
	}
	return nil
}

// renderSection evaluates one of the five section flavors
func (r *Renderer) renderSection(state *renderState, n *SectionNode, stack []any) error {
	value, err := resolveName(stack, n.Name)
	if err != nil {
		return r.resolutionError(state, n, n.Name, err)
	}

	switch n.Kind {
	case SectionIteration:
		items, err := Iterate(value)
		if err != nil {
			return r.resolutionError(state, n, n.Name, err)
		}
		for item := range items {
			if err := r.renderSequence(state, n.Nested, append(stack, item)); err != nil {
				return err
			}
		}
		return nil

	case SectionNegativeIteration:
		item, absent, err := NegativeIter(value)
		if err != nil {
			return r.resolutionError(state, n, n.Name, err)
		}
		if !absent {
			return nil
		}
		return r.renderSequence(state, n.Nested, append(stack, item))

	case SectionConditional, SectionNegativeConditional:
		truthy, err := IsTruthy(value)
		if err != nil {
			return r.resolutionError(state, n, n.Name, err)
		}
		if truthy != (n.Kind == SectionConditional) {
			return nil
		}
		return r.renderSequence(state, n.Nested, append(stack, value))

	default:
		return r.renderSequence(state, n.Nested, append(stack, value))
	}
}

// renderPartial resolves the root and partial, then renders it against a fresh stack
func (r *Renderer) renderPartial(state *renderState, n *PartialNode, stack []any) error {
	if err := state.ctx.Err(); err != nil {
		return &RenderError{
			Kind:     RenderErrorCollaborator,
			Message:  ErrMsgRenderCanceled,
			Partial:  n.PartialName,
			Position: n.Pos(),
			Template: state.current(),
			Cause:    err,
		}
	}

	root, err := resolveName(stack, n.Root)
	if err != nil {
		return r.resolutionError(state, n, n.Root, err)
	}

	if r.partials == nil {
		return &RenderError{
			Kind:     RenderErrorCollaborator,
			Message:  ErrMsgNoPartialResolver,
			Partial:  n.PartialName,
			Position: n.Pos(),
			Template: state.current(),
		}
	}
	partial, err := r.partials.ResolvePartial(state.ctx, n.PartialName, state.current())
	if err != nil {
		return &RenderError{
			Kind:     RenderErrorCollaborator,
			Message:  ErrMsgPartialFailed,
			Partial:  n.PartialName,
			Position: n.Pos(),
			Template: state.current(),
			Cause:    err,
		}
	}

	if slices.Contains(state.chain, partial.ID) {
		return &RenderError{
			Kind:     RenderErrorResolution,
			Message:  ErrMsgCircularInclude,
			Partial:  partial.ID,
			Position: n.Pos(),
			Template: state.current(),
		}
	}
	if r.config.MaxDepth > 0 && len(state.chain) > r.config.MaxDepth {
		return &RenderError{
			Kind:     RenderErrorResolution,
			Message:  ErrMsgMaxDepthExceeded,
			Partial:  partial.ID,
			Position: n.Pos(),
			Template: state.current(),
		}
	}

	r.logger.Debug(LogMsgPartialInclude,
		zap.String(LogFieldPartial, partial.ID),
		zap.String(LogFieldTemplate, state.current()),
		zap.Int(LogFieldDepth, len(state.chain)))

	state.chain = append(state.chain, partial.ID)
	err = r.renderSequence(state, partial.Root, []any{root})
	state.chain = state.chain[:len(state.chain)-1]
	if err != nil {
		return err
	}

	r.logger.Debug(LogMsgPartialDone, zap.String(LogFieldPartial, partial.ID))
	return nil
}

// resolutionError wraps a lookup or capability failure with node context
func (r *Renderer) resolutionError(state *renderState, node Node, name Name, err error) error {
	re := &RenderError{
		Kind:     RenderErrorResolution,
		Message:  ErrMsgWrongCapability,
		Name:     name.String(),
		Position: node.Pos(),
		Template: state.current(),
		Cause:    err,
	}
	if le, ok := asLookupError(err); ok {
		re.Message = le.Message
		re.Segment = le.Segment
		re.Cause = le.Cause
	}
	return re
}

func (r *Renderer) writeError(state *renderState, node Node, err error) error {
	return &RenderError{
		Kind:     RenderErrorWrite,
		Message:  ErrMsgWriteFailed,
		Position: node.Pos(),
		Template: state.current(),
		Cause:    err,
	}
}

// RenderErrorKind classifies render failures
type RenderErrorKind int

// Render error kinds
const (
	RenderErrorResolution RenderErrorKind = iota
	RenderErrorCollaborator
	RenderErrorWrite
)

// RenderError represents a render-time failure with context
type RenderError struct {
	Kind     RenderErrorKind
	Message  string
	Name     string // Tag name being resolved
	Segment  string // Path segment that failed
	Partial  string // Partial being included
	Template string // Template the failing node belongs to
	Position Position
	Cause    error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	var result string
	switch {
	case e.Name != StringValueEmpty:
		result = fmt.Sprintf(ErrFmtWithName, e.Message, e.Name, e.Position)
	case e.Partial != StringValueEmpty:
		result = fmt.Sprintf(ErrFmtWithName, e.Message, e.Partial, e.Position)
	default:
		result = fmt.Sprintf(ErrFmtWithPosition, e.Message, e.Position)
	}
	if e.Segment != StringValueEmpty {
		result = fmt.Sprintf(ErrFmtWithSegment, result, e.Segment)
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// IsRenderErrorKind reports whether err contains a RenderError of the given kind
func IsRenderErrorKind(err error, kind RenderErrorKind) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Kind == kind
}

// Renderer error message constants
const (
	ErrMsgWrongCapability   = "wrong capability"
	ErrMsgUnknownNode       = "unknown node type"
	ErrMsgRenderCanceled    = "render canceled"
	ErrMsgNoPartialResolver = "no partial resolver configured"
	ErrMsgPartialFailed     = "partial resolution failed"
	ErrMsgCircularInclude   = "circular partial include"
	ErrMsgMaxDepthExceeded  = "maximum partial depth exceeded"
	ErrMsgWriteFailed       = "write failed"
	ErrFmtWithSegment       = "%s: segment %q"
)
