package stache

import (
	"context"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/itsatony/go-stache/internal"
)

// Template is a parsed template ready for rendering.
// A Template is immutable and safe for concurrent use.
type Template struct {
	id     string
	source string
	root   *internal.SequenceNode
	engine *Engine
}

// parseTemplate scans and parses source. id names the template in errors and
// is the base for its relative partial names.
func parseTemplate(id, source string, logger *zap.Logger) (*Template, error) {
	tokens, err := internal.NewScanner(source, logger).Tokenize()
	if err != nil {
		return nil, wrapParseError(id, err)
	}

	root, err := internal.NewParser(tokens, logger).Parse()
	if err != nil {
		return nil, wrapParseError(id, err)
	}

	return &Template{
		id:     id,
		source: source,
		root:   root,
	}, nil
}

// bind returns a copy of t that renders through e.
func (t *Template) bind(e *Engine) *Template {
	if t.engine == e {
		return t
	}
	bound := *t
	bound.engine = e
	return &bound
}

// ID returns the template's identity: its canonical name when loaded, or the name given to ParseNamed.
func (t *Template) ID() string {
	return t.id
}

// Source returns the original template source.
func (t *Template) Source() string {
	return t.source
}

// Partials returns the partial names the template includes directly, in order of first appearance.
func (t *Template) Partials() []string {
	return internal.Partials(t.root)
}

// String returns a debug dump of the template's syntax tree.
func (t *Template) String() string {
	return t.root.String()
}

// Execute renders the template against data and returns the output.
func (t *Template) Execute(ctx context.Context, data any) (string, error) {
	var sb strings.Builder
	if err := t.ExecuteTo(ctx, &sb, data); err != nil {
		return StringValueEmpty, err
	}
	return sb.String(), nil
}

// ExecuteTo renders the template against data into w. On error, whatever was
// already written to w stays there and must not be treated as complete output.
func (t *Template) ExecuteTo(ctx context.Context, w io.Writer, data any) error {
	return t.owner().render(ctx, t, data, w)
}

// Validate resolves every partial the template includes, transitively, and reports
// missing, unparsable or circular partials without rendering anything.
func (t *Template) Validate(ctx context.Context) error {
	e := t.owner()
	return e.validate(ctx, t, []string{t.id})
}

func (t *Template) owner() *Engine {
	if t.engine != nil {
		return t.engine
	}
	return defaultEngine()
}

var (
	defaultEngineOnce sync.Once
	defaultEngineInst *Engine
)

// defaultEngine renders templates that were parsed outside an engine.
func defaultEngine() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngineInst = MustNew()
	})
	return defaultEngineInst
}
