package internal

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func simpleName(segments ...string) Name {
	return Name{Segments: segments}
}

func pos(offset, line, column int) Position {
	return Position{Offset: offset, Line: line, Column: column}
}

func TestScanner_Tokenize_Literals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
	}{
		{
			name:     "empty string",
			input:    "",
			expected: []Token{NewEOFToken(pos(0, 1, 1))},
		},
		{
			name:  "plain text",
			input: "head{ape}",
			expected: []Token{
				NewLiteralToken("head{ape}", pos(0, 1, 1)),
				NewEOFToken(pos(9, 1, 10)),
			},
		},
		{
			name:  "multiline text",
			input: "Line 1\nLine 2",
			expected: []Token{
				NewLiteralToken("Line 1\nLine 2", pos(0, 1, 1)),
				NewEOFToken(pos(13, 2, 7)),
			},
		},
		{
			name:  "single closing braces are literal",
			input: "a }} b",
			expected: []Token{
				NewLiteralToken("a }} b", pos(0, 1, 1)),
				NewEOFToken(pos(6, 1, 7)),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewScanner(tt.input, zap.NewNop()).Tokenize()
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, tokens); diff != "" {
				t.Errorf("tokens mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScanner_Tokenize_Tags(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Token
	}{
		{"interpolation", "{{ape}}", NewInterpolationToken(simpleName("ape"), pos(0, 1, 1))},
		{"interpolation with whitespace", "{{ ape }}", NewInterpolationToken(simpleName("ape"), pos(0, 1, 1))},
		{"unescaped interpolation", "{{{ape}}}", NewUnescapedInterpolationToken(simpleName("ape"), pos(0, 1, 1))},
		{"unescaped with whitespace", "{{{ ape }}}", NewUnescapedInterpolationToken(simpleName("ape"), pos(0, 1, 1))},
		{"iteration", "{{#ape}}", NewSectionOpenerToken(SectionIteration, simpleName("ape"), pos(0, 1, 1))},
		{"iteration over dot", "{{#.}}", NewSectionOpenerToken(SectionIteration, Name{LeadingDots: 1}, pos(0, 1, 1))},
		{"negative iteration", "{{^ape}}", NewSectionOpenerToken(SectionNegativeIteration, simpleName("ape"), pos(0, 1, 1))},
		{"conditional", "{{#ape?}}", NewSectionOpenerToken(SectionConditional, simpleName("ape"), pos(0, 1, 1))},
		{"negative conditional", "{{^ape?}}", NewSectionOpenerToken(SectionNegativeConditional, simpleName("ape"), pos(0, 1, 1))},
		{"scope", "{{#ape.}}", NewSectionOpenerToken(SectionScope, simpleName("ape"), pos(0, 1, 1))},
		{"scope with whitespace", "{{ # ape. }}", NewSectionOpenerToken(SectionScope, simpleName("ape"), pos(0, 1, 1))},
		{"closer", "{{/ape}}", NewSectionCloserToken(simpleName("ape"), pos(0, 1, 1))},
		{"closer with whitespace", "{{ / ape }}", NewSectionCloserToken(simpleName("ape"), pos(0, 1, 1))},
		{"partial", "{{>ape}}", NewPartialIncludeToken("ape", Name{LeadingDots: 1}, pos(0, 1, 1))},
		{"partial with root", "{{> ape ..katt }}", NewPartialIncludeToken("ape", Name{LeadingDots: 2, Segments: []string{"katt"}}, pos(0, 1, 1))},
		{"partial with multi-byte separator", "{{>ape\u00a0katt}}", NewPartialIncludeToken("ape", Name{Segments: []string{"katt"}}, pos(0, 1, 1))},
		{"partial with path", "{{>shared/header.html}}", NewPartialIncludeToken("shared/header.html", Name{LeadingDots: 1}, pos(0, 1, 1))},
		{"function call", "{{fun()}}", NewInterpolationToken(Name{Segments: []string{"fun"}, FunctionCall: true}, pos(0, 1, 1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewScanner(tt.input, zap.NewNop()).Tokenize()
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			if diff := cmp.Diff(tt.expected, tokens[0]); diff != "" {
				t.Errorf("token mismatch (-want +got):\n%s", diff)
			}
			assert.True(t, tokens[1].IsEOF())
		})
	}
}

func TestScanner_Tokenize_Sequences(t *testing.T) {
	t.Run("tightly packed tags", func(t *testing.T) {
		tokens, err := NewScanner("{{a}}{{b}}{{c}}", nil).Tokenize()
		require.NoError(t, err)
		expected := []Token{
			NewInterpolationToken(simpleName("a"), pos(0, 1, 1)),
			NewInterpolationToken(simpleName("b"), pos(5, 1, 6)),
			NewInterpolationToken(simpleName("c"), pos(10, 1, 11)),
			NewEOFToken(pos(15, 1, 16)),
		}
		if diff := cmp.Diff(expected, tokens); diff != "" {
			t.Errorf("tokens mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("mixed content", func(t *testing.T) {
		tokens, err := NewScanner("Hello {{name}}! {{#list}}Welcome{{/list}}", nil).Tokenize()
		require.NoError(t, err)
		expected := []Token{
			NewLiteralToken("Hello ", pos(0, 1, 1)),
			NewInterpolationToken(simpleName("name"), pos(6, 1, 7)),
			NewLiteralToken("! ", pos(14, 1, 15)),
			NewSectionOpenerToken(SectionIteration, simpleName("list"), pos(16, 1, 17)),
			NewLiteralToken("Welcome", pos(25, 1, 26)),
			NewSectionCloserToken(simpleName("list"), pos(32, 1, 33)),
			NewEOFToken(pos(41, 1, 42)),
		}
		if diff := cmp.Diff(expected, tokens); diff != "" {
			t.Errorf("tokens mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("leading dots", func(t *testing.T) {
		tokens, err := NewScanner("{{.a}}{{..b}}{{...c}}", nil).Tokenize()
		require.NoError(t, err)
		require.Len(t, tokens, 4)
		assert.Equal(t, 1, tokens[0].Name.LeadingDots)
		assert.Equal(t, 2, tokens[1].Name.LeadingDots)
		assert.Equal(t, 3, tokens[2].Name.LeadingDots)
	})

	t.Run("positions across lines", func(t *testing.T) {
		tokens, err := NewScanner("a\n  {{b}}\n{{c}}", nil).Tokenize()
		require.NoError(t, err)
		require.Len(t, tokens, 5)
		assert.Equal(t, pos(4, 2, 3), tokens[1].Position)
		assert.Equal(t, pos(10, 3, 1), tokens[3].Position)
	})
}

func TestScanner_Tokenize_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		message  string
		position Position
	}{
		{"unterminated tag", "head {{ape", ErrMsgUnterminatedTag, pos(5, 1, 6)},
		{"unterminated raw tag", "{{{ape}}", ErrMsgUnterminatedTag, pos(0, 1, 1)},
		{"empty tag", "{{}}", ErrMsgInvalidName, pos(0, 1, 1)},
		{"invalid sigil", "{{+ape}}", ErrMsgInvalidName, pos(0, 1, 1)},
		{"invalid identifier", "{{ape-skrekk}}", ErrMsgInvalidName, pos(0, 1, 1)},
		{"negative scope", "{{^ape.}}", ErrMsgInvalidSectionType, pos(0, 1, 1)},
		{"empty section name", "{{#}}", ErrMsgInvalidName, pos(0, 1, 1)},
		{"empty partial name", "x\n{{> }}", ErrMsgEmptyPartialName, pos(2, 2, 1)},
		{"invalid partial root", "{{>p a-b}}", ErrMsgInvalidName, pos(0, 1, 1)},
		{"empty closer", "{{/}}", ErrMsgInvalidName, pos(0, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewScanner(tt.input, zap.NewNop()).Tokenize()
			require.Error(t, err)
			assert.Nil(t, tokens)

			var scanErr *ScannerError
			require.True(t, errors.As(err, &scanErr))
			assert.Equal(t, tt.message, scanErr.Message)
			assert.Equal(t, tt.position, scanErr.Position)
			assert.Contains(t, err.Error(), tt.position.String())
		})
	}
}

func TestScanner_Tokenize_NameErrorIsUnwrappable(t *testing.T) {
	_, err := NewScanner("{{a..b}}", nil).Tokenize()
	require.Error(t, err)

	var nameErr *NameError
	require.True(t, errors.As(err, &nameErr))
	assert.Equal(t, ErrMsgEmptySegment, nameErr.Message)
}
