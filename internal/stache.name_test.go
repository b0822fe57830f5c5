package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseName_Valid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Name
	}{
		{"simple", "ape", Name{Segments: []string{"ape"}}},
		{"underscore", "ape_katt", Name{Segments: []string{"ape_katt"}}},
		{"surrounding whitespace", "  ape  ", Name{Segments: []string{"ape"}}},
		{"one leading dot", ".ape", Name{LeadingDots: 1, Segments: []string{"ape"}}},
		{"three leading dots", "...c", Name{LeadingDots: 3, Segments: []string{"c"}}},
		{"whitespace after dots", ". ape", Name{LeadingDots: 1, Segments: []string{"ape"}}},
		{"segmented", "ape.2.skrekk", Name{Segments: []string{"ape", "2", "skrekk"}}},
		{"dots and segments", "..b.c.d", Name{LeadingDots: 2, Segments: []string{"b", "c", "d"}}},
		{"dot only", ".", Name{LeadingDots: 1}},
		{"two dots only", "..", Name{LeadingDots: 2}},
		{"positional index", "0", Name{Segments: []string{"0"}}},
		{"function call", "fun()", Name{Segments: []string{"fun"}, FunctionCall: true}},
		{"function call with whitespace", "fun () ", Name{Segments: []string{"fun"}, FunctionCall: true}},
		{"dotted function call", ".a.fun()", Name{LeadingDots: 1, Segments: []string{"a", "fun"}, FunctionCall: true}},
		{"unicode identifier", "navn_ø", Name{Segments: []string{"navn_ø"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseName(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestParseName_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"empty", "", ErrMsgEmptyName},
		{"whitespace only", "   ", ErrMsgEmptyName},
		{"call without name", ".()", ErrMsgCallWithoutName},
		{"bare call", "()", ErrMsgEmptyName},
		{"trailing dot", "a.", ErrMsgEmptySegment},
		{"double dot inside", "a..b", ErrMsgEmptySegment},
		{"hyphen", "ape-skrekk", ErrMsgInvalidSegment},
		{"embedded whitespace", "ape.ka tt", ErrMsgInvalidSegment},
		{"plus sigil", "+ape", ErrMsgInvalidSegment},
		{"negative index", "-1", ErrMsgInvalidSegment},
		{"index overflows 32 bits", "4294967296", ErrMsgInvalidSegment},
		{"leading digit identifier", "1abc", ErrMsgInvalidSegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseName(tt.input)
			require.Error(t, err)

			var nameErr *NameError
			require.True(t, errors.As(err, &nameErr))
			assert.Equal(t, tt.message, nameErr.Message)
			assert.Equal(t, tt.input, nameErr.Text)
		})
	}
}

func TestName_Equal(t *testing.T) {
	a := Name{LeadingDots: 1, Segments: []string{"a", "b"}}

	assert.True(t, a.Equal(Name{LeadingDots: 1, Segments: []string{"a", "b"}}))
	assert.False(t, a.Equal(Name{LeadingDots: 2, Segments: []string{"a", "b"}}))
	assert.False(t, a.Equal(Name{LeadingDots: 1, Segments: []string{"a"}}))
	assert.False(t, a.Equal(Name{LeadingDots: 1, Segments: []string{"a", "c"}}))
	assert.False(t, a.Equal(Name{LeadingDots: 1, Segments: []string{"a", "b"}, FunctionCall: true}))
	assert.True(t, Name{LeadingDots: 1}.Equal(Name{LeadingDots: 1, Segments: []string{}}))
}

func TestName_String(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"a", "a"},
		{" ..a.b ", "..a.b"},
		{".", "."},
		{"fun ()", "fun()"},
		{"..x.0.y()", "..x.0.y()"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			n, err := ParseName(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, n.String())

			reparsed, err := ParseName(n.String())
			require.NoError(t, err)
			assert.True(t, n.Equal(reparsed))
		})
	}
}

func TestName_IsRoot(t *testing.T) {
	assert.True(t, Name{LeadingDots: 1}.IsRoot())
	assert.False(t, Name{Segments: []string{"a"}}.IsRoot())
}
