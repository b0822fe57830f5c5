package stache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderPartialResolver_Canonicalize(t *testing.T) {
	r := NewLoaderPartialResolver(nil, ".html", nil)

	tests := []struct {
		name     string
		partial  string
		from     string
		expected string
	}{
		{"top level", "header", "", "header.html"},
		{"from anonymous template", "header", "main", "header.html"},
		{"sibling", "header", "pages/home.html", "pages/header.html"},
		{"nested", "parts/nav", "pages/home.html", "pages/parts/nav.html"},
		{"parent", "../shared/nav", "pages/home.html", "shared/nav.html"},
		{"anchored", "/layouts/base", "pages/deep/home.html", "layouts/base.html"},
		{"explicit extension kept", "style.css", "pages/home.html", "pages/style.css"},
		{"dot segments cleaned", "./a/./b", "", "a/b.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Canonicalize(tt.partial, tt.from)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoaderPartialResolver_CanonicalizeErrors(t *testing.T) {
	r := NewLoaderPartialResolver(nil, ".html", nil)

	tests := []struct {
		name    string
		partial string
		from    string
		errMsg  string
	}{
		{"empty", "", "", ErrMsgEmptyPartialName},
		{"escapes from top", "../secret", "", ErrMsgPartialEscapesBase},
		{"escapes from nested", "../../secret", "pages/home.html", ErrMsgPartialEscapesBase},
		{"anchored escape", "/../secret", "pages/home.html", ErrMsgPartialEscapesBase},
		{"base itself", ".", "", ErrMsgPartialEscapesBase},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Canonicalize(tt.partial, tt.from)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, IsCollaboratorError(err))
		})
	}
}

func TestLoaderPartialResolver_CachesParse(t *testing.T) {
	ctx := context.Background()
	counting := &countingLoader{TemplateLoader: NewMemoryLoader(map[string]string{
		"pages/item.html": "<li>{{.}}</li>",
	})}
	r := NewLoaderPartialResolver(counting, ".html", nil)

	first, err := r.ResolvePartial(ctx, "item", "pages/list.html")
	require.NoError(t, err)
	second, err := r.ResolvePartial(ctx, "/pages/item", "index.html")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "pages/item.html", first.ID())
	assert.Equal(t, int32(1), counting.loads.Load())
	assert.Equal(t, 1, r.CacheSize())

	r.Invalidate("pages/item")
	assert.Zero(t, r.CacheSize())

	_, err = r.ResolvePartial(ctx, "item", "pages/list.html")
	require.NoError(t, err)
	assert.Equal(t, int32(2), counting.loads.Load())

	r.Clear()
	assert.Zero(t, r.CacheSize())
}

func TestLoaderPartialResolver_Registered(t *testing.T) {
	ctx := context.Background()
	loader := NewMemoryLoader(map[string]string{"header.html": "from loader"})
	r := NewLoaderPartialResolver(loader, ".html", nil)

	require.NoError(t, r.Register("header", "registered"))
	assert.True(t, r.Has("header"))
	assert.True(t, r.Has("header.html"))
	assert.Equal(t, []string{"header.html"}, r.List())

	tmpl, err := r.ResolvePartial(ctx, "header", "")
	require.NoError(t, err)
	assert.Equal(t, "registered", tmpl.Source())

	assert.True(t, r.Unregister("header"))
	assert.False(t, r.Unregister("header"))

	tmpl, err = r.ResolvePartial(ctx, "header", "")
	require.NoError(t, err)
	assert.Equal(t, "from loader", tmpl.Source())
}

func TestLoaderPartialResolver_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no loader", func(t *testing.T) {
		r := NewLoaderPartialResolver(nil, ".html", nil)
		_, err := r.ResolvePartial(ctx, "missing", "")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.True(t, IsCollaboratorError(err))
	})

	t.Run("missing partial", func(t *testing.T) {
		r := NewLoaderPartialResolver(NewMemoryLoader(nil), ".html", nil)
		_, err := r.ResolvePartial(ctx, "missing", "")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "missing.html")
	})

	t.Run("syntax error in partial", func(t *testing.T) {
		r := NewLoaderPartialResolver(NewMemoryLoader(map[string]string{"bad.html": "{{oops"}), ".html", nil)
		_, err := r.ResolvePartial(ctx, "bad", "")
		require.Error(t, err)
		assert.True(t, IsSyntaxError(err))
		assert.Zero(t, r.CacheSize())
	})

	t.Run("register invalid source", func(t *testing.T) {
		r := NewLoaderPartialResolver(nil, ".html", nil)
		err := r.Register("p", "{{#a}}")
		require.Error(t, err)
		assert.True(t, IsStructuralError(err))
		assert.False(t, r.Has("p"))
	})
}
