package stache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopDriver struct{}

func (noopDriver) Open(string) (TemplateStore, error) { return NewMemoryLoader(nil), nil }

func TestLoaderRegistry(t *testing.T) {
	t.Run("built-in drivers are registered", func(t *testing.T) {
		drivers := ListLoaderDrivers()
		assert.Contains(t, drivers, LoaderDriverNameMemory)
		assert.Contains(t, drivers, LoaderDriverNameFilesystem)
		assert.Contains(t, drivers, LoaderDriverNamePostgres)
		assert.IsNonDecreasing(t, drivers)
	})

	t.Run("open memory", func(t *testing.T) {
		store, err := OpenLoader(LoaderDriverNameMemory, "")
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &MemoryLoader{}, store)
	})

	t.Run("open filesystem", func(t *testing.T) {
		store, err := OpenLoader(LoaderDriverNameFilesystem, t.TempDir())
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &FilesystemLoader{}, store)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := OpenLoader("nope", "")
		require.Error(t, err)

		var loaderErr *LoaderError
		require.True(t, errors.As(err, &loaderErr))
		assert.Equal(t, ErrMsgLoaderDriverNotFound, loaderErr.Message)
		assert.Equal(t, "nope", loaderErr.Name)
	})

	t.Run("nil driver panics", func(t *testing.T) {
		assert.PanicsWithValue(t, ErrMsgNilLoaderDriver, func() {
			RegisterLoaderDriver("nil-driver", nil)
		})
	})

	t.Run("duplicate driver panics", func(t *testing.T) {
		RegisterLoaderDriver("test-duplicate", noopDriver{})
		assert.Panics(t, func() {
			RegisterLoaderDriver("test-duplicate", noopDriver{})
		})
	})
}

// storeFactories builds every store that runs without external services.
func storeFactories(t *testing.T) map[string]func() TemplateStore {
	return map[string]func() TemplateStore{
		"memory": func() TemplateStore {
			return NewMemoryLoader(nil)
		},
		"filesystem": func() TemplateStore {
			l, err := NewFilesystemLoader(t.TempDir(), nil)
			require.NoError(t, err)
			return l
		},
		"cached memory": func() TemplateStore {
			return NewCachedLoader(NewMemoryLoader(nil), DefaultCacheConfig())
		},
	}
}

func TestTemplateStores(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()

			t.Run("save and load", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, "page.html", "Hello {{name}}"))
				require.NoError(t, store.Save(ctx, "layouts/base.html", "<main>{{>/page}}</main>"))

				source, err := store.Load(ctx, "page.html")
				require.NoError(t, err)
				assert.Equal(t, "Hello {{name}}", source)

				source, err = store.Load(ctx, "layouts/base.html")
				require.NoError(t, err)
				assert.Equal(t, "<main>{{>/page}}</main>", source)
			})

			t.Run("save replaces", func(t *testing.T) {
				require.NoError(t, store.Save(ctx, "page.html", "v2"))
				source, err := store.Load(ctx, "page.html")
				require.NoError(t, err)
				assert.Equal(t, "v2", source)
			})

			t.Run("list is sorted", func(t *testing.T) {
				names, err := store.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"layouts/base.html", "page.html"}, names)
			})

			t.Run("exists", func(t *testing.T) {
				ok, err := store.Exists(ctx, "page.html")
				require.NoError(t, err)
				assert.True(t, ok)

				ok, err = store.Exists(ctx, "missing.html")
				require.NoError(t, err)
				assert.False(t, ok)
			})

			t.Run("load missing is not found", func(t *testing.T) {
				_, err := store.Load(ctx, "missing.html")
				require.Error(t, err)
				assert.True(t, IsNotFound(err))
				assert.Contains(t, err.Error(), "missing.html")
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, "page.html"))
				_, err := store.Load(ctx, "page.html")
				assert.True(t, IsNotFound(err))

				err = store.Delete(ctx, "page.html")
				assert.True(t, IsNotFound(err))
			})

			t.Run("invalid names are rejected", func(t *testing.T) {
				for _, bad := range []string{"", "../escape.html", "/abs.html", "a/../b.html", `a\b.html`} {
					assert.Error(t, store.Save(ctx, bad, "x"), "name %q", bad)
				}
			})

			t.Run("canceled context", func(t *testing.T) {
				canceled, cancel := context.WithCancel(ctx)
				cancel()
				_, err := store.Load(canceled, "layouts/base.html")
				assert.ErrorIs(t, err, context.Canceled)
			})
		})
	}
}

func TestTemplateStores_Closed(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			require.NoError(t, store.Close())

			_, err := store.Load(ctx, "x.html")
			require.Error(t, err)
			assert.Contains(t, err.Error(), ErrMsgLoaderClosed)
		})
	}
}

func TestMemoryLoader_Seeded(t *testing.T) {
	seed := map[string]string{"a.html": "A"}
	loader := NewMemoryLoader(seed)
	seed["a.html"] = "changed"

	source, err := loader.Load(context.Background(), "a.html")
	require.NoError(t, err)
	assert.Equal(t, "A", source)
}

func TestFilesystemLoader(t *testing.T) {
	ctx := context.Background()

	t.Run("empty root", func(t *testing.T) {
		_, err := NewFilesystemLoader("", nil)
		require.Error(t, err)
	})

	t.Run("creates root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "templates")
		loader, err := NewFilesystemLoader(root, nil)
		require.NoError(t, err)
		assert.DirExists(t, root)
		assert.True(t, filepath.IsAbs(loader.Root()))
	})

	t.Run("reads files written outside the loader", func(t *testing.T) {
		root := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(root, "partials"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "partials", "nav.html"), []byte("<nav/>"), 0o644))

		loader, err := NewFilesystemLoader(root, nil)
		require.NoError(t, err)

		source, err := loader.Load(ctx, "partials/nav.html")
		require.NoError(t, err)
		assert.Equal(t, "<nav/>", source)
	})

	t.Run("traversal is rejected before touching the filesystem", func(t *testing.T) {
		parent := t.TempDir()
		root := filepath.Join(parent, "root")
		require.NoError(t, os.WriteFile(filepath.Join(parent, "secret.html"), []byte("secret"), 0o644))

		loader, err := NewFilesystemLoader(root, nil)
		require.NoError(t, err)

		_, err = loader.Load(ctx, "../secret.html")
		require.Error(t, err)
		assert.False(t, IsNotFound(err))

		var loaderErr *LoaderError
		require.True(t, errors.As(err, &loaderErr))
		assert.Equal(t, ErrMsgPathTraversalDetected, loaderErr.Message)
	})
}

func TestLoaderError(t *testing.T) {
	tests := []struct {
		name     string
		err      *LoaderError
		expected string
	}{
		{"message only", &LoaderError{Message: "boom"}, "boom"},
		{"with name", &LoaderError{Message: "boom", Name: "a.html"}, "boom: a.html"},
		{"with cause", &LoaderError{Message: "boom", Name: "a.html", Cause: errors.New("disk")}, "boom: a.html: disk"},
		{"not found hides sentinel", NewLoaderNotFoundError("a.html").(*LoaderError), "template not found: a.html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}
