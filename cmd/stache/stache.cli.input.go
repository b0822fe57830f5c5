package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/itsatony/go-stache"
)

// readInput reads content from a file or stdin
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == InputSourceStdin {
		return io.ReadAll(stdin)
	}

	return os.ReadFile(path)
}

// templateID names a template file the way the configured loader would, so relative
// partials resolve against the loader's base directory. Files outside the base directory
// and stdin get an empty id, which resolves partials from the base itself.
func templateID(path string, config *stache.Config) string {
	if path == InputSourceStdin {
		return ""
	}

	var base string
	switch {
	case config.Loader.Driver == stache.LoaderDriverNameFilesystem:
		base = config.Loader.DSN
	case config.Loader.Driver != "":
		return ""
	case config.BaseDir != "":
		base = config.BaseDir
	default:
		return filepath.ToSlash(path)
	}

	absBase, err := filepath.Abs(base)
	if err != nil {
		return ""
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// readData decodes the render context from inline text, a file, or nothing
func readData(inline, filePath string) (any, error) {
	switch {
	case filePath != "":
		return stache.LoadData(filePath)
	case inline != "":
		return stache.ParseData([]byte(inline))
	default:
		return map[string]any{}, nil
	}
}

// writeOutput writes content to a file or stdout
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if path == FlagDefaultOutput {
		_, err := stdout.Write(data)
		return err
	}

	return os.WriteFile(path, data, FilePermissions)
}
