package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsatony/go-stache"
)

// Test data constants
const (
	testTemplateContent = "Hello, {{user}}!"
	testDataYAML        = "user: Alice"
	testDataJSON        = `{"user": "Alice"}`
	testExpectedOutput  = "Hello, Alice!"
	testInvalidContent  = "Hello, {{user"
	testUnclosedContent = "{{#items}}x"
)

// runCLI runs the CLI in a fresh working directory and captures its output
func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// setupTestData creates test files in a temp directory and makes it the working directory
func setupTestData(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	files := map[string]string{
		"template.html":             testTemplateContent,
		"invalid.html":              testInvalidContent,
		"unclosed.html":             testUnclosedContent,
		"data.yml":                  testDataYAML,
		"data.json":                 testDataJSON,
		"templates/pages/home.html": "<h1>{{title}}</h1>{{#items}}{{>item}}{{/items}}",
		"templates/pages/item.html": "<li>{{.}}</li>",
		"templates/deep.html":       "{{>pages/home}}",
		"templates/broken.html":     "{{#open}}",
		"templates/needs.html":      "{{>missing}}",
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), FilePermissions))
	}
	return tmpDir
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	setupTestData(t)
	code, stdout, _ := runCLI(t, "")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
	assert.Contains(t, stdout, CmdNameValidate)
}

func TestRun_UnknownCommand(t *testing.T) {
	setupTestData(t)
	code, _, stderr := runCLI(t, "", "unknown")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRun_UnknownFlag(t *testing.T) {
	setupTestData(t)
	code, _, _ := runCLI(t, "", CmdNameRender, "--nope")
	assert.Equal(t, ExitCodeUsageError, code)
}

// ==================== version tests ====================

func TestVersion(t *testing.T) {
	setupTestData(t)

	t.Run("text", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameVersion)
		assert.Equal(t, ExitCodeSuccess, code)
		assert.Contains(t, stdout, "go-stache version")
	})

	t.Run("json", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameVersion, "-F", OutputFormatJSON)
		require.Equal(t, ExitCodeSuccess, code)

		var out versionOutput
		require.NoError(t, json.Unmarshal([]byte(stdout), &out))
		assert.NotEmpty(t, out.GoVersion)
	})

	t.Run("invalid format", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameVersion, "--format", "xml")
		assert.Equal(t, ExitCodeUsageError, code)
		assert.Contains(t, stderr, ErrMsgInvalidFormat)
	})

	t.Run("versions file", func(t *testing.T) {
		require.NoError(t, os.WriteFile("versions.yaml", []byte("project:\n  version: 1.2.3\ngit:\n  branch: main\n"), FilePermissions))
		v := getVersionInfo()
		assert.Equal(t, "1.2.3", v.Version)
		assert.Equal(t, "main", v.Branch)
		assert.Equal(t, VersionUnknown, v.Commit)
	})
}

// ==================== render tests ====================

func TestRender(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
	}{
		{"inline yaml", "", []string{"-t", "template.html", "-d", testDataYAML}},
		{"inline json", "", []string{"--template", "template.html", "--data", testDataJSON}},
		{"data file", "", []string{"-t", "template.html", "-f", "data.yml"}},
		{"json data file", "", []string{"-t", "template.html", "--data-file", "data.json"}},
		{"positional template", "", []string{"template.html", "-d", testDataYAML}},
		{"stdin", testTemplateContent, []string{"-t", InputSourceStdin, "-d", testDataYAML}},
		{"absolute path", "", []string{"-t", filepath.Join(dir, "template.html"), "-d", testDataYAML}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.stdin, append([]string{CmdNameRender}, tt.args...)...)
			require.Equal(t, ExitCodeSuccess, code, stderr)
			assert.Equal(t, testExpectedOutput, stdout)
		})
	}
}

func TestRender_OutputFile(t *testing.T) {
	dir := setupTestData(t)
	outPath := filepath.Join(dir, "out.html")

	code, stdout, _ := runCLI(t, "", CmdNameRender, "-t", "template.html", "-f", "data.yml", "-o", outPath)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stdout)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, testExpectedOutput, string(content))
}

func TestRender_NamedTemplate(t *testing.T) {
	setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender,
		"--base-dir", "templates", "-n", "pages/home", "-d", "title: Menu\nitems: [a, b]")
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "<h1>Menu</h1><li>a</li><li>b</li>", stdout)
}

func TestRender_TemplateFileResolvesPartialsFromBaseDir(t *testing.T) {
	setupTestData(t)
	menu := "{title: Menu, items: [a, b]}"

	tests := []struct {
		name     string
		template string
		stdin    string
		data     string
		expected string
	}{
		{"file in subdirectory", "templates/pages/home.html", "", menu, "<h1>Menu</h1><li>a</li><li>b</li>"},
		{"file at base root", "templates/deep.html", "", menu, "<h1>Menu</h1><li>a</li><li>b</li>"},
		{"file outside base", "template.html", "", testDataYAML, testExpectedOutput},
		{"stdin", InputSourceStdin, "{{>pages/item}}", "'x'", "<li>x</li>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.stdin, CmdNameRender,
				"--base-dir", "templates", "-t", tt.template, "-d", tt.data)
			require.Equal(t, ExitCodeSuccess, code, stderr)
			assert.Equal(t, tt.expected, stdout)
		})
	}

	code, stdout, stderr := runCLI(t, "", CmdNameValidate, "--base-dir", "templates", "-t", "templates/deep.html")
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Contains(t, stdout, ValidationTextSuccess)
}

func TestTemplateID(t *testing.T) {
	dir := setupTestData(t)

	tests := []struct {
		name     string
		path     string
		config   *stache.Config
		expected string
	}{
		{"no loader keeps path", "templates/deep.html", &stache.Config{}, "templates/deep.html"},
		{"relative to base dir", "templates/pages/home.html", &stache.Config{BaseDir: "templates"}, "pages/home.html"},
		{"absolute path under base dir", filepath.Join(dir, "templates", "deep.html"), &stache.Config{BaseDir: "templates"}, "deep.html"},
		{"outside base dir", "template.html", &stache.Config{BaseDir: "templates"}, ""},
		{"filesystem driver root", "templates/pages/item.html",
			&stache.Config{Loader: stache.LoaderConfig{Driver: stache.LoaderDriverNameFilesystem, DSN: "templates"}}, "pages/item.html"},
		{"non-filesystem driver", "templates/deep.html",
			&stache.Config{Loader: stache.LoaderConfig{Driver: stache.LoaderDriverNameMemory}}, ""},
		{"stdin", InputSourceStdin, &stache.Config{BaseDir: "templates"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, templateID(tt.path, tt.config))
		})
	}
}

func TestRender_Errors(t *testing.T) {
	setupTestData(t)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		errMsg   string
	}{
		{"no template", []string{}, ExitCodeUsageError, ErrMsgMissingTemplate},
		{"template and name", []string{"-t", "template.html", "-n", "x"}, ExitCodeUsageError, ""},
		{"data and data file", []string{"-t", "template.html", "-d", "a: 1", "-f", "data.yml"}, ExitCodeUsageError, ""},
		{"missing file", []string{"-t", "nonexistent.html"}, ExitCodeInputError, ErrMsgReadFileFailed},
		{"missing data file", []string{"-t", "template.html", "-f", "nonexistent.yml"}, ExitCodeInputError, ErrMsgInvalidData},
		{"invalid data", []string{"-t", "template.html", "-d", "a: [1"}, ExitCodeInputError, ErrMsgInvalidData},
		{"syntax error", []string{"-t", "invalid.html", "-d", testDataYAML}, ExitCodeValidationError, ErrMsgParseTemplateFailed},
		{"unclosed section", []string{"-t", "unclosed.html"}, ExitCodeValidationError, ErrMsgParseTemplateFailed},
		{"missing value", []string{"-t", "template.html", "-d", "other: 1"}, ExitCodeError, ErrMsgExecuteFailed},
		{"missing name", []string{"--base-dir", "templates", "-n", "nope"}, ExitCodeInputError, ErrMsgLoadTemplateFailed},
		{"broken name", []string{"--base-dir", "templates", "-n", "broken"}, ExitCodeValidationError, ErrMsgLoadTemplateFailed},
		{"watch without name", []string{"-t", "template.html", "--watch"}, ExitCodeUsageError, ErrMsgWatchNeedsName},
		{"bad log level", []string{"-t", "template.html", "--log-level", "loud"}, ExitCodeUsageError, ErrMsgConfigFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := runCLI(t, "", append([]string{CmdNameRender}, tt.args...)...)
			assert.Equal(t, tt.exitCode, code, stderr)
			if tt.errMsg != "" {
				assert.Contains(t, stderr, tt.errMsg)
			}
		})
	}
}

func TestRender_DebugLogging(t *testing.T) {
	setupTestData(t)

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "-t", "template.html", "-d", testDataYAML, "-l", "debug")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, testExpectedOutput, stdout)
	assert.Contains(t, stderr, LogMsgRendered)
	assert.Contains(t, stderr, stache.LogMsgEngineCreated)
}

// ==================== configuration layering tests ====================

func TestConfig_FileEnvAndFlags(t *testing.T) {
	setupTestData(t)
	require.NoError(t, os.WriteFile(stache.DefaultConfigFile, []byte("base_dir: templates\n"), FilePermissions))

	args := []string{CmdNameRender, "-n", "deep", "-d", "title: T\nitems: [x]"}

	code, stdout, stderr := runCLI(t, "", args...)
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "<h1>T</h1><li>x</li>", stdout)

	t.Setenv("STACHE_MAX_DEPTH", "1")
	code, _, _ = runCLI(t, "", args...)
	assert.Equal(t, ExitCodeError, code)

	code, stdout, _ = runCLI(t, "", append(args, "--max-depth", "0")...)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "<h1>T</h1><li>x</li>", stdout)
}

func TestConfig_ExplicitFile(t *testing.T) {
	dir := setupTestData(t)
	cfgPath := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("base_dir: templates\nextension: .html\n"), FilePermissions))

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "--config", cfgPath, "-n", "pages/item", "-d", "'7'")
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "<li>7</li>", stdout)

	t.Setenv(EnvConfigFile, cfgPath)
	code, stdout, _ = runCLI(t, "", CmdNameRender, "-n", "pages/item", "-d", "'8'")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, "<li>8</li>", stdout)
}

func TestConfig_InvalidFile(t *testing.T) {
	setupTestData(t)
	require.NoError(t, os.WriteFile(stache.DefaultConfigFile, []byte("unknown_key: 1\n"), FilePermissions))

	code, _, stderr := runCLI(t, "", CmdNameRender, "-t", "template.html")
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgConfigFailed)
}

// ==================== validate tests ====================

func TestValidate(t *testing.T) {
	setupTestData(t)

	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"valid file", []string{"-t", "template.html"}, ExitCodeSuccess, ValidationTextSuccess},
		{"valid named", []string{"--base-dir", "templates", "-n", "deep"}, ExitCodeSuccess, ValidationTextSuccess},
		{"syntax error", []string{"invalid.html"}, ExitCodeValidationError, "Template is invalid"},
		{"missing partial", []string{"--base-dir", "templates", "-n", "needs"}, ExitCodeValidationError, "missing.html"},
		{"broken named", []string{"--base-dir", "templates", "-n", "broken"}, ExitCodeValidationError, "Template is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, "", append([]string{CmdNameValidate}, tt.args...)...)
			assert.Equal(t, tt.exitCode, code, stderr)
			assert.Contains(t, stdout, tt.contains)
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	setupTestData(t)

	code, stdout, _ := runCLI(t, "", CmdNameValidate, "-t", "invalid.html", "-F", OutputFormatJSON)
	assert.Equal(t, ExitCodeValidationError, code)

	var out validationOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.False(t, out.Valid)
	assert.Equal(t, "invalid.html", out.Template)
	assert.Equal(t, stache.CategorySyntax, out.Category)
	assert.Equal(t, 1, out.Line)
	assert.Positive(t, out.Column)

	code, stdout, _ = runCLI(t, "", CmdNameValidate, "-t", "template.html", "--format", OutputFormatJSON)
	assert.Equal(t, ExitCodeSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.True(t, out.Valid)
}

func TestValidate_Errors(t *testing.T) {
	setupTestData(t)

	code, _, stderr := runCLI(t, "", CmdNameValidate)
	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgMissingTemplate)

	code, _, _ = runCLI(t, "", CmdNameValidate, "-t", "template.html", "-F", "xml")
	assert.Equal(t, ExitCodeUsageError, code)

	code, _, _ = runCLI(t, "", CmdNameValidate, "-t", "nonexistent.html")
	assert.Equal(t, ExitCodeInputError, code)
}

// ==================== input helper tests ====================

func TestReadData(t *testing.T) {
	setupTestData(t)

	data, err := readData("", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, data)

	data, err = readData(testDataYAML, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "Alice"}, data)

	data, err = readData("", "data.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user": "Alice"}, data)
}
