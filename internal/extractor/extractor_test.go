package extractor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raglab/codeassist-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ex := New()
	assert.NotNil(t, ex)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path     string
		expected types.Language
	}{
		{"main.go", types.LangGo},
		{"pkg/util/helper.GO", types.LangGo},
		{"script.py", types.LangPython},
		{"notes.md", types.LangUnknown},
		{"Makefile", types.LangUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectLanguage(tt.path))
		})
	}
}

func TestExtract_GoFunctions(t *testing.T) {
	source := `package mathops

// Add returns the sum of two integers
func Add(a, b int) int {
	return a + b
}

// Sub returns the difference of two integers
func Sub(a, b int) int {
	return a - b
}
`

	ex := New()
	result := ex.Extract("mathops/ops.go", []byte(source))

	assert.False(t, result.HasErrors())
	assert.Equal(t, types.LangGo, result.Language)
	require.Len(t, result.Snippets, 2)

	add := result.Snippets[0]
	assert.Equal(t, "Add", add.Name)
	assert.Equal(t, types.SnippetFunction, add.Kind)
	assert.Equal(t, "mathops/ops.go", add.FilePath)
	assert.Contains(t, add.Content, "return a + b")
	assert.NotEmpty(t, add.ID)

	sub := result.Snippets[1]
	assert.Equal(t, "Sub", sub.Name)
	assert.Contains(t, sub.Content, "return a - b")
	assert.NotEqual(t, add.ID, sub.ID)
}

func TestExtract_GoMethods(t *testing.T) {
	source := `package store

type Counter struct {
	n int
}

func (c *Counter) Inc() {
	c.n++
}

func (c Counter) Value() int {
	return c.n
}
`

	ex := New()
	result := ex.Extract("store/counter.go", []byte(source))

	require.Len(t, result.Snippets, 2)
	assert.Equal(t, types.SnippetMethod, result.Snippets[0].Kind)
	assert.Equal(t, "Counter.Inc", result.Snippets[0].Name)
	assert.Equal(t, "Counter.Value", result.Snippets[1].Name)
}

func TestExtract_Determinism(t *testing.T) {
	source := `package p

func One() int { return 1 }

func Two() int { return 2 }
`

	ex := New()
	first := ex.Extract("p/p.go", []byte(source))
	second := ex.Extract("p/p.go", []byte(source))

	require.Len(t, first.Snippets, 2)
	require.Len(t, second.Snippets, 2)

	for i := range first.Snippets {
		assert.Equal(t, first.Snippets[i].ContentHash, second.Snippets[i].ContentHash)
		assert.Equal(t, first.Snippets[i].ID, second.Snippets[i].ID)
	}
}

func TestExtract_GoSyntaxError(t *testing.T) {
	source := `package broken

func Incomplete( {
`

	ex := New()
	result := ex.Extract("broken.go", []byte(source))

	require.True(t, result.HasErrors())
	assert.Contains(t, result.Errors[0].Message, "syntax error")
}

func TestExtract_GoNoFunctions(t *testing.T) {
	source := `package config

type Settings struct {
	Timeout int
	Retries int
}

const DefaultTimeout = 30
`

	ex := New()
	result := ex.Extract("config/config.go", []byte(source))

	// Declarations without functions collapse into one module-level block
	require.Len(t, result.Snippets, 1)
	assert.Equal(t, types.SnippetBlock, result.Snippets[0].Kind)
	assert.Contains(t, result.Snippets[0].Content, "Settings struct")
}

func TestExtract_EmptyFile(t *testing.T) {
	ex := New()
	result := ex.Extract("empty.go", []byte(""))

	assert.Empty(t, result.Snippets)
	assert.True(t, result.HasErrors()) // empty Go file has no package clause
}

func TestExtract_UnsupportedLanguage(t *testing.T) {
	ex := New()
	result := ex.Extract("README.md", []byte("# Title\n\nSome prose.\n"))

	assert.Empty(t, result.Snippets)
	assert.False(t, result.HasErrors())
}

func TestExtract_PythonFunctions(t *testing.T) {
	source := `import math


def add(a, b):
    """Sum two numbers."""
    return a + b


def sub(a, b):
    return a - b
`

	ex := New()
	result := ex.Extract("ops.py", []byte(source))

	assert.Equal(t, types.LangPython, result.Language)
	require.Len(t, result.Snippets, 2)

	assert.Equal(t, "add", result.Snippets[0].Name)
	assert.Equal(t, types.SnippetFunction, result.Snippets[0].Kind)
	assert.Contains(t, result.Snippets[0].Content, "return a + b")

	assert.Equal(t, "sub", result.Snippets[1].Name)
	assert.Contains(t, result.Snippets[1].Content, "return a - b")
}

func TestExtract_PythonClassMethods(t *testing.T) {
	source := `class Greeter:
    def __init__(self, name):
        self.name = name

    def greet(self):
        return "hello " + self.name


def standalone():
    return 42
`

	ex := New()
	result := ex.Extract("greeter.py", []byte(source))

	require.Len(t, result.Snippets, 3)
	assert.Equal(t, types.SnippetMethod, result.Snippets[0].Kind)
	assert.Equal(t, "__init__", result.Snippets[0].Name)
	assert.Equal(t, types.SnippetMethod, result.Snippets[1].Kind)
	assert.Equal(t, "greet", result.Snippets[1].Name)
	assert.Equal(t, types.SnippetFunction, result.Snippets[2].Kind)
	assert.Equal(t, "standalone", result.Snippets[2].Name)
}

func TestExtract_PythonAsyncDef(t *testing.T) {
	source := `async def fetch(url):
    return await client.get(url)
`

	ex := New()
	result := ex.Extract("client.py", []byte(source))

	require.Len(t, result.Snippets, 1)
	assert.Equal(t, "fetch", result.Snippets[0].Name)
}

func TestExtract_PythonDefClosedByDedent(t *testing.T) {
	source := `def first():
    x = 1
    return x

print("module level")

def second():
    return 2
`

	ex := New()
	result := ex.Extract("mod.py", []byte(source))

	require.Len(t, result.Snippets, 2)
	// The print statement at indent 0 closes first(); it must not leak in
	assert.NotContains(t, result.Snippets[0].Content, "module level")
	assert.Equal(t, 1, result.Snippets[0].StartLine)
	assert.Equal(t, 7, result.Snippets[1].StartLine)
}

func TestExtract_LineRanges(t *testing.T) {
	source := `package p

func A() int {
	return 1
}
`

	ex := New()
	result := ex.Extract("p.go", []byte(source))

	require.Len(t, result.Snippets, 1)
	assert.Equal(t, 3, result.Snippets[0].StartLine)
	assert.Equal(t, 5, result.Snippets[0].EndLine)
}

func TestExtractFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "pkg"), 0755))

	content := `package pkg

func Hello() string {
	return "hello"
}
`
	err := os.WriteFile(filepath.Join(tmpDir, "pkg", "hello.go"), []byte(content), 0644)
	require.NoError(t, err)

	ex := New()
	result, err := ex.ExtractFile(tmpDir, filepath.Join("pkg", "hello.go"))
	require.NoError(t, err)

	require.Len(t, result.Snippets, 1)
	// Provenance stays relative to the root
	assert.Equal(t, filepath.Join("pkg", "hello.go"), result.Snippets[0].FilePath)
}

func TestExtractFile_NonExistent(t *testing.T) {
	ex := New()
	_, err := ex.ExtractFile("/nonexistent", "missing.go")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
