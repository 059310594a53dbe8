package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

func TestParse_Markdown(t *testing.T) {
	blocks, err := parse([]byte("# Title {#sec:t}\n\nsee @fig:one\n"), &inspectOptions{})
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, ast.TagHeader, blocks[0].Tag)
	assert.Equal(t, "sec:t", blocks[0].Attrs.ID)
}

func TestParse_JSON(t *testing.T) {
	src := []byte(`{"pandoc-api-version":[1,22],"meta":{},"blocks":[{"t":"Para","c":[{"t":"Str","c":"hi"}]}]}`)
	blocks, err := parse(src, &inspectOptions{json: true})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, ast.TagPara, blocks[0].Tag)
}

func TestParse_HTML(t *testing.T) {
	blocks, err := parse([]byte("<p>see <code>x</code></p>"), &inspectOptions{html: true})
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, ast.TagPara, blocks[0].Tag)
}

func TestRunInspect_FlagValidation(t *testing.T) {
	t.Run("html and json are exclusive", func(t *testing.T) {
		err := runInspect("", &inspectOptions{html: true, json: true, output: "tree"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("unknown output format", func(t *testing.T) {
		err := runInspect("", &inspectOptions{output: "yaml"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid output format")
	})
}

func TestRunInspect_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("hello @fig:one\n"), 0644))

	require.NoError(t, runInspect(path, &inspectOptions{output: "json", noColor: true}))
}

func TestRunInspect_MissingFile(t *testing.T) {
	err := runInspect(filepath.Join(t.TempDir(), "absent.md"),
		&inspectOptions{output: "tree", noColor: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read input")
}
