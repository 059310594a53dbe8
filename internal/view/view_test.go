package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"tree", false},
		{"json", false},
		{"yaml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func sampleBlocks() []*ast.Block {
	return []*ast.Block{
		ast.Header(1, &attr.Set{ID: "sec:intro"}, ast.InlineList{ast.Str("Intro")}),
		ast.Para(ast.InlineList{
			ast.Str("see"),
			ast.Space(),
			ast.SingleCite("fig:one"),
		}),
	}
}

func TestRenderTokens_Tree(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTree, true)
	r.SetWriter(&buf)

	require.NoError(t, r.RenderTokens(sampleBlocks()))
	out := buf.String()

	assert.Contains(t, out, "Header 1 {#sec:intro}")
	assert.Contains(t, out, `Str "see"`)
	assert.Contains(t, out, "@fig:one (AuthorInText)")

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "Header"), "top-level block is not indented")
	for _, line := range lines {
		if strings.Contains(line, `"see"`) {
			assert.True(t, strings.HasPrefix(line, "  "), "inline tokens are indented")
		}
	}
}

func TestRenderTokens_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatJSON, true)
	r.SetWriter(&buf)

	require.NoError(t, r.RenderTokens(sampleBlocks()))

	assert.Contains(t, buf.String(), `"t": "Header"`)
	assert.Contains(t, buf.String(), `"citationId": "fig:one"`)
}

func TestRenderTokens_LinkShowsTarget(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTree, true)
	r.SetWriter(&buf)

	blocks := []*ast.Block{ast.Para(ast.InlineList{
		ast.Link(ast.InlineList{ast.Str("1")}, "#fig:one", ""),
	})}
	require.NoError(t, r.RenderTokens(blocks))

	assert.Contains(t, buf.String(), "Link -> #fig:one")
}

func TestRenderer_SuccessAndError(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(FormatTree, true)
	r.SetWriter(&buf)

	r.Success("written")
	r.Error("broken")

	assert.Contains(t, buf.String(), "✓ written")
	assert.Contains(t, buf.String(), "✗ broken")
}

func TestWarningWriter(t *testing.T) {
	var buf bytes.Buffer
	ww := NewWarningWriter(&buf, true)

	n, err := ww.Write([]byte("refnum: something\n"))
	require.NoError(t, err)

	assert.Equal(t, len("refnum: something\n"), n)
	assert.Equal(t, "refnum: something\n", buf.String())
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"very short max", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLen))
		})
	}
}
