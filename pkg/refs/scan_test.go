package refs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

func TestExtractAttrs_SingleToken(t *testing.T) {
	x := ast.InlineList{ast.Str("{#fig:one}")}

	attrs, err := ExtractAttrs(&x, 0)
	require.NoError(t, err)
	assert.Equal(t, "fig:one", attrs.ID)
	assert.Empty(t, x, "consumed tokens are removed")
}

func TestExtractAttrs_SpansMultipleTokens(t *testing.T) {
	x := ast.InlineList{
		ast.Str("before"),
		ast.Str("{#id"),
		ast.Space(),
		ast.Str(".cls}after"),
		ast.Str("rest"),
	}

	attrs, err := ExtractAttrs(&x, 1)
	require.NoError(t, err)
	assert.Equal(t, "id", attrs.ID)
	assert.Equal(t, []string{"cls"}, attrs.Classes)

	// The text glued to the closing brace survives; tokens before the
	// block are untouched.
	require.Len(t, x, 3)
	assert.Equal(t, "before", x[0].Text)
	assert.Equal(t, "after", x[1].Text)
	assert.Equal(t, "rest", x[2].Text)
}

func TestExtractAttrs_QuoteBalance(t *testing.T) {
	// A '}' inside a quoted value must not close the block.
	x := ast.InlineList{ast.Str(`{#id`), ast.Space(), ast.Str(`tag="a}b"}`)}

	attrs, err := ExtractAttrs(&x, 0)
	require.NoError(t, err)
	assert.Equal(t, "id", attrs.ID)
	v, ok := attrs.Get("tag")
	require.True(t, ok)
	assert.Equal(t, "a}b", v)
	assert.Empty(t, x)
}

func TestExtractAttrs_QuotedTokensMaterialized(t *testing.T) {
	// Upstream tokenization can turn "..." into a Quoted token; the scan
	// must restore the quote marks so the value parses intact.
	x := ast.InlineList{
		ast.Str("{tag="),
		{Tag: ast.TagQuoted, QuoteType: ast.DoubleQuote, Inlines: ast.InlineList{ast.Str("two words")}},
		ast.Str("}"),
	}

	attrs, err := ExtractAttrs(&x, 0)
	require.NoError(t, err)
	v, ok := attrs.Get("tag")
	require.True(t, ok)
	assert.Equal(t, "two words", v)
}

func TestExtractAttrs_NotFound(t *testing.T) {
	tests := []struct {
		name string
		x    ast.InlineList
		n    int
	}{
		{"index out of range", ast.InlineList{ast.Str("x")}, 5},
		{"negative index", ast.InlineList{ast.Str("x")}, -1},
		{"not a Str", ast.InlineList{ast.Space()}, 0},
		{"no opening brace", ast.InlineList{ast.Str("plain")}, 0},
		{"unclosed block", ast.InlineList{ast.Str("{#id"), ast.Space(), ast.Str(".cls")}, 0},
		{"brace only inside quotes", ast.InlineList{ast.Str(`{tag="}"`)}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append(ast.InlineList{}, tt.x...)
			_, err := ExtractAttrs(&tt.x, tt.n)
			assert.ErrorIs(t, err, ErrAttributesNotFound)
			assert.Equal(t, before, tt.x, "failed scans must not mutate the list")
		})
	}
}

func TestExtractAttrs_MalformedStillParses(t *testing.T) {
	x := ast.InlineList{ast.Str("{#id =broken}")}

	attrs, err := ExtractAttrs(&x, 0)
	require.NoError(t, err)
	assert.True(t, attrs.ParseFailed)
	assert.Equal(t, "id", attrs.ID)
}
