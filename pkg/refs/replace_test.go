package refs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
)

// processedCite is a citation the processor has already normalized.
func processedCite(label string, kvs ...string) *ast.Inline {
	in := ast.SingleCite(label)
	in.Attrs = attr.New()
	for i := 0; i+1 < len(kvs); i += 2 {
		in.Attrs.Set(kvs[i], kvs[i+1])
	}
	return in
}

func figOpts(format string) ReplaceOpts {
	return ReplaceOpts{
		Targets: map[string]Target{
			"fig:one": {Num: "1", SecNo: 1},
			"fig:two": {Num: "2", SecNo: 2},
			"fig:dup": {Num: "3", SecNo: 1, HasDuplicate: true},
		},
		Format:   format,
		PlusName: [2]string{"fig.", "figs."},
		StarName: [2]string{"Figure", "Figures"},
	}
}

func TestReplaceRefs_TexPlain(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("latex")))

	x := blocks[0].Inlines
	require.Len(t, x, 1)
	assert.Equal(t, ast.TagRawInline, x[0].Tag)
	assert.Equal(t, "tex", x[0].Format)
	assert.Equal(t, `\ref{fig:one}`, x[0].Text)
}

func TestReplaceRefs_TexModifiers(t *testing.T) {
	tests := []struct {
		name string
		mod  string
		want string
	}{
		{"plus gives cref", "+", `\cref{fig:one}`},
		{"star gives Cref", "*", `\Cref{fig:one}`},
		{"bang suppresses clever", "!", `\ref{fig:one}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestContext(t, "2.11")
			blocks := paraDoc(processedCite("fig:one", ModifierKey, tt.mod))

			require.NoError(t, c.ReplaceRefs(blocks, figOpts("latex")))
			assert.Equal(t, tt.want, blocks[0].Inlines[0].Text)
		})
	}
}

func TestReplaceRefs_TexEqref(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := ReplaceOpts{
		Targets:  map[string]Target{"eq:e": {Num: "1"}},
		Format:   "latex",
		UseEqref: true,
		PlusName: [2]string{"eq.", "eqs."},
		StarName: [2]string{"Equation", "Equations"},
	}
	blocks := paraDoc(processedCite("eq:e"))

	require.NoError(t, c.ReplaceRefs(blocks, opts))
	assert.Equal(t, `\eqref{eq:e}`, blocks[0].Inlines[0].Text)
}

func TestReplaceRefs_TexNolink(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one", "nolink", "True"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("latex")))
	assert.Equal(t,
		`{\protect\NoHyper\ref{fig:one}\protect\endNoHyper}`,
		blocks[0].Inlines[0].Text)
}

func TestReplaceRefs_HTMLLink(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))

	x := blocks[0].Inlines
	require.Len(t, x, 1)
	require.Equal(t, ast.TagLink, x[0].Tag)
	assert.Equal(t, "#fig:one", x[0].URL)
	require.Len(t, x[0].Inlines, 1)
	assert.Equal(t, "1", x[0].Inlines[0].Text)
}

func TestReplaceRefs_HTMLClever(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one", ModifierKey, "+"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))

	x := blocks[0].Inlines
	require.Len(t, x, 2)
	assert.Equal(t, "fig. ", x[0].Text, "name and number joined by nbsp")
	assert.Equal(t, ast.TagLink, x[1].Tag)
}

func TestReplaceRefs_StarUsesStarName(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one", ModifierKey, "*"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))
	assert.Equal(t, "Figure ", blocks[0].Inlines[0].Text)
}

func TestReplaceRefs_EpubAnchorsCarryChapterFile(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:two"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("epub3")))
	assert.Equal(t, "ch002.xhtml#fig:two", blocks[0].Inlines[0].URL)
}

func TestReplaceRefs_PlainFormatHasNoLink(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("plain")))

	x := blocks[0].Inlines
	require.Len(t, x, 1)
	assert.Equal(t, ast.TagStr, x[0].Tag)
	assert.Equal(t, "1", x[0].Text)
}

func TestReplaceRefs_NolinkSuppressesHyperlink(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	blocks := paraDoc(processedCite("fig:one", "nolink", "true"))

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))
	assert.Equal(t, ast.TagStr, blocks[0].Inlines[0].Tag)
}

func TestReplaceRefs_UnresolvedWarnsOnce(t *testing.T) {
	c, buf := newTestContext(t, "2.11")
	blocks := paraDoc(
		processedCite("fig:ghost"),
		ast.Space(),
		processedCite("fig:ghost"),
	)

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))

	assert.Equal(t, "??", blocks[0].Inlines[0].Text)
	assert.Equal(t, "??", blocks[0].Inlines[2].Text)
	assert.Equal(t, 1, strings.Count(buf.String(), "unresolved reference"))
}

func TestReplaceRefs_DuplicateWarnsEveryTime(t *testing.T) {
	c, buf := newTestContext(t, "2.11")
	blocks := paraDoc(
		processedCite("fig:dup"),
		ast.Space(),
		processedCite("fig:dup"),
	)

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))
	assert.Equal(t, 2, strings.Count(buf.String(), "duplicate"))
}

func TestReplaceRefs_BracketedCitationBecomesSpan(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	cite := ast.Cite([]*ast.Citation{{
		ID:     "fig:one",
		Prefix: ast.InlineList{ast.Str("see")},
		Suffix: ast.InlineList{ast.Str(" here")},
		Mode:   ast.NormalCitation,
	}}, ast.InlineList{ast.Str("[see @fig:one here]")})
	cite.Attrs = attr.New()
	blocks := paraDoc(cite)

	require.NoError(t, c.ReplaceRefs(blocks, figOpts("html")))

	x := blocks[0].Inlines
	require.Len(t, x, 1)
	require.Equal(t, ast.TagSpan, x[0].Tag)
	assert.Nil(t, x[0].Attrs, "span waits for attributes")

	children := x[0].Inlines
	require.Len(t, children, 4)
	assert.Equal(t, "see", children[0].Text)
	assert.Equal(t, ast.TagSpace, children[1].Tag)
	assert.Equal(t, ast.TagLink, children[2].Tag)
	assert.Equal(t, " here", children[3].Text)
}

func TestReplaceRefs_AllowImplicit(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := ReplaceOpts{
		Targets:       map[string]Target{"intro": {Num: "1.2"}},
		Format:        "html",
		AllowImplicit: true,
		PlusName:      [2]string{"sec.", "secs."},
		StarName:      [2]string{"Section", "Sections"},
	}
	blocks := paraDoc(processedCite("sec:intro"))

	require.NoError(t, c.ReplaceRefs(blocks, opts))
	assert.Equal(t, "1.2", blocks[0].Inlines[0].Inlines[0].Text)
}

func TestReplaceRefs_FakeCleverefQueuedOnce(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := figOpts("latex")
	opts.UseCleveref = true
	opts.FakeCleveref = true
	blocks := []*ast.Block{
		ast.Para(ast.InlineList{processedCite("fig:one"), ast.Space(), processedCite("fig:two")}),
	}

	require.NoError(t, c.ReplaceRefs(blocks, opts))
	assert.True(t, c.CleverefNeeded)

	x := blocks[0].Inlines
	assert.Equal(t, `\protect\xrefname{fig.}\cref{fig:one}`, x[0].Text)
	assert.Equal(t, `\protect\xrefname{fig.}\cref{fig:two}`, x[2].Text)

	out, err := c.InsertRawBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, out, 2, "fallback definitions inserted exactly once")
	assert.True(t, strings.HasPrefix(out[0].Text, auxMarker))
	assert.Contains(t, out[0].Text, `\providecommand{\cref}`)
}

func TestReplaceRefs_FakeCleverefSharedAcrossKinds(t *testing.T) {
	c, _ := newTestContext(t, "2.11")

	figureOpts := figOpts("latex")
	figureOpts.UseCleveref = true
	figureOpts.FakeCleveref = true
	tblOpts := ReplaceOpts{
		Targets:      map[string]Target{"tbl:one": {Num: "1"}},
		Format:       "latex",
		UseCleveref:  true,
		FakeCleveref: true,
		PlusName:     [2]string{"table", "tables"},
		StarName:     [2]string{"Table", "Tables"},
	}

	figPara := ast.Para(ast.InlineList{processedCite("fig:one")})
	tblPara := ast.Para(ast.InlineList{processedCite("tbl:one")})
	blocks := []*ast.Block{figPara, tblPara}

	require.NoError(t, c.ReplaceRefs([]*ast.Block{figPara}, figureOpts))
	require.NoError(t, c.ReplaceRefs([]*ast.Block{tblPara}, tblOpts))

	out, err := c.InsertRawBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, out, 3, "one fallback block serves both kinds")
	assert.NotContains(t, out[0].Text, "fig.", "definitions carry no names")
	assert.Equal(t, `\protect\xrefname{fig.}\cref{fig:one}`, out[1].Inlines[0].Text)
	assert.Equal(t, `\protect\xrefname{table}\cref{tbl:one}`, out[2].Inlines[0].Text)
}

func TestReplaceRefs_FakeCleverefStarUsesXrefname(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := figOpts("latex")
	opts.FakeCleveref = true
	blocks := paraDoc(processedCite("fig:one", ModifierKey, "*"))

	require.NoError(t, c.ReplaceRefs(blocks, opts))
	assert.Equal(t, `\protect\Xrefname{Figure}\Cref{fig:one}`, blocks[0].Inlines[0].Text)
}

func TestInsertRawBlocks_RecognizesEarlierFallback(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := figOpts("latex")
	opts.UseCleveref = true
	opts.FakeCleveref = true

	para := ast.Para(ast.InlineList{processedCite("fig:one")})
	blocks := []*ast.Block{ast.RawBlock("tex", cleverefFallback), para}

	require.NoError(t, c.ReplaceRefs(blocks, opts))

	out, err := c.InsertRawBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, out, 2, "existing fallback block is not duplicated")
	assert.Equal(t, ast.TagRawBlock, out[0].Tag)
	assert.Equal(t, ast.TagPara, out[1].Tag)
}

func TestReplaceRefs_DefaultCleverSetsFlag(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	opts := figOpts("latex")
	opts.UseCleveref = true
	blocks := paraDoc(processedCite("fig:one"))

	require.NoError(t, c.ReplaceRefs(blocks, opts))
	assert.True(t, c.CleverefNeeded)
	assert.Equal(t, `\cref{fig:one}`, blocks[0].Inlines[0].Text)
}
