package refs

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// newTestContext builds a verbose context with a captured warning stream.
func newTestContext(t *testing.T, version string) (*Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	c, err := NewContext(version, Options{
		WarningLevel: WarnVerbose,
		Diagnostics:  &buf,
	})
	require.NoError(t, err)
	return c, &buf
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		input string
		want  Version
		ok    bool
	}{
		{"1.17.2", Version{1, 17, 2}, true},
		{"2.11", Version{2, 11}, true},
		{"2.14.0.3", Version{2, 14, 0, 3}, true},
		{"3.1", Version{3, 1}, true},
		{"0.9", nil, false},
		{"4.0", nil, false},
		{"2", nil, false},
		{"junk", nil, false},
		{"", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := ParseVersion(tt.input)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestVersion_Before(t *testing.T) {
	v := Version{2, 10}
	assert.True(t, v.Before(Version{2, 11}))
	assert.True(t, v.Before(Version{3, 0}))
	assert.False(t, v.Before(Version{2, 10}))
	assert.False(t, v.Before(Version{1, 19}))
	assert.True(t, Version{2, 10}.Before(Version{2, 10, 1}))
}

func TestConventionsFor(t *testing.T) {
	tests := []struct {
		version     string
		repairLinks bool
		caption     tableLayout
	}{
		{"1.16", true, tableLegacy},
		{"1.17.2", true, tableLegacy},
		{"1.18", false, tableLegacy},
		{"2.9", false, tableLegacy},
		{"2.10.1", false, tableTwoTen},
		{"2.11", false, tableModern},
		{"3.1.9", false, tableModern},
	}

	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			v, err := ParseVersion(tt.version)
			require.NoError(t, err)
			conv := conventionsFor(v)
			assert.Equal(t, tt.repairLinks, conv.repairLinks)
			assert.Equal(t, tt.caption, conv.tableCaption)
		})
	}
}

func TestContext_Uninitialized(t *testing.T) {
	var c *Context
	assert.ErrorIs(t, c.RepairRefs(nil), ErrUninitialized)
	assert.ErrorIs(t, (&Context{}).ProcessRefs(nil, ProcessOpts{}), ErrUninitialized)
}

func TestContext_WarnLevels(t *testing.T) {
	var buf bytes.Buffer
	c, err := NewContext("2.11", Options{
		FilterName:   "test",
		WarningLevel: WarnCritical,
		Diagnostics:  &buf,
	})
	require.NoError(t, err)

	c.warnf(WarnCritical, "critical %d", 1)
	c.warnf(WarnVerbose, "verbose")

	assert.Equal(t, "test: critical 1\n", buf.String())
}

func TestContext_WarnOnceDeduplicates(t *testing.T) {
	c, buf := newTestContext(t, "2.11")

	c.warnOnce("k", WarnCritical, "once")
	c.warnOnce("k", WarnCritical, "once")
	c.warnOnce("other", WarnCritical, "twice")

	assert.Equal(t, "refnum: once\nrefnum: twice\n", buf.String())
}

func TestQueueRawBlock_DedupesAndInserts(t *testing.T) {
	c, _ := newTestContext(t, "2.11")

	aux := ast.RawBlock("tex", auxMarker+" test\nbody")
	c.QueueRawBlock(aux)
	c.QueueRawBlock(ast.RawBlock("tex", auxMarker+" test\nbody"))

	blocks := []*ast.Block{ast.Para(ast.InlineList{ast.Str("x")})}
	out, err := c.InsertRawBlocks(blocks)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, ast.TagRawBlock, out[0].Tag)
	assert.Equal(t, ast.TagPara, out[1].Tag)
}

func TestInsertRawBlocks_IdempotentAcrossRuns(t *testing.T) {
	c, _ := newTestContext(t, "2.11")

	aux := ast.RawBlock("tex", auxMarker+" test\nbody")
	c.QueueRawBlock(aux)
	blocks, err := c.InsertRawBlocks([]*ast.Block{ast.Para(ast.InlineList{ast.Str("x")})})
	require.NoError(t, err)

	// Second run over the already-processed document: the same block is
	// queued again, recognized, and dropped.
	c2, _ := newTestContext(t, "2.11")
	c2.QueueRawBlock(ast.RawBlock("tex", auxMarker+" test\nbody"))
	out, err := c2.InsertRawBlocks(blocks)
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestAddToHeaderIncludes(t *testing.T) {
	c, _ := newTestContext(t, "2.11")
	overlap := regexp.MustCompile(`\\usepackage\{cleveref\}`)

	meta := ast.Meta{}
	require.NoError(t, c.AddToHeaderIncludes(meta, "tex", `\usepackage{cleveref}`, overlap))
	require.Contains(t, meta, "header-includes")
	assert.Equal(t, ast.MetaBlocks, meta["header-includes"].Tag)

	// Second add is suppressed by the overlap pattern.
	require.NoError(t, c.AddToHeaderIncludes(meta, "tex", `\usepackage{cleveref}`, overlap))
	assert.Equal(t, ast.MetaBlocks, meta["header-includes"].Tag)
	assert.Len(t, meta["header-includes"].Blocks, 1)
}

func TestAddToHeaderIncludes_MergesWithExisting(t *testing.T) {
	c, _ := newTestContext(t, "2.11")

	meta := ast.Meta{
		"header-includes": {
			Tag:     ast.MetaInlines,
			Inlines: ast.InlineList{ast.Str(`\usepackage{graphicx}`)},
		},
	}
	require.NoError(t, c.AddToHeaderIncludes(meta, "tex", `\usepackage{cleveref}`,
		regexp.MustCompile(`\\usepackage\{cleveref\}`)))

	hi := meta["header-includes"]
	require.Equal(t, ast.MetaList, hi.Tag)
	assert.Len(t, hi.List, 2)
}
