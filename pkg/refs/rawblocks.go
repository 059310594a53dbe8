// rawblocks.go queues and places auxiliary raw blocks, such as the
// cleveref fallback macro definitions.
package refs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// auxMarker is the leading marker every auxiliary block carries, so
// repeated runs recognize and do not duplicate them.
const auxMarker = "%% refnum:"

// cleverefFallback fakes the minimal \cref and \Cref behavior for
// documents that do not load the cleveref package. The macros carry no
// reference names; each \cref invocation is preceded by \xrefname (or
// \Xrefname) to set the name, so one block serves every reference kind.
const cleverefFallback = auxMarker + ` cleveref fallback
\newcommand{\plusnamesingular}{}
\newcommand{\starnamesingular}{}
\newcommand{\xrefname}[1]{\protect\renewcommand{\plusnamesingular}{#1}}
\newcommand{\Xrefname}[1]{\protect\renewcommand{\starnamesingular}{#1}}
\providecommand{\cref}{\plusnamesingular~\ref}
\providecommand{\Cref}{\starnamesingular~\ref}
\providecommand{\crefformat}[2]{}
\providecommand{\Crefformat}[2]{}
`

// queueCleverefFallback queues the fallback definitions once per document.
func (c *Context) queueCleverefFallback() {
	c.QueueRawBlock(ast.RawBlock("tex", cleverefFallback))
}

// QueueRawBlock queues an auxiliary block for the next InsertRawBlocks
// call. Blocks already queued with identical content are skipped.
func (c *Context) QueueRawBlock(block *ast.Block) {
	for _, p := range c.pending {
		if p.Format == block.Format && p.Text == block.Text {
			return
		}
	}
	c.pending = append(c.pending, block)
}

// InsertRawBlocks places the queued auxiliary blocks immediately before
// the first content block that is not itself an auxiliary block. Queued
// blocks already present in the document are dropped, which makes repeated
// runs of the pipeline idempotent. Returns the updated block list.
func (c *Context) InsertRawBlocks(blocks []*ast.Block) ([]*ast.Block, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if len(c.pending) == 0 {
		return blocks, nil
	}

	i := 0
	for i < len(blocks) && isAuxBlock(blocks[i]) {
		c.dropIfPresent(blocks[i])
		i++
	}

	out := make([]*ast.Block, 0, len(blocks)+len(c.pending))
	out = append(out, blocks[:i]...)
	out = append(out, c.pending...)
	out = append(out, blocks[i:]...)
	c.pending = nil
	return out, nil
}

// isAuxBlock recognizes auxiliary blocks by their leading marker.
func isAuxBlock(b *ast.Block) bool {
	return b.Tag == ast.TagRawBlock && strings.HasPrefix(b.Text, auxMarker)
}

// dropIfPresent removes a queued block that already exists in the document.
func (c *Context) dropIfPresent(existing *ast.Block) {
	for i, p := range c.pending {
		if p.Format == existing.Format && p.Text == existing.Text {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// AddToHeaderIncludes appends a raw block to the document's
// header-includes metadata, unless overlap already matches the existing
// header-includes text (so repeated runs do not stack duplicates).
func (c *Context) AddToHeaderIncludes(meta ast.Meta, format, text string, overlap *regexp.Regexp) error {
	if err := c.check(); err != nil {
		return err
	}

	existing, has := meta["header-includes"]
	if has && overlap != nil && overlap.MatchString(metaText(existing)) {
		return nil
	}

	blocks := &ast.MetaValue{
		Tag:    ast.MetaBlocks,
		Blocks: []*ast.Block{ast.RawBlock(format, text)},
	}

	switch {
	case !has:
		meta["header-includes"] = blocks
	case existing.Tag == ast.MetaBlocks || existing.Tag == ast.MetaInlines:
		meta["header-includes"] = &ast.MetaValue{
			Tag:  ast.MetaList,
			List: []*ast.MetaValue{existing, blocks},
		}
	case existing.Tag == ast.MetaList:
		existing.List = append(existing.List, blocks)
	default:
		return fmt.Errorf("refs: header-includes metadata cannot be extended (%s)", existing.Tag)
	}

	c.warnf(WarnVerbose, "added to header-includes:\n%s", text)
	return nil
}

// metaText flattens a metadata value to searchable text.
func metaText(v *ast.MetaValue) string {
	if v == nil {
		return ""
	}
	var sb strings.Builder
	switch v.Tag {
	case ast.MetaString:
		sb.WriteString(v.Text)
	case ast.MetaInlines:
		sb.WriteString(ast.Stringify(v.Inlines))
	case ast.MetaBlocks:
		for _, b := range v.Blocks {
			sb.WriteString(b.Text)
			sb.WriteString(ast.Stringify(b.Inlines))
		}
	case ast.MetaList:
		for _, item := range v.List {
			sb.WriteString(metaText(item))
		}
	}
	return sb.String()
}
