// secnos.go tracks section numbers and stamps them into element attributes.
package refs

import (
	"strconv"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// secnoKey is the attribute key section numbers are stored under.
const secnoKey = "secno"

// InsertSecNos walks the document in order, counting level-1 headers that
// are not marked unnumbered, and prepends the current section number to
// the attributes of every attributed element of the given kind.
func (c *Context) InsertSecNos(blocks []*ast.Block, kind ElementKind) error {
	if err := c.check(); err != nil {
		return err
	}
	c.insertSecNos(blocks, kind)
	return nil
}

func (c *Context) insertSecNos(blocks []*ast.Block, kind ElementKind) {
	for _, b := range blocks {
		if b.Tag == ast.TagHeader {
			if b.Attrs != nil && b.Attrs.HasClass("unnumbered") {
				continue
			}
			if b.Level == 1 {
				c.sec++
			}
			continue
		}
		if b.Tag == ast.TagDiv || b.Tag == ast.TagBlockQuote {
			c.insertSecNos(b.Blocks, kind)
			continue
		}
		for _, item := range b.ListItems {
			c.insertSecNos(item, kind)
		}
		for _, d := range b.Definitions {
			c.stampInlines(&d.Term, kind)
			for _, def := range d.Definitions {
				c.insertSecNos(def, kind)
			}
		}
		for i := range b.Lines {
			c.stampInlines(&b.Lines[i], kind)
		}
		if b.Tag == string(kind) && b.Attrs != nil {
			b.Attrs.Prepend(secnoKey, strconv.Itoa(c.sec))
		}
		c.stampInlines(&b.Inlines, kind)
	}
}

func (c *Context) stampInlines(x *ast.InlineList, kind ElementKind) {
	for _, in := range *x {
		if in.Tag == string(kind) && in.Attrs != nil {
			in.Attrs.Prepend(secnoKey, strconv.Itoa(c.sec))
		}
		if len(in.Inlines) > 0 {
			c.stampInlines(&in.Inlines, kind)
		}
		if len(in.Blocks) > 0 {
			c.insertSecNos(in.Blocks, kind)
		}
	}
}

// DeleteSecNos removes the section numbers InsertSecNos stamped in. Only a
// leading secno entry is removed; user-written secno attributes placed
// elsewhere in the kv list survive.
func (c *Context) DeleteSecNos(blocks []*ast.Block, kind ElementKind) error {
	if err := c.check(); err != nil {
		return err
	}
	c.deleteSecNos(blocks, kind)
	return nil
}

func (c *Context) deleteSecNos(blocks []*ast.Block, kind ElementKind) {
	for _, b := range blocks {
		if b.Tag == ast.TagDiv || b.Tag == ast.TagBlockQuote {
			c.deleteSecNos(b.Blocks, kind)
			continue
		}
		for _, item := range b.ListItems {
			c.deleteSecNos(item, kind)
		}
		for _, d := range b.Definitions {
			c.unstampInlines(&d.Term, kind)
			for _, def := range d.Definitions {
				c.deleteSecNos(def, kind)
			}
		}
		for i := range b.Lines {
			c.unstampInlines(&b.Lines[i], kind)
		}
		if b.Tag == string(kind) && b.Attrs != nil {
			stripLeadingSecno(b)
		}
		c.unstampInlines(&b.Inlines, kind)
	}
}

func (c *Context) unstampInlines(x *ast.InlineList, kind ElementKind) {
	for _, in := range *x {
		if in.Tag == string(kind) && in.Attrs != nil &&
			len(in.Attrs.Kvs) > 0 && in.Attrs.Kvs[0].Key == secnoKey {
			in.Attrs.Kvs = in.Attrs.Kvs[1:]
		}
		if len(in.Inlines) > 0 {
			c.unstampInlines(&in.Inlines, kind)
		}
		if len(in.Blocks) > 0 {
			c.deleteSecNos(in.Blocks, kind)
		}
	}
}

func stripLeadingSecno(b *ast.Block) {
	if len(b.Attrs.Kvs) > 0 && b.Attrs.Kvs[0].Key == secnoKey {
		b.Attrs.Kvs = b.Attrs.Kvs[1:]
	}
}
