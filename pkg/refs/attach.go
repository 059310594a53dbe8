// attach.go attaches and detaches attribute sets on elements that pandoc
// leaves unattributed.
package refs

import (
	"github.com/open-doc-collective/refnum/pkg/ast"
)

// ElementKind names the element kind an attach/detach pass operates on.
type ElementKind string

// Element kinds with meaningful attach/detach behavior. Math and Cite
// carry only synthetic attributes; Image and Span attributes are native
// and can be replaced in place.
const (
	KindMath  ElementKind = ast.TagMath
	KindCite  ElementKind = ast.TagCite
	KindImage ElementKind = ast.TagImage
	KindSpan  ElementKind = ast.TagSpan
)

// AttachOpts configures AttachAttrs.
type AttachOpts struct {
	// AllowSpace permits one Space token between the element and its
	// attribute block.
	AllowSpace bool
	// Replace overwrites attributes the element already carries.
	Replace bool
}

// AttachAttrs scans paragraph and plain blocks for elements of the given
// kind followed by a {...} attribute block and attaches the parsed set to
// the element. Elements that already carry attributes are skipped unless
// opts.Replace is set. Malformed attribute strings are attached anyway and
// reported on the diagnostic stream.
//
// A span left by the reference replacer that receives no attributes is
// unwrapped back into its bracketed text.
//
// A paragraph reduced to exactly one attributed image is marked as a
// figure (pandoc's "fig:" title convention).
func (c *Context) AttachAttrs(blocks []*ast.Block, kind ElementKind, opts AttachOpts) error {
	if err := c.check(); err != nil {
		return err
	}
	for _, b := range blocks {
		switch b.Tag {
		case ast.TagPara, ast.TagPlain:
			c.attachList(&b.Inlines, kind, opts)
			if err := c.attachNotes(b.Inlines, kind, opts); err != nil {
				return err
			}
			if b.Tag == ast.TagPara && len(b.Inlines) == 1 &&
				b.Inlines[0].Tag == ast.TagImage {
				b.Inlines[0].Title = "fig:"
			}
		case ast.TagDiv, ast.TagBlockQuote:
			if err := c.AttachAttrs(b.Blocks, kind, opts); err != nil {
				return err
			}
		case ast.TagBulletList, ast.TagOrderedList:
			for _, item := range b.ListItems {
				if err := c.AttachAttrs(item, kind, opts); err != nil {
					return err
				}
			}
		case ast.TagDefinitionList:
			for _, d := range b.Definitions {
				c.attachList(&d.Term, kind, opts)
				for _, def := range d.Definitions {
					if err := c.AttachAttrs(def, kind, opts); err != nil {
						return err
					}
				}
			}
		case ast.TagLineBlock:
			for i := range b.Lines {
				c.attachList(&b.Lines[i], kind, opts)
			}
		}
	}
	return nil
}

// attachNotes descends into footnote content, which hangs off inline
// tokens rather than the block tree.
func (c *Context) attachNotes(x ast.InlineList, kind ElementKind, opts AttachOpts) error {
	for _, in := range x {
		if len(in.Blocks) > 0 {
			if err := c.AttachAttrs(in.Blocks, kind, opts); err != nil {
				return err
			}
		}
		if err := c.attachNotes(in.Inlines, kind, opts); err != nil {
			return err
		}
	}
	return nil
}

// attachList runs the attach scan to quiescence on one list.
func (c *Context) attachList(x *ast.InlineList, kind ElementKind, opts AttachOpts) {
	for {
		if !c.attachOnce(x, kind, opts) {
			return
		}
	}
}

func (c *Context) attachOnce(x *ast.InlineList, kind ElementKind, opts AttachOpts) bool {
	for i := 0; i < len(*x); i++ {
		v := (*x)[i]
		if v.Tag != string(kind) {
			continue
		}
		if v.Attrs != nil && !v.Attrs.IsEmpty() && !opts.Replace {
			continue
		}

		n := i + 1
		if opts.AllowSpace && n < len(*x) && (*x)[n].Tag == ast.TagSpace {
			n++
		}

		attrs, err := ExtractAttrs(x, n)
		if err != nil {
			if v.Tag == ast.TagSpan && v.Attrs == nil {
				// The replacer synthesized this span from a bracketed
				// citation, but no attributes followed, so it is not a
				// valid span. Unwrap it back into text.
				unwrapSpan(x, i)
				return true
			}
			continue
		}
		if attrs.ParseFailed {
			c.warnf(WarnCritical, "malformed attributes: %s", attrs.Raw)
		}
		v.Attrs = attrs
		return true
	}
	return false
}

// unwrapSpan replaces the span at index i with its bracketed children.
func unwrapSpan(x *ast.InlineList, i int) {
	els := append(ast.InlineList{ast.Str("[")}, (*x)[i].Inlines...)
	els = append(els, ast.Str("]"))
	x.Replace(i, els...)
	ast.JoinStrings(x, 0)
}

// DetachAttrs removes the synthetic attribute sets from elements of the
// given kind everywhere in the tree. Pandoc does not understand attributed
// Math or Cite elements, so this must run before the document is written
// out (unless the replacer has already consumed them). With restore set,
// the attributes reappear as literal markdown text after the element.
func (c *Context) DetachAttrs(blocks []*ast.Block, kind ElementKind, restore bool) error {
	if err := c.check(); err != nil {
		return err
	}
	c.walkAllLists(blocks, func(x *ast.InlineList) {
		for i := 0; i < len(*x); i++ {
			v := (*x)[i]
			if v.Tag != string(kind) || v.Attrs == nil {
				continue
			}
			attrs := v.Attrs
			v.Attrs = nil
			if restore && !attrs.IsEmpty() {
				x.Insert(i+1, ast.Str(attrs.ToMarkdown()))
				i++
			}
		}
	})
	return nil
}
