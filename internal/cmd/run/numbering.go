// numbering.go assigns sequential numbers to reference targets and gives
// labeled equations an anchor in the output.
package run

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/open-doc-collective/refnum/internal/config"
	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
	"github.com/open-doc-collective/refnum/pkg/refs"
)

// collector walks the document in order, numbering every attributed
// element whose id carries a configured prefix.
type collector struct {
	cfg     *config.Config
	targets map[string]map[string]refs.Target

	counters map[string]int
	lastSec  map[string]int
	headers  [6]int
}

// collectTargets numbers the document's reference targets, keyed first by
// prefix and then by label.
func collectTargets(blocks []*ast.Block, cfg *config.Config) map[string]map[string]refs.Target {
	c := &collector{
		cfg:      cfg,
		targets:  make(map[string]map[string]refs.Target),
		counters: make(map[string]int),
		lastSec:  make(map[string]int),
	}
	for key := range cfg.Prefixes {
		c.targets[key] = make(map[string]refs.Target)
	}
	c.walkBlocks(blocks)
	return c.targets
}

func (c *collector) walkBlocks(blocks []*ast.Block) {
	for _, b := range blocks {
		switch b.Tag {
		case ast.TagHeader:
			c.addHeader(b)
		case ast.TagTable:
			if attrs, ok := b.TableAttrs(); ok {
				c.addElement(attrs)
			}
		}
		c.walkInlines(b.Inlines)
		c.walkBlocks(b.Blocks)
		for _, item := range b.ListItems {
			c.walkBlocks(item)
		}
		for _, d := range b.Definitions {
			c.walkInlines(d.Term)
			for _, def := range d.Definitions {
				c.walkBlocks(def)
			}
		}
		for _, line := range b.Lines {
			c.walkInlines(line)
		}
	}
}

func (c *collector) walkInlines(x ast.InlineList) {
	for _, in := range x {
		if in.Attrs != nil {
			c.addElement(in.Attrs)
		}
		c.walkInlines(in.Inlines)
		c.walkBlocks(in.Blocks)
	}
}

// addHeader advances the section counters and registers the header as a
// target when its id carries a configured prefix.
func (c *collector) addHeader(b *ast.Block) {
	if b.Attrs != nil && b.Attrs.HasClass("unnumbered") {
		return
	}
	level := b.Level
	if level < 1 || level > len(c.headers) {
		return
	}
	c.headers[level-1]++
	for i := level; i < len(c.headers); i++ {
		c.headers[i] = 0
	}

	if b.Attrs == nil {
		return
	}
	prefix, label, ok := c.splitLabel(b.Attrs.ID)
	if !ok {
		return
	}
	parts := make([]string, level)
	for i := 0; i < level; i++ {
		parts[i] = strconv.Itoa(c.headers[i])
	}
	c.register(prefix, label, refs.Target{
		Num:   strings.Join(parts, "."),
		SecNo: c.headers[0],
	})
}

// addElement numbers one attributed element. Counters run per prefix and,
// for by-section prefixes, restart at each section boundary.
func (c *collector) addElement(attrs *attr.Set) {
	prefix, label, ok := c.splitLabel(attrs.ID)
	if !ok {
		return
	}

	sec := c.headers[0]
	if v, found := attrs.Get("secno"); found {
		if n, err := strconv.Atoi(v); err == nil {
			sec = n
		}
	}

	p := c.cfg.Prefixes[prefix]
	if p.NumberBySection && sec != c.lastSec[prefix] {
		c.counters[prefix] = 0
		c.lastSec[prefix] = sec
	}
	c.counters[prefix]++

	num := strconv.Itoa(c.counters[prefix])
	if p.NumberBySection {
		num = fmt.Sprintf("%d.%d", sec, c.counters[prefix])
	}
	c.register(prefix, label, refs.Target{Num: num, SecNo: sec})
}

func (c *collector) register(prefix, label string, t refs.Target) {
	if prev, dup := c.targets[prefix][label]; dup {
		prev.HasDuplicate = true
		c.targets[prefix][label] = prev
		return
	}
	c.targets[prefix][label] = t
}

// splitLabel breaks an id like "fig:results" into its prefix and full
// label. Ids without a configured prefix, or with nothing after the colon,
// are not targets.
func (c *collector) splitLabel(id string) (prefix, label string, ok bool) {
	i := strings.Index(id, ":")
	if i <= 0 || i == len(id)-1 {
		return "", "", false
	}
	prefix = id[:i]
	if _, known := c.cfg.Prefixes[prefix]; !known {
		return "", "", false
	}
	return prefix, id, true
}

// anchorEquations gives each labeled equation something a reference can
// point at: a \label inside an equation environment for TeX output, or an
// id-bearing span with the number typeset into the math otherwise.
func anchorEquations(blocks []*ast.Block, format string, targets map[string]refs.Target) {
	isTex := format == "latex" || format == "beamer"
	anchorList := func(x *ast.InlineList) {
		for i, in := range *x {
			if in.Tag != ast.TagMath || in.Attrs == nil {
				continue
			}
			target, ok := targets[in.Attrs.ID]
			if !ok {
				continue
			}
			if isTex {
				(*x)[i] = ast.RawInline("tex",
					`\begin{equation}`+in.Text+`\label{`+in.Attrs.ID+`}\end{equation}`)
				continue
			}
			math := ast.Math(in.MathType, in.Text+`\qquad (`+target.Num+`)`)
			(*x)[i] = ast.Span(&attr.Set{ID: in.Attrs.ID}, ast.InlineList{math})
		}
	}
	eachInlineList(blocks, anchorList)
}

// eachInlineList visits every inline list in the tree, including the lists
// nested in inline containers.
func eachInlineList(blocks []*ast.Block, fn func(x *ast.InlineList)) {
	for _, b := range blocks {
		if len(b.Inlines) > 0 {
			visitInlines(&b.Inlines, fn)
		}
		if len(b.Blocks) > 0 {
			eachInlineList(b.Blocks, fn)
		}
		for _, item := range b.ListItems {
			eachInlineList(item, fn)
		}
		for _, d := range b.Definitions {
			visitInlines(&d.Term, fn)
			for _, def := range d.Definitions {
				eachInlineList(def, fn)
			}
		}
		for i := range b.Lines {
			visitInlines(&b.Lines[i], fn)
		}
	}
}

func visitInlines(x *ast.InlineList, fn func(x *ast.InlineList)) {
	fn(x)
	for _, in := range *x {
		if len(in.Inlines) > 0 {
			visitInlines(&in.Inlines, fn)
		}
		if len(in.Blocks) > 0 {
			eachInlineList(in.Blocks, fn)
		}
	}
}
