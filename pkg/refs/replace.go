// replace.go renders normalized citation tokens into format-specific
// output: TeX macros, hyperlinks, or plain text.
package refs

import (
	"fmt"
	"strings"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// nbsp keeps a clever reference's name glued to its number.
const nbsp = " "

// Target is the externally resolved numbering metadata for one label.
type Target struct {
	// Num is the display value: a number rendered as a string, or a tag.
	// A value of the form "$...$" renders as inline math.
	Num string
	// SecNo is the section the target lives in; used for split-file
	// formats such as epub. Zero means unknown.
	SecNo int
	// HasDuplicate flags that another target claimed the same label.
	HasDuplicate bool
	// Name optionally overrides the clever reference name for this target.
	Name string
}

// ReplaceOpts configures the reference replacer.
type ReplaceOpts struct {
	// Targets maps labels to their resolved numbering.
	Targets map[string]Target
	// Format is the output format tag ("latex", "html", "plain", ...).
	Format string
	// UseCleveref turns on clever referencing for references without an
	// explicit modifier.
	UseCleveref bool
	// UseEqref renders references with \eqref (TeX) or parenthesized
	// numbers (elsewhere).
	UseEqref bool
	// PlusName and StarName give the singular and plural reference names
	// for the '+' and '*' modifiers.
	PlusName [2]string
	StarName [2]string
	// AllowImplicit retries unknown namespaced labels with the bare
	// identifier.
	AllowImplicit bool
	// FakeCleveref emits a one-time block of fallback macro definitions
	// instead of assuming the cleveref package is loaded.
	FakeCleveref bool
}

// texFormats render references as raw TeX.
var texFormats = map[string]bool{"latex": true, "beamer": true}

// linkFormats support hyperlink output. Everything else falls back to
// plain text.
var linkFormats = map[string]bool{
	"html": true, "html4": true, "html5": true,
	"epub": true, "epub2": true, "epub3": true,
	"docx": true, "odt": true,
	"markdown": true, "gfm": true, "commonmark": true,
}

// epubFormats prefix link anchors with their chapter file.
var epubFormats = map[string]bool{"epub": true, "epub2": true, "epub3": true}

// ReplaceRefs replaces every normalized citation (attributes attached and
// exactly one record) with format-specific content resolved through
// opts.Targets. Unresolved labels render as "??" with one warning per
// label; duplicate targets warn on every occurrence.
//
// For TeX formats with clever referencing, auxiliary definitions are
// queued once per document when opts.FakeCleveref is set; call
// InsertRawBlocks afterwards to place them.
func (c *Context) ReplaceRefs(blocks []*ast.Block, opts ReplaceOpts) error {
	if err := c.check(); err != nil {
		return err
	}
	if opts.UseCleveref {
		c.CleverefNeeded = true
	}
	c.walkAllLists(blocks, func(x *ast.InlineList) {
		c.replaceList(x, opts)
	})
	return nil
}

// replaceList splices replacements into x. Replacement content is rescanned
// in place: a square-bracketed citation turns into a span whose children
// may hold further normalized citations from its decorative text. Nested
// lists are reached by walkAllLists, not by recursion here.
func (c *Context) replaceList(x *ast.InlineList, opts ReplaceOpts) {
	for i := 0; i < len(*x); i++ {
		in := (*x)[i]
		if in.Tag == ast.TagCite && in.Attrs != nil && len(in.Citations) == 1 {
			x.Replace(i, c.citeReplacement(in, opts)...)
			i--
		}
	}
}

// citeReplacement renders one normalized citation.
func (c *Context) citeReplacement(cite *ast.Inline, opts ReplaceOpts) []*ast.Inline {
	attrs := cite.Attrs
	ct := cite.Citations[0]

	nolink := false
	if v, ok := attrs.Get("nolink"); ok {
		nolink = strings.EqualFold(v, "true")
	}

	label := ct.ID
	if opts.AllowImplicit && !hasTarget(opts.Targets, label) {
		if i := strings.LastIndex(label, ":"); i >= 0 {
			if bare := label[i+1:]; hasTarget(opts.Targets, bare) {
				label = bare
			}
		}
	}

	target, resolved := opts.Targets[label]
	if resolved && target.HasDuplicate {
		c.warnf(WarnCritical, "referenced label has duplicate: %s", label)
	}

	text := target.Num
	if !resolved {
		text = "??"
		c.warnOnce("unresolved:"+label, WarnCritical, "unresolved reference: @%s", label)
	}

	// An explicit modifier overrides the default clever flag.
	useClever := opts.UseCleveref
	isPlus := opts.UseCleveref
	if mod, ok := attrs.Get(ModifierKey); ok {
		useClever = mod == "*" || mod == "+"
		isPlus = mod == "+"
	}
	refname := opts.StarName[0]
	if isPlus {
		refname = opts.PlusName[0]
	}
	if target.Name != "" {
		refname = target.Name
	}

	var rendered []*ast.Inline
	if texFormats[opts.Format] {
		rendered = []*ast.Inline{c.texReplacement(label, refname, useClever, isPlus, nolink, opts)}
	} else {
		rendered = c.textReplacement(label, text, refname, target, resolved, useClever, nolink, opts)
	}

	// A square-bracket-delimited citation keeps its prefix and suffix,
	// wrapped in a span so attributes can still be attached later. The
	// attributes are deliberately left nil until then.
	display := ast.Stringify(cite.Inlines)
	if strings.HasPrefix(display, "[") && strings.HasSuffix(display, "]") {
		els := append(ast.InlineList{}, ct.Prefix...)
		// The tokenizer strips the space between a prefix and the
		// citation; restore it.
		if p := ast.Stringify(ct.Prefix); p != "" && !strings.HasSuffix(p, "{") &&
			!isModifier(p[len(p)-1]) {
			els = append(els, ast.Space())
		}
		els = append(els, rendered...)
		els = append(els, ct.Suffix...)
		return []*ast.Inline{ast.Span(nil, els)}
	}
	return rendered
}

// texReplacement renders a reference as raw TeX.
func (c *Context) texReplacement(label, refname string, useClever, isPlus, nolink bool, opts ReplaceOpts) *ast.Inline {
	var tex string
	switch {
	case useClever:
		c.CleverefNeeded = true
		if isPlus {
			tex = fmt.Sprintf(`\cref{%s}`, label)
		} else {
			tex = fmt.Sprintf(`\Cref{%s}`, label)
		}
		// The fallback macros carry no names of their own; set the name
		// at each invocation.
		if opts.FakeCleveref {
			c.queueCleverefFallback()
			if isPlus {
				tex = fmt.Sprintf(`\protect\xrefname{%s}`, refname) + tex
			} else {
				tex = fmt.Sprintf(`\protect\Xrefname{%s}`, refname) + tex
			}
		}
	case opts.UseEqref:
		tex = fmt.Sprintf(`\eqref{%s}`, label)
	default:
		tex = fmt.Sprintf(`\ref{%s}`, label)
	}
	if nolink {
		tex = `{\protect\NoHyper` + tex + `\protect\endNoHyper}`
	}
	return ast.RawInline("tex", tex)
}

// textReplacement renders a reference as text, hyperlinked when the format
// supports it.
func (c *Context) textReplacement(label, text, refname string, target Target,
	resolved, useClever, nolink bool, opts ReplaceOpts) []*ast.Inline {

	if opts.UseEqref {
		text = "(" + text + ")"
	}

	var elem *ast.Inline
	if len(text) >= 2 && strings.HasPrefix(text, "$") && strings.HasSuffix(text, "$") {
		elem = ast.Math(ast.InlineMath, text[1:len(text)-1])
	} else {
		elem = ast.Str(text)
	}

	if resolved && !nolink && linkFormats[opts.Format] {
		prefix := ""
		if epubFormats[opts.Format] && target.SecNo > 0 {
			prefix = fmt.Sprintf("ch%03d.xhtml", target.SecNo)
		}
		elem = ast.Link(ast.InlineList{elem}, prefix+"#"+label, "")
	}

	if useClever {
		return []*ast.Inline{ast.Str(refname + nbsp), elem}
	}
	return []*ast.Inline{elem}
}

func hasTarget(targets map[string]Target, label string) bool {
	_, ok := targets[label]
	return ok
}
