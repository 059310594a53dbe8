// process.go normalizes citation tokens whose labels are known: modifiers
// are extracted, decorative braces stripped, and attribute blocks attached.
package refs

import (
	"regexp"
	"strings"

	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
)

// ModifierKey is the synthetic attribute key the extracted modifier is
// stored under.
const ModifierKey = "modifier"

// ProcessOpts configures the reference processor.
type ProcessOpts struct {
	// Labels is the set of known reference labels. A label not found
	// directly is retried with its namespace prefix stripped
	// ("fig:one" -> "one").
	Labels map[string]bool
	// WarnPattern matches labels that look like references. Citations
	// matching it but absent from Labels are left untouched and reported
	// once per distinct label.
	WarnPattern *regexp.Regexp
}

// ProcessRefs scans every reference-bearing container for single-record
// Cite tokens with known labels and normalizes them: the leading modifier
// moves into a synthetic attribute, one layer of surrounding braces is
// stripped, an adjacent {...} block is absorbed, and the resulting
// attribute set is attached to the citation.
//
// The pass is idempotent: a citation that already carries attributes is
// never reprocessed.
func (c *Context) ProcessRefs(blocks []*ast.Block, opts ProcessOpts) error {
	if err := c.check(); err != nil {
		return err
	}
	c.eachList(blocks, processContainers(), func(x *ast.InlineList) {
		c.processList(x, opts)
	})
	return nil
}

// processList runs the scan to quiescence: every normalization can shift
// indices, so the scan restarts after each rewritten citation.
func (c *Context) processList(x *ast.InlineList, opts ProcessOpts) {
	for {
		if !c.processOnce(x, opts) {
			return
		}
	}
}

func (c *Context) processOnce(x *ast.InlineList, opts ProcessOpts) bool {
	for i := 0; i < len(*x); i++ {
		v := (*x)[i]
		if v.Tag != ast.TagCite || v.Attrs != nil || len(v.Citations) != 1 {
			continue
		}

		label, known := matchLabel(v.Citations[0].ID, opts.Labels)
		if !known {
			if opts.WarnPattern != nil && opts.WarnPattern.MatchString(label) {
				c.warnOnce("badref:"+label, WarnCritical, "bad reference: @%s", label)
			}
			continue
		}

		attrs := attr.New()
		i = c.extractModifier(x, i, attrs)
		i = removeBrackets(x, i)
		v = (*x)[i]

		// Pick up an adjacent {...} attribute block, unless the citation
		// already carries a bracketed suffix of its own.
		if len(v.Citations[0].Suffix) == 0 &&
			!strings.HasSuffix(ast.Stringify(v.Inlines), "]") {
			if extra, err := ExtractAttrs(x, i+1); err == nil {
				attrs.Merge(extra)
			}
		}

		v.Attrs = attrs
		return true
	}
	return false
}

// matchLabel resolves a citation id against the known-label set, falling
// back to the bare identifier when the namespaced form is unknown.
func matchLabel(label string, labels map[string]bool) (string, bool) {
	if labels[label] {
		return label, true
	}
	if i := strings.LastIndex(label, ":"); i >= 0 {
		if bare := label[i+1:]; labels[bare] {
			return bare, true
		}
	}
	return label, false
}

// isModifier reports whether ch selects a reference rendering mode.
func isModifier(ch byte) bool {
	return ch == '*' || ch == '+' || ch == '!'
}

// extractModifier trims the modifier character in front of the Cite at
// index i and records it in attrs. The modifier lives either at the end of
// the citation's own prefix or at the end of the preceding sibling Str.
// Returns the (possibly shifted) index of the Cite.
func (c *Context) extractModifier(x *ast.InlineList, i int, attrs *attr.Set) int {
	ct := (*x)[i].Citations[0]

	var s string
	hasPrefix := false
	if n := len(ct.Prefix); n > 0 && ct.Prefix[n-1].Tag == ast.TagStr {
		s = ct.Prefix[n-1].Text
		hasPrefix = true
	} else if i > 0 && (*x)[i-1].Tag == ast.TagStr {
		s = (*x)[i-1].Text
	}
	if s == "" || !isModifier(s[len(s)-1]) {
		return i
	}
	mod := s[len(s)-1]

	if mod == '*' || mod == '+' {
		c.CleverefNeeded = true
	}
	attrs.Set(ModifierKey, string(mod))

	if len(s) > 1 {
		// Lop the modifier off of the source string.
		if hasPrefix {
			ct.Prefix[len(ct.Prefix)-1].Text = s[:len(s)-1]
		} else {
			(*x)[i-1].Text = s[:len(s)-1]
		}
		return i
	}
	// The source token holds only the modifier; drop it.
	if hasPrefix {
		ct.Prefix.Delete(len(ct.Prefix) - 1)
		return i
	}
	x.Delete(i - 1)
	return i - 1
}

// removeBrackets strips one layer of curly brackets surrounding the Cite
// at index i. The citation's own prefix/suffix pair takes precedence over
// sibling tokens. Tokens left empty are deleted. Assumes the modifier has
// already been extracted. Returns the (possibly shifted) index of the Cite.
func removeBrackets(x *ast.InlineList, i int) int {
	ct := (*x)[i].Citations[0]

	if len(ct.Prefix) > 0 && len(ct.Suffix) > 0 {
		pre := ct.Prefix[len(ct.Prefix)-1]
		suf := ct.Suffix[0]
		if pre.Tag == ast.TagStr && suf.Tag == ast.TagStr &&
			strings.HasSuffix(pre.Text, "{") && strings.HasPrefix(suf.Text, "}") {
			if len(suf.Text) > 1 {
				suf.Text = suf.Text[1:]
			} else {
				ct.Suffix.Delete(0)
			}
			if len(pre.Text) > 1 {
				pre.Text = pre.Text[:len(pre.Text)-1]
			} else {
				ct.Prefix.Delete(len(ct.Prefix) - 1)
			}
		}
		return i
	}

	if i == 0 || i+1 >= len(*x) {
		return i
	}
	prev, next := (*x)[i-1], (*x)[i+1]
	if prev.Tag != ast.TagStr || next.Tag != ast.TagStr {
		return i
	}
	if !strings.HasSuffix(prev.Text, "{") || !strings.HasPrefix(next.Text, "}") {
		return i
	}
	if len(next.Text) > 1 {
		next.Text = next.Text[1:]
	} else {
		x.Delete(i + 1)
	}
	if len(prev.Text) > 1 {
		prev.Text = prev.Text[:len(prev.Text)-1]
		return i
	}
	x.Delete(i - 1)
	return i - 1
}
