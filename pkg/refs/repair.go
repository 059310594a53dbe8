// repair.go reassembles references broken apart by the upstream tokenizer.
package refs

import (
	"regexp"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// refPattern splits a reference into prefix, label, and suffix, e.g.
// "xxx{+@fig:1}xxx" -> ("xxx{+", "fig:1", "}xxx"). The prefix and suffix
// may themselves be fragments of other broken references.
var refPattern = regexp.MustCompile(`^((?:.*{)?[*+!-]?)@([^:]*:[\w/-]+)(.*)`)

// RepairRefs undoes a tokenizer artifact: with bare-URI autolinking
// enabled, older pandoc versions split "{@label:id}" at the colon into a
// Link followed by a Str. This pass replaces each such pair with the Cite
// and Str tokens normally produced. It runs to a fixpoint and is
// idempotent; repaired input passes through unchanged.
//
// Whether the artifact can occur at all depends on the tool version; on
// versions that do not autolink bare references this is a no-op.
func (c *Context) RepairRefs(blocks []*ast.Block) error {
	if err := c.check(); err != nil {
		return err
	}
	if !c.conv.repairLinks {
		return nil
	}
	c.eachList(blocks, repairContainers(), func(x *ast.InlineList) {
		repairList(x)
	})
	return nil
}

// isBrokenRef reports whether the adjacent pair (a, b) is a reference
// split into an autolink and a trailing fragment.
func isBrokenRef(a, b *ast.Inline) bool {
	if a.Tag != ast.TagLink || b.Tag != ast.TagStr {
		return false
	}
	// Quoted text inside a real link is not a broken reference.
	if len(a.Inlines) == 0 || a.Inlines[0].Tag != ast.TagStr {
		return false
	}
	return refPattern.MatchString(a.Inlines[0].Text + b.Text)
}

// repairList repairs every broken pair in x. Each rewrite restarts the
// scan from the beginning: insertions and merges shift indices, and a
// prefix or suffix fragment may itself belong to another broken reference
// that only becomes visible afterwards.
func repairList(x *ast.InlineList) {
	for {
		if !repairOnce(x) {
			return
		}
	}
}

// repairOnce rewrites the first broken pair found and reports whether a
// rewrite happened.
func repairOnce(x *ast.InlineList) bool {
	for i := 0; i+1 < len(*x); i++ {
		if !isBrokenRef((*x)[i], (*x)[i+1]) {
			continue
		}

		s := (*x)[i].Inlines[0].Text + (*x)[i+1].Text
		m := refPattern.FindStringSubmatch(s)
		prefix, label, suffix := m[1], m[2], m[3]

		// Insert suffix, reference, and prefix back in this order so the
		// indices stay valid.
		if suffix != "" {
			x.Insert(i+2, ast.Str(suffix))
		}
		(*x)[i+1] = ast.SingleCite(label)
		switch {
		case prefix == "":
			x.Delete(i)
		case i > 0 && (*x)[i-1].Tag == ast.TagStr:
			(*x)[i-1].Text += prefix
			x.Delete(i)
		default:
			(*x)[i] = ast.Str(prefix)
		}
		return true
	}
	return false
}
