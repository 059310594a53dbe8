// scan.go implements the bracket- and quote-aware attribute scanner.
package refs

import (
	"strings"

	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
)

// ExtractAttrs scans the token list x from index n for a balanced {...}
// attribute block, removes the consumed tokens from x, and returns the
// parsed attribute set. Tokens before index n are left unchanged; any text
// glued to the closing brace in the same token is preserved as a new Str
// token after the consumed span.
//
// The scan tracks quote state across Str tokens: a '}' inside single or
// double quotes does not close the block. Non-Str tokens inside the span
// (spaces, quoted text, math) are materialized as literal text in the
// attribute string.
//
// Returns ErrAttributesNotFound if x[n] does not open an attribute block
// or no unquoted '}' appears before the list ends. On failure x is left
// unmodified: the scan is read-only until the closing brace is confirmed.
func ExtractAttrs(x *ast.InlineList, n int) (*attr.Set, error) {
	if n < 0 || n >= len(*x) {
		return nil, ErrAttributesNotFound
	}
	if (*x)[n].Tag != ast.TagStr || !strings.HasPrefix((*x)[n].Text, "{") {
		return nil, ErrAttributesNotFound
	}

	// Find the unquoted closing brace. Read-only scan.
	end, cut := -1, -1
	var quote byte
	for i := n; i < len(*x); i++ {
		v := (*x)[i]
		if v.Tag != ast.TagStr {
			continue
		}
		for j := 0; j < len(v.Text); j++ {
			ch := v.Text[j]
			switch {
			case quote != 0 && ch == quote:
				quote = 0
			case quote == 0 && (ch == '"' || ch == '\''):
				quote = ch
			case quote == 0 && ch == '}':
				end, cut = i, j
			}
			if end >= 0 {
				break
			}
		}
		if end >= 0 {
			break
		}
	}
	if end < 0 {
		return nil, ErrAttributesNotFound
	}

	// Split the closing token at the brace: the head joins the attribute
	// source, the tail survives as its own token.
	head := (*x)[end].Text[:cut+1]
	tail := (*x)[end].Text[cut+1:]

	span := make(ast.InlineList, 0, end-n+1)
	span = append(span, (*x)[n:end]...)
	span = append(span, ast.Str(head))

	var keep ast.InlineList
	if tail != "" {
		keep = ast.InlineList{ast.Str(tail)}
	}
	rest := append(ast.InlineList{}, (*x)[end+1:]...)
	*x = append(append((*x)[:n], keep...), rest...)

	attrstr := strings.TrimSpace(ast.StringifyWith(span, ast.StringifyOpts{
		QuoteMarks:  true,
		MathDollars: true,
	}))
	return attr.ParseMarkdown(attrstr), nil
}
