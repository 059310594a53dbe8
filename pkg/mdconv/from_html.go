package mdconv

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// FromHTML converts an HTML fragment to block tokens by rendering it to
// markdown first. Constructs that survive the markdown round trip (headings,
// paragraphs, emphasis, links, images, code) come out as typed tokens;
// anything else is lost.
func FromHTML(html string) ([]*ast.Block, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return nil, err
	}
	return FromMarkdown([]byte(strings.TrimSpace(markdown)))
}
