// Package mdconv converts markdown and HTML sources into the token model
// in pkg/ast. It exists for the inspect command and for building test
// fixtures without hand-writing pandoc JSON; it covers the common block and
// inline constructs, not the full markdown surface.
package mdconv

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/open-doc-collective/refnum/pkg/ast"
	"github.com/open-doc-collective/refnum/pkg/attr"
)

// mdParser is a pre-configured goldmark instance. Heading attributes are
// enabled so `# Title {#sec:intro}` carries its identifier.
var mdParser = goldmark.New(
	goldmark.WithParserOptions(parser.WithHeadingAttribute()),
)

// citePattern matches an in-text citation: @ followed by an optional
// namespace prefix and a label. Trailing punctuation stays outside the id.
var citePattern = regexp.MustCompile(`@((?:[\w-]+:)?[\w/-]+)`)

// FromMarkdown parses markdown source into block tokens.
func FromMarkdown(src []byte) ([]*ast.Block, error) {
	root := mdParser.Parser().Parse(text.NewReader(src))
	return convertBlocks(root, src)
}

func convertBlocks(parent gast.Node, src []byte) ([]*ast.Block, error) {
	var blocks []*ast.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		b, err := convertBlock(n, src)
		if err != nil {
			return nil, err
		}
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

func convertBlock(n gast.Node, src []byte) (*ast.Block, error) {
	switch v := n.(type) {
	case *gast.Heading:
		inlines, err := convertInlines(v, src)
		if err != nil {
			return nil, err
		}
		return ast.Header(v.Level, headingAttrs(v), inlines), nil
	case *gast.Paragraph:
		inlines, err := convertInlines(v, src)
		if err != nil {
			return nil, err
		}
		return ast.Para(inlines), nil
	case *gast.TextBlock:
		inlines, err := convertInlines(v, src)
		if err != nil {
			return nil, err
		}
		return ast.Plain(inlines), nil
	case *gast.Blockquote:
		children, err := convertBlocks(v, src)
		if err != nil {
			return nil, err
		}
		return &ast.Block{Tag: ast.TagBlockQuote, Blocks: children}, nil
	case *gast.FencedCodeBlock:
		b := &ast.Block{Tag: ast.TagCodeBlock, Attrs: attr.New(), Text: blockLines(v, src)}
		if lang := v.Language(src); lang != nil {
			b.Attrs.Classes = append(b.Attrs.Classes, string(lang))
		}
		return b, nil
	case *gast.CodeBlock:
		return &ast.Block{Tag: ast.TagCodeBlock, Attrs: attr.New(), Text: blockLines(v, src)}, nil
	case *gast.HTMLBlock:
		raw := blockLines(v, src)
		if v.HasClosure() {
			raw += string(v.ClosureLine.Value(src))
		}
		return ast.RawBlock("html", strings.TrimRight(raw, "\n")), nil
	case *gast.ThematicBreak:
		return ast.RawBlock("html", "<hr />"), nil
	default:
		return nil, fmt.Errorf("mdconv: unsupported block node %s", n.Kind())
	}
}

func blockLines(n gast.Node, src []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		sb.Write(seg.Value(src))
	}
	return sb.String()
}

func headingAttrs(v *gast.Heading) *attr.Set {
	attrs := attr.New()
	for _, a := range v.Attributes() {
		val, ok := a.Value.([]byte)
		if !ok {
			continue
		}
		switch string(a.Name) {
		case "id":
			attrs.ID = string(val)
		case "class":
			attrs.Classes = append(attrs.Classes, strings.Fields(string(val))...)
		default:
			attrs.Set(string(a.Name), string(val))
		}
	}
	return attrs
}

func convertInlines(parent gast.Node, src []byte) (ast.InlineList, error) {
	var out ast.InlineList
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch v := n.(type) {
		case *gast.Text:
			out = append(out, tokenizeText(string(v.Segment.Value(src)))...)
			if v.HardLineBreak() {
				out = append(out, &ast.Inline{Tag: ast.TagLineBreak})
			} else if v.SoftLineBreak() {
				out = append(out, &ast.Inline{Tag: ast.TagSoftBreak})
			}
		case *gast.String:
			out = append(out, tokenizeText(string(v.Value))...)
		case *gast.Emphasis:
			children, err := convertInlines(v, src)
			if err != nil {
				return nil, err
			}
			tag := ast.TagEmph
			if v.Level == 2 {
				tag = ast.TagStrong
			}
			out = append(out, &ast.Inline{Tag: tag, Inlines: children})
		case *gast.CodeSpan:
			out = append(out, &ast.Inline{Tag: ast.TagCode, Attrs: attr.New(), Text: string(v.Text(src))})
		case *gast.Link:
			children, err := convertInlines(v, src)
			if err != nil {
				return nil, err
			}
			out = append(out, ast.Link(children, string(v.Destination), string(v.Title)))
		case *gast.Image:
			children, err := convertInlines(v, src)
			if err != nil {
				return nil, err
			}
			out = append(out, &ast.Inline{
				Tag:     ast.TagImage,
				Attrs:   attr.New(),
				Inlines: children,
				URL:     string(v.Destination),
				Title:   string(v.Title),
			})
		case *gast.RawHTML:
			var sb strings.Builder
			for i := 0; i < v.Segments.Len(); i++ {
				seg := v.Segments.At(i)
				sb.Write(seg.Value(src))
			}
			out = append(out, ast.RawInline("html", sb.String()))
		case *gast.AutoLink:
			url := string(v.URL(src))
			out = append(out, ast.Link(ast.InlineList{ast.Str(url)}, url, ""))
		default:
			return nil, fmt.Errorf("mdconv: unsupported inline node %s", n.Kind())
		}
	}
	return out, nil
}

// tokenizeText splits a text run into Str and Space tokens the way pandoc
// does, turning @label words into single-record citations.
func tokenizeText(s string) ast.InlineList {
	var out ast.InlineList
	words := strings.Split(s, " ")
	for i, w := range words {
		if i > 0 {
			out = append(out, ast.Space())
		}
		if w == "" {
			continue
		}
		out = append(out, tokenizeWord(w)...)
	}
	return out
}

func tokenizeWord(w string) ast.InlineList {
	loc := citePattern.FindStringIndex(w)
	if loc == nil {
		return ast.InlineList{ast.Str(w)}
	}
	var out ast.InlineList
	if loc[0] > 0 {
		out = append(out, ast.Str(w[:loc[0]]))
	}
	out = append(out, ast.SingleCite(w[loc[0]+1:loc[1]]))
	if loc[1] < len(w) {
		out = append(out, tokenizeWord(w[loc[1]:])...)
	}
	return out
}
