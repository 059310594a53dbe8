// Package ast models the pandoc document tree: inline tokens, block
// elements, metadata, and their JSON wire format.
package ast

import (
	"github.com/open-doc-collective/refnum/pkg/attr"
)

// Inline tag names used throughout the package. Tags not listed here are
// carried through the codec untouched.
const (
	TagStr       = "Str"
	TagSpace     = "Space"
	TagSoftBreak = "SoftBreak"
	TagLineBreak = "LineBreak"
	TagEmph      = "Emph"
	TagStrong    = "Strong"
	TagQuoted    = "Quoted"
	TagMath      = "Math"
	TagCode      = "Code"
	TagCite      = "Cite"
	TagLink      = "Link"
	TagImage     = "Image"
	TagSpan      = "Span"
	TagRawInline = "RawInline"
	TagNote      = "Note"
)

// Quote kinds for Quoted inlines.
const (
	DoubleQuote = "DoubleQuote"
	SingleQuote = "SingleQuote"
)

// Math kinds for Math inlines.
const (
	InlineMath  = "InlineMath"
	DisplayMath = "DisplayMath"
)

// Citation modes.
const (
	AuthorInText   = "AuthorInText"
	NormalCitation = "NormalCitation"
	SuppressAuthor = "SuppressAuthor"
)

// Inline is one inline token. Which fields are meaningful depends on Tag:
//
//	Str                 Text
//	Space, SoftBreak,
//	LineBreak           (no payload)
//	Emph, Strong        Inlines
//	Quoted              QuoteType, Inlines
//	Math                MathType, Text
//	Code                Attrs, Text
//	RawInline           Format, Text
//	Link, Image         Attrs, Inlines, URL, Title
//	Span                Attrs, Inlines
//	Cite                Citations, Inlines (display); Attrs when attached
//	Note                Blocks (footnote content)
//	anything else       raw (opaque round-trip)
//
// For Span a nil Attrs is a marker left by the reference replacer: the span
// was synthesized from a square-bracketed citation and has not received
// attributes yet.
type Inline struct {
	Tag       string
	Text      string
	QuoteType string
	MathType  string
	Format    string
	URL       string
	Title     string
	Inlines   InlineList
	Attrs     *attr.Set
	Citations []*Citation
	Blocks    []*Block

	raw rawContent
}

// Citation is one record inside a Cite token.
type Citation struct {
	ID      string
	Prefix  InlineList
	Suffix  InlineList
	Mode    string
	NoteNum int
	Hash    int
}

// InlineList is a mutable ordered sequence of inline tokens. The passes in
// pkg/refs mutate it in place; the slice header is owned by the containing
// block or token.
type InlineList []*Inline

// Insert places els before index i.
func (x *InlineList) Insert(i int, els ...*Inline) {
	*x = append((*x)[:i], append(append(InlineList{}, els...), (*x)[i:]...)...)
}

// Delete removes the token at index i.
func (x *InlineList) Delete(i int) {
	*x = append((*x)[:i], (*x)[i+1:]...)
}

// Replace substitutes the token at index i with els, which may be empty.
func (x *InlineList) Replace(i int, els ...*Inline) {
	rest := append(InlineList{}, (*x)[i+1:]...)
	*x = append(append((*x)[:i], els...), rest...)
}

// Str returns a Str token.
func Str(text string) *Inline { return &Inline{Tag: TagStr, Text: text} }

// Space returns a Space token.
func Space() *Inline { return &Inline{Tag: TagSpace} }

// Math returns an inline math token.
func Math(mathType, text string) *Inline {
	return &Inline{Tag: TagMath, MathType: mathType, Text: text}
}

// RawInline returns a raw inline token in the given format.
func RawInline(format, text string) *Inline {
	return &Inline{Tag: TagRawInline, Format: format, Text: text}
}

// Link returns a hyperlink with empty attributes.
func Link(children InlineList, url, title string) *Inline {
	return &Inline{Tag: TagLink, Attrs: attr.New(), Inlines: children, URL: url, Title: title}
}

// Span returns a generic inline container. Attrs may be nil (see Inline).
func Span(attrs *attr.Set, children InlineList) *Inline {
	return &Inline{Tag: TagSpan, Attrs: attrs, Inlines: children}
}

// Cite returns a citation token with the given records and display text.
func Cite(citations []*Citation, display InlineList) *Inline {
	return &Inline{Tag: TagCite, Citations: citations, Inlines: display}
}

// SingleCite returns a Cite holding one AuthorInText record for label with
// display text "@label".
func SingleCite(label string) *Inline {
	return Cite(
		[]*Citation{{ID: label, Mode: AuthorInText}},
		InlineList{Str("@" + label)},
	)
}

// JoinStrings merges adjacent Str tokens in x starting at index start.
// Pandoc never produces adjacent Str tokens, but the rewriting passes can;
// run this afterwards to restore the invariant.
func JoinStrings(x *InlineList, start int) {
	for {
		changed := false
		for i := start; i+1 < len(*x); i++ {
			if (*x)[i].Tag == TagStr && (*x)[i+1].Tag == TagStr {
				(*x)[i].Text += (*x)[i+1].Text
				x.Delete(i + 1)
				changed = true
				break
			}
		}
		if !changed {
			return
		}
	}
}
