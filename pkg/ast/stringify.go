package ast

import "strings"

// StringifyOpts controls how non-text tokens are materialized.
type StringifyOpts struct {
	// QuoteMarks renders Quoted children wrapped in literal quote
	// characters instead of silently flattening them.
	QuoteMarks bool
	// MathDollars renders Math content wrapped in dollar signs.
	MathDollars bool
}

// Stringify flattens an inline list to plain text. All formatting is
// dropped; quoted text and math pass through bare.
func Stringify(x InlineList) string {
	return StringifyWith(x, StringifyOpts{})
}

// StringifyWith flattens an inline list to plain text using opts.
func StringifyWith(x InlineList, opts StringifyOpts) string {
	var sb strings.Builder
	stringifyInto(&sb, x, opts)
	return sb.String()
}

func stringifyInto(sb *strings.Builder, x InlineList, opts StringifyOpts) {
	for _, in := range x {
		switch in.Tag {
		case TagStr:
			sb.WriteString(in.Text)
		case TagSpace, TagSoftBreak, TagLineBreak:
			sb.WriteByte(' ')
		case TagCode:
			sb.WriteString(in.Text)
		case TagMath:
			if opts.MathDollars {
				sb.WriteByte('$')
				sb.WriteString(in.Text)
				sb.WriteByte('$')
			} else {
				sb.WriteString(in.Text)
			}
		case TagQuoted:
			quote := byte('"')
			if in.QuoteType == SingleQuote {
				quote = '\''
			}
			if opts.QuoteMarks {
				sb.WriteByte(quote)
			}
			stringifyInto(sb, in.Inlines, opts)
			if opts.QuoteMarks {
				sb.WriteByte(quote)
			}
		case TagCite:
			for _, c := range in.Citations {
				stringifyInto(sb, c.Prefix, opts)
				stringifyInto(sb, c.Suffix, opts)
			}
			stringifyInto(sb, in.Inlines, opts)
		default:
			stringifyInto(sb, in.Inlines, opts)
		}
	}
}
