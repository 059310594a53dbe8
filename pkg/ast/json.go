// json.go implements the pandoc JSON wire format for inline and block
// elements. Tags the engine does not understand keep their encoded content
// and round-trip byte-for-byte.
package ast

import (
	"encoding/json"
	"fmt"

	"github.com/open-doc-collective/refnum/pkg/attr"
)

// rawContent holds the undecoded "c" payload of a tag the codec passes
// through untouched.
type rawContent json.RawMessage

// tagged is the pandoc element envelope.
type tagged struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c,omitempty"`
}

// citationJSON mirrors pandoc's citation object field names.
type citationJSON struct {
	ID      string     `json:"citationId"`
	Prefix  InlineList `json:"citationPrefix"`
	Suffix  InlineList `json:"citationSuffix"`
	Mode    tagged     `json:"citationMode"`
	NoteNum int        `json:"citationNoteNum"`
	Hash    int        `json:"citationHash"`
}

// UnmarshalJSON decodes one inline element.
func (in *Inline) UnmarshalJSON(data []byte) error {
	var env tagged
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("ast: bad inline envelope: %w", err)
	}
	*in = Inline{Tag: env.T}

	switch env.T {
	case TagStr:
		return json.Unmarshal(env.C, &in.Text)
	case TagSpace, TagSoftBreak, TagLineBreak:
		return nil
	case TagEmph, TagStrong, "Strikeout", "Superscript", "Subscript", "SmallCaps", "Underline":
		return json.Unmarshal(env.C, &in.Inlines)
	case TagQuoted:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		var qt tagged
		if err := json.Unmarshal(parts[0], &qt); err != nil {
			return err
		}
		in.QuoteType = qt.T
		return json.Unmarshal(parts[1], &in.Inlines)
	case TagMath:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		var mt tagged
		if err := json.Unmarshal(parts[0], &mt); err != nil {
			return err
		}
		in.MathType = mt.T
		return json.Unmarshal(parts[1], &in.Text)
	case TagCode:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		in.Attrs = attr.New()
		if err := json.Unmarshal(parts[0], in.Attrs); err != nil {
			return err
		}
		return json.Unmarshal(parts[1], &in.Text)
	case TagRawInline:
		var parts [2]string
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		in.Format, in.Text = parts[0], parts[1]
		return nil
	case TagLink, TagImage:
		var parts [3]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		in.Attrs = attr.New()
		if err := json.Unmarshal(parts[0], in.Attrs); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[1], &in.Inlines); err != nil {
			return err
		}
		var target [2]string
		if err := json.Unmarshal(parts[2], &target); err != nil {
			return err
		}
		in.URL, in.Title = target[0], target[1]
		return nil
	case TagSpan:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		in.Attrs = attr.New()
		if err := json.Unmarshal(parts[0], in.Attrs); err != nil {
			return err
		}
		return json.Unmarshal(parts[1], &in.Inlines)
	case TagCite:
		var parts []json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		// A 3-part Cite carries attributes attached by the reference
		// processor; pandoc itself always emits 2 parts.
		if len(parts) == 3 {
			in.Attrs = attr.New()
			if err := json.Unmarshal(parts[0], in.Attrs); err != nil {
				return err
			}
			parts = parts[1:]
		}
		if len(parts) != 2 {
			return fmt.Errorf("ast: Cite with %d parts", len(parts))
		}
		var cites []citationJSON
		if err := json.Unmarshal(parts[0], &cites); err != nil {
			return err
		}
		for _, c := range cites {
			in.Citations = append(in.Citations, &Citation{
				ID:      c.ID,
				Prefix:  c.Prefix,
				Suffix:  c.Suffix,
				Mode:    c.Mode.T,
				NoteNum: c.NoteNum,
				Hash:    c.Hash,
			})
		}
		return json.Unmarshal(parts[1], &in.Inlines)
	case TagNote:
		return json.Unmarshal(env.C, &in.Blocks)
	default:
		in.raw = rawContent(env.C)
		return nil
	}
}

// MarshalJSON encodes one inline element.
func (in *Inline) MarshalJSON() ([]byte, error) {
	var c interface{}

	switch in.Tag {
	case TagStr:
		c = in.Text
	case TagSpace, TagSoftBreak, TagLineBreak:
		return json.Marshal(tagged{T: in.Tag})
	case TagEmph, TagStrong, "Strikeout", "Superscript", "Subscript", "SmallCaps", "Underline":
		c = in.inlinesOrEmpty()
	case TagQuoted:
		c = []interface{}{tagged{T: in.QuoteType}, in.inlinesOrEmpty()}
	case TagMath:
		c = []interface{}{tagged{T: in.MathType}, in.Text}
	case TagCode:
		c = []interface{}{in.attrsOrEmpty(), in.Text}
	case TagRawInline:
		c = []interface{}{in.Format, in.Text}
	case TagLink, TagImage:
		c = []interface{}{in.attrsOrEmpty(), in.inlinesOrEmpty(), [2]string{in.URL, in.Title}}
	case TagSpan:
		c = []interface{}{in.attrsOrEmpty(), in.inlinesOrEmpty()}
	case TagCite:
		cites := make([]citationJSON, len(in.Citations))
		for i, ct := range in.Citations {
			cites[i] = citationJSON{
				ID:      ct.ID,
				Prefix:  listOrEmpty(ct.Prefix),
				Suffix:  listOrEmpty(ct.Suffix),
				Mode:    tagged{T: ct.Mode},
				NoteNum: ct.NoteNum,
				Hash:    ct.Hash,
			}
		}
		if in.Attrs != nil {
			c = []interface{}{in.Attrs, cites, in.inlinesOrEmpty()}
		} else {
			c = []interface{}{cites, in.inlinesOrEmpty()}
		}
	case TagNote:
		c = blocksOrEmpty(in.Blocks)
	default:
		if in.raw == nil {
			return json.Marshal(tagged{T: in.Tag})
		}
		return json.Marshal(tagged{T: in.Tag, C: json.RawMessage(in.raw)})
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tagged{T: in.Tag, C: raw})
}

func (in *Inline) inlinesOrEmpty() InlineList { return listOrEmpty(in.Inlines) }

func (in *Inline) attrsOrEmpty() *attr.Set {
	if in.Attrs == nil {
		return attr.New()
	}
	return in.Attrs
}

func listOrEmpty(x InlineList) InlineList {
	if x == nil {
		return InlineList{}
	}
	return x
}

// UnmarshalJSON decodes one block element.
func (b *Block) UnmarshalJSON(data []byte) error {
	var env tagged
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("ast: bad block envelope: %w", err)
	}
	*b = Block{Tag: env.T}

	switch env.T {
	case TagPara, TagPlain:
		return json.Unmarshal(env.C, &b.Inlines)
	case TagHeader:
		var parts [3]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		if err := json.Unmarshal(parts[0], &b.Level); err != nil {
			return err
		}
		b.Attrs = attr.New()
		if err := json.Unmarshal(parts[1], b.Attrs); err != nil {
			return err
		}
		return json.Unmarshal(parts[2], &b.Inlines)
	case TagRawBlock:
		var parts [2]string
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		b.Format, b.Text = parts[0], parts[1]
		return nil
	case TagCodeBlock:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		b.Attrs = attr.New()
		if err := json.Unmarshal(parts[0], b.Attrs); err != nil {
			return err
		}
		return json.Unmarshal(parts[1], &b.Text)
	case TagDiv:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		b.Attrs = attr.New()
		if err := json.Unmarshal(parts[0], b.Attrs); err != nil {
			return err
		}
		return json.Unmarshal(parts[1], &b.Blocks)
	case TagBlockQuote:
		return json.Unmarshal(env.C, &b.Blocks)
	case TagBulletList:
		return json.Unmarshal(env.C, &b.ListItems)
	case TagOrderedList:
		var parts [2]json.RawMessage
		if err := json.Unmarshal(env.C, &parts); err != nil {
			return err
		}
		b.ListAttrs = parts[0]
		return json.Unmarshal(parts[1], &b.ListItems)
	case TagDefinitionList:
		return json.Unmarshal(env.C, &b.Definitions)
	case TagLineBlock:
		return json.Unmarshal(env.C, &b.Lines)
	case TagTable:
		return json.Unmarshal(env.C, &b.Parts)
	default:
		b.raw = rawContent(env.C)
		return nil
	}
}

// MarshalJSON encodes one block element.
func (b *Block) MarshalJSON() ([]byte, error) {
	var c interface{}

	switch b.Tag {
	case TagPara, TagPlain:
		c = listOrEmpty(b.Inlines)
	case TagHeader:
		c = []interface{}{b.Level, b.attrsOrEmpty(), listOrEmpty(b.Inlines)}
	case TagRawBlock:
		c = []interface{}{b.Format, b.Text}
	case TagCodeBlock:
		c = []interface{}{b.attrsOrEmpty(), b.Text}
	case TagDiv:
		c = []interface{}{b.attrsOrEmpty(), blocksOrEmpty(b.Blocks)}
	case TagBlockQuote:
		c = blocksOrEmpty(b.Blocks)
	case TagBulletList:
		c = itemsOrEmpty(b.ListItems)
	case TagOrderedList:
		c = []interface{}{b.ListAttrs, itemsOrEmpty(b.ListItems)}
	case TagDefinitionList:
		defs := b.Definitions
		if defs == nil {
			defs = []*Definition{}
		}
		c = defs
	case TagLineBlock:
		lines := b.Lines
		if lines == nil {
			lines = []InlineList{}
		}
		c = lines
	case TagTable:
		c = b.Parts
	default:
		if b.raw == nil {
			return json.Marshal(tagged{T: b.Tag})
		}
		return json.Marshal(tagged{T: b.Tag, C: json.RawMessage(b.raw)})
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tagged{T: b.Tag, C: raw})
}

func (b *Block) attrsOrEmpty() *attr.Set {
	if b.Attrs == nil {
		return attr.New()
	}
	return b.Attrs
}

func blocksOrEmpty(x []*Block) []*Block {
	if x == nil {
		return []*Block{}
	}
	return x
}

func itemsOrEmpty(items [][]*Block) [][]*Block {
	if items == nil {
		return [][]*Block{}
	}
	return items
}

// UnmarshalJSON decodes one term/definition pair, a positional two-element
// array on the wire.
func (d *Definition) UnmarshalJSON(data []byte) error {
	var parts [2]json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("ast: bad definition pair: %w", err)
	}
	if err := json.Unmarshal(parts[0], &d.Term); err != nil {
		return err
	}
	return json.Unmarshal(parts[1], &d.Definitions)
}

// MarshalJSON encodes one term/definition pair.
func (d *Definition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{listOrEmpty(d.Term), itemsOrEmpty(d.Definitions)})
}

// DecodeInlines decodes an encoded inline list. Used for the raw positional
// parts of version-dependent containers such as tables.
func DecodeInlines(raw json.RawMessage) (InlineList, error) {
	var x InlineList
	if err := json.Unmarshal(raw, &x); err != nil {
		return nil, err
	}
	return x, nil
}

// EncodeInlines re-encodes an inline list for storage in a raw part.
func EncodeInlines(x InlineList) (json.RawMessage, error) {
	return json.Marshal(listOrEmpty(x))
}

// DecodeBlocks decodes an encoded block list.
func DecodeBlocks(raw json.RawMessage) ([]*Block, error) {
	var x []*Block
	if err := json.Unmarshal(raw, &x); err != nil {
		return nil, err
	}
	return x, nil
}

// EncodeBlocks re-encodes a block list.
func EncodeBlocks(x []*Block) (json.RawMessage, error) {
	if x == nil {
		x = []*Block{}
	}
	return json.Marshal(x)
}
