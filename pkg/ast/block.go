package ast

import (
	"encoding/json"

	"github.com/open-doc-collective/refnum/pkg/attr"
)

// Block tag names the engine understands. Everything else round-trips as
// opaque JSON.
const (
	TagPara           = "Para"
	TagPlain          = "Plain"
	TagHeader         = "Header"
	TagRawBlock       = "RawBlock"
	TagCodeBlock      = "CodeBlock"
	TagDiv            = "Div"
	TagBlockQuote     = "BlockQuote"
	TagTable          = "Table"
	TagBulletList     = "BulletList"
	TagOrderedList    = "OrderedList"
	TagDefinitionList = "DefinitionList"
	TagLineBlock      = "LineBlock"
)

// Block is one block element. Meaningful fields by Tag:
//
//	Para, Plain     Inlines
//	Header          Level, Attrs, Inlines
//	RawBlock        Format, Text
//	CodeBlock       Attrs, Text
//	Div             Attrs, Blocks
//	BlockQuote      Blocks
//	BulletList      ListItems
//	OrderedList     ListAttrs (kept raw), ListItems
//	DefinitionList  Definitions
//	LineBlock       Lines
//	Table           Parts (positional content, kept raw; the caption is
//	                extracted through the version conventions in pkg/refs)
//	anything else   raw (opaque round-trip)
type Block struct {
	Tag     string
	Text    string
	Format  string
	Level   int
	Inlines InlineList
	Attrs   *attr.Set
	Blocks  []*Block

	// ListItems holds the items of a BulletList or OrderedList; each item
	// is its own block list.
	ListItems [][]*Block
	// ListAttrs is an OrderedList's numbering triple (start, style,
	// delimiter), kept encoded.
	ListAttrs json.RawMessage
	// Definitions holds a DefinitionList's term/definition pairs.
	Definitions []*Definition
	// Lines holds a LineBlock's lines.
	Lines []InlineList

	// Parts holds the positional content list of a Table. Field layout
	// varies with the pandoc version, so the parts stay encoded and are
	// decoded on demand.
	Parts []json.RawMessage

	raw rawContent
}

// Definition is one term/definition pair of a DefinitionList. A term may
// carry several definitions, each its own block list.
type Definition struct {
	Term        InlineList
	Definitions [][]*Block
}

// Para returns a paragraph block.
func Para(inlines InlineList) *Block { return &Block{Tag: TagPara, Inlines: inlines} }

// Plain returns a plain block.
func Plain(inlines InlineList) *Block { return &Block{Tag: TagPlain, Inlines: inlines} }

// RawBlock returns a raw block in the given format.
func RawBlock(format, text string) *Block {
	return &Block{Tag: TagRawBlock, Format: format, Text: text}
}

// TableAttrs decodes the attribute triple of a Table. Tables written by
// older tools carry five positional parts and no attributes.
func (b *Block) TableAttrs() (*attr.Set, bool) {
	if b.Tag != TagTable || len(b.Parts) < 6 {
		return nil, false
	}
	var a attr.Set
	if err := json.Unmarshal(b.Parts[0], &a); err != nil {
		return nil, false
	}
	return &a, true
}

// Header returns a header block.
func Header(level int, attrs *attr.Set, inlines InlineList) *Block {
	return &Block{Tag: TagHeader, Level: level, Attrs: attrs, Inlines: inlines}
}
