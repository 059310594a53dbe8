// containers.go dispatches passes over the inline lists a document tree
// can hold. References can hide in many container kinds; a single walker
// keyed on the element tag visits them all, so each pass shares one scan
// implementation instead of duplicating it per container.
package refs

import (
	"encoding/json"

	"github.com/open-doc-collective/refnum/pkg/ast"
)

// repairContainers are the containers the repair pass scans.
func repairContainers() map[string]bool {
	return map[string]bool{
		ast.TagPara:           true,
		ast.TagPlain:          true,
		ast.TagImage:          true,
		ast.TagTable:          true,
		ast.TagLineBlock:      true,
		ast.TagDefinitionList: true,
	}
}

// processContainers are the containers the reference processor scans.
// Citation prefix/suffix lists are included so references nested inside
// another reference's decorative text are still normalized.
func processContainers() map[string]bool {
	return map[string]bool{
		ast.TagPara:           true,
		ast.TagPlain:          true,
		ast.TagEmph:           true,
		ast.TagStrong:         true,
		ast.TagSpan:           true,
		ast.TagHeader:         true,
		ast.TagImage:          true,
		ast.TagTable:          true,
		ast.TagCite:           true,
		ast.TagLineBlock:      true,
		ast.TagDefinitionList: true,
	}
}

// eachList walks blocks recursively and calls fn on the inline list of
// every container whose tag is in tags. fn mutates the list in place.
func (c *Context) eachList(blocks []*ast.Block, tags map[string]bool, fn func(x *ast.InlineList)) {
	for _, b := range blocks {
		switch b.Tag {
		case ast.TagPara, ast.TagPlain, ast.TagHeader:
			if tags[b.Tag] {
				fn(&b.Inlines)
			}
			c.eachListInlines(&b.Inlines, tags, fn)
		case ast.TagDiv, ast.TagBlockQuote:
			c.eachList(b.Blocks, tags, fn)
		case ast.TagBulletList, ast.TagOrderedList:
			for _, item := range b.ListItems {
				c.eachList(item, tags, fn)
			}
		case ast.TagDefinitionList:
			for _, d := range b.Definitions {
				if tags[b.Tag] {
					fn(&d.Term)
				}
				c.eachListInlines(&d.Term, tags, fn)
				for _, def := range d.Definitions {
					c.eachList(def, tags, fn)
				}
			}
		case ast.TagLineBlock:
			for i := range b.Lines {
				if tags[b.Tag] {
					fn(&b.Lines[i])
				}
				c.eachListInlines(&b.Lines[i], tags, fn)
			}
		case ast.TagTable:
			if tags[b.Tag] {
				c.withTableCaption(b, fn)
			}
		}
	}
}

// eachListInlines recurses through inline children looking for containers.
func (c *Context) eachListInlines(x *ast.InlineList, tags map[string]bool, fn func(x *ast.InlineList)) {
	for i := 0; i < len(*x); i++ {
		in := (*x)[i]
		switch in.Tag {
		case ast.TagCite:
			if tags[in.Tag] {
				for _, ct := range in.Citations {
					fn(&ct.Prefix)
					fn(&ct.Suffix)
				}
			}
			for _, ct := range in.Citations {
				c.eachListInlines(&ct.Prefix, tags, fn)
				c.eachListInlines(&ct.Suffix, tags, fn)
			}
			c.eachListInlines(&in.Inlines, tags, fn)
		case ast.TagNote:
			c.eachList(in.Blocks, tags, fn)
		default:
			if len(in.Inlines) == 0 {
				continue
			}
			if tags[in.Tag] {
				fn(&in.Inlines)
			}
			c.eachListInlines(&in.Inlines, tags, fn)
		}
	}
}

// walkAllLists calls fn on every inline list in the tree regardless of
// container kind. Used by passes that must reach every token (replace,
// detach).
func (c *Context) walkAllLists(blocks []*ast.Block, fn func(x *ast.InlineList)) {
	for _, b := range blocks {
		switch b.Tag {
		case ast.TagPara, ast.TagPlain, ast.TagHeader:
			fn(&b.Inlines)
			c.walkAllListsInlines(&b.Inlines, fn)
		case ast.TagDiv, ast.TagBlockQuote:
			c.walkAllLists(b.Blocks, fn)
		case ast.TagBulletList, ast.TagOrderedList:
			for _, item := range b.ListItems {
				c.walkAllLists(item, fn)
			}
		case ast.TagDefinitionList:
			for _, d := range b.Definitions {
				fn(&d.Term)
				c.walkAllListsInlines(&d.Term, fn)
				for _, def := range d.Definitions {
					c.walkAllLists(def, fn)
				}
			}
		case ast.TagLineBlock:
			for i := range b.Lines {
				fn(&b.Lines[i])
				c.walkAllListsInlines(&b.Lines[i], fn)
			}
		case ast.TagTable:
			c.withTableCaption(b, func(x *ast.InlineList) {
				fn(x)
				c.walkAllListsInlines(x, fn)
			})
		}
	}
}

func (c *Context) walkAllListsInlines(x *ast.InlineList, fn func(x *ast.InlineList)) {
	for i := 0; i < len(*x); i++ {
		in := (*x)[i]
		for _, ct := range in.Citations {
			fn(&ct.Prefix)
			c.walkAllListsInlines(&ct.Prefix, fn)
			fn(&ct.Suffix)
			c.walkAllListsInlines(&ct.Suffix, fn)
		}
		if len(in.Inlines) > 0 {
			fn(&in.Inlines)
			c.walkAllListsInlines(&in.Inlines, fn)
		}
		if len(in.Blocks) > 0 {
			c.walkAllLists(in.Blocks, fn)
		}
	}
}

// withTableCaption decodes the caption inline list out of a table's raw
// positional parts, runs fn on it, and re-encodes the result. The field
// layout depends on the tool version; unsupported or malformed shapes are
// skipped rather than guessed at.
func (c *Context) withTableCaption(b *ast.Block, fn func(x *ast.InlineList)) {
	parts := b.Parts
	if len(parts) < 5 {
		return
	}
	idx := len(parts) - 5

	switch c.conv.tableCaption {
	case tableLegacy:
		// The caption is a bare inline list.
		list, err := ast.DecodeInlines(parts[idx])
		if err != nil {
			return
		}
		fn(&list)
		if raw, err := ast.EncodeInlines(list); err == nil {
			parts[idx] = raw
		}

	case tableTwoTen:
		// The caption is a tagged element whose content is [short, blocks].
		var env taggedCaption
		if err := json.Unmarshal(parts[idx], &env); err != nil {
			return
		}
		pair, ok := c.captionPair(env.C, fn)
		if !ok {
			return
		}
		if raw, err := json.Marshal(taggedCaption{T: env.T, C: pair}); err == nil {
			parts[idx] = raw
		}

	case tableModern:
		// The caption is a bare [short, blocks] pair.
		pair, ok := c.captionPair(parts[idx], fn)
		if !ok {
			return
		}
		parts[idx] = pair
	}
}

// taggedCaption is the pandoc 2.10 caption envelope.
type taggedCaption struct {
	T string          `json:"t"`
	C json.RawMessage `json:"c"`
}

// captionPair runs fn on the inline list of the first block of a
// [short, blocks] caption pair and returns the re-encoded pair.
func (c *Context) captionPair(raw json.RawMessage, fn func(x *ast.InlineList)) (json.RawMessage, bool) {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, false
	}
	blocks, err := ast.DecodeBlocks(pair[1])
	if err != nil || len(blocks) == 0 {
		return nil, false
	}
	if blocks[0].Tag != ast.TagPlain && blocks[0].Tag != ast.TagPara {
		return nil, false
	}
	fn(&blocks[0].Inlines)
	enc, err := ast.EncodeBlocks(blocks)
	if err != nil {
		return nil, false
	}
	out, err := json.Marshal([2]json.RawMessage{pair[0], enc})
	if err != nil {
		return nil, false
	}
	return out, true
}
