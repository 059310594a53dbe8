// meta.go models pandoc document metadata.
package ast

import (
	"encoding/json"
	"fmt"
)

// Meta tag names.
const (
	MetaString  = "MetaString"
	MetaBool    = "MetaBool"
	MetaInlines = "MetaInlines"
	MetaBlocks  = "MetaBlocks"
	MetaList    = "MetaList"
	MetaMap     = "MetaMap"
)

// Meta is the document metadata mapping.
type Meta map[string]*MetaValue

// MetaValue is one tagged metadata value.
type MetaValue struct {
	Tag     string
	Text    string
	Bool    bool
	Inlines InlineList
	Blocks  []*Block
	List    []*MetaValue
	Map     map[string]*MetaValue
}

// UnmarshalJSON decodes one metadata value.
func (m *MetaValue) UnmarshalJSON(data []byte) error {
	var env tagged
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("ast: bad meta envelope: %w", err)
	}
	*m = MetaValue{Tag: env.T}

	switch env.T {
	case MetaString:
		return json.Unmarshal(env.C, &m.Text)
	case MetaBool:
		return json.Unmarshal(env.C, &m.Bool)
	case MetaInlines:
		return json.Unmarshal(env.C, &m.Inlines)
	case MetaBlocks:
		return json.Unmarshal(env.C, &m.Blocks)
	case MetaList:
		return json.Unmarshal(env.C, &m.List)
	case MetaMap:
		return json.Unmarshal(env.C, &m.Map)
	default:
		return fmt.Errorf("ast: unknown meta tag %q", env.T)
	}
}

// MarshalJSON encodes one metadata value.
func (m *MetaValue) MarshalJSON() ([]byte, error) {
	var c interface{}
	switch m.Tag {
	case MetaString:
		c = m.Text
	case MetaBool:
		c = m.Bool
	case MetaInlines:
		c = listOrEmpty(m.Inlines)
	case MetaBlocks:
		blocks := m.Blocks
		if blocks == nil {
			blocks = []*Block{}
		}
		c = blocks
	case MetaList:
		list := m.List
		if list == nil {
			list = []*MetaValue{}
		}
		c = list
	case MetaMap:
		mp := m.Map
		if mp == nil {
			mp = map[string]*MetaValue{}
		}
		c = mp
	default:
		return nil, fmt.Errorf("ast: unknown meta tag %q", m.Tag)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tagged{T: m.Tag, C: raw})
}

// GetString returns the string form of the named metadata variable.
// MetaInlines values are stringified.
func (m Meta) GetString(name string) (string, bool) {
	v, ok := m[name]
	if !ok {
		return "", false
	}
	switch v.Tag {
	case MetaString:
		return v.Text, true
	case MetaInlines:
		return Stringify(v.Inlines), true
	default:
		return "", false
	}
}

// GetBool returns the boolean form of the named metadata variable.
// Single-word MetaInlines values spelled true/false are accepted; pandoc
// versions around 2.2.3 emitted booleans that way.
func (m Meta) GetBool(name string) (bool, bool) {
	v, ok := m[name]
	if !ok {
		return false, false
	}
	switch v.Tag {
	case MetaBool:
		return v.Bool, true
	case MetaInlines:
		if len(v.Inlines) == 1 && v.Inlines[0].Tag == TagStr {
			switch v.Inlines[0].Text {
			case "true", "True", "TRUE":
				return true, true
			case "false", "False", "FALSE":
				return false, true
			}
		}
	}
	return false, false
}

// GetStringList returns the named metadata variable as a list of strings.
// MetaList entries are stringified; a bare scalar becomes a one-item list.
func (m Meta) GetStringList(name string) ([]string, bool) {
	v, ok := m[name]
	if !ok {
		return nil, false
	}
	switch v.Tag {
	case MetaList:
		out := make([]string, 0, len(v.List))
		for _, item := range v.List {
			switch item.Tag {
			case MetaString:
				out = append(out, item.Text)
			case MetaInlines:
				out = append(out, Stringify(item.Inlines))
			}
		}
		return out, true
	case MetaString, MetaInlines:
		s, _ := m.GetString(name)
		return []string{s}, true
	}
	return nil, false
}

// GetStringMap returns a MetaMap variable with stringified values.
func (m Meta) GetStringMap(name string) (map[string]string, bool) {
	v, ok := m[name]
	if !ok || v.Tag != MetaMap {
		return nil, false
	}
	out := make(map[string]string, len(v.Map))
	for k, item := range v.Map {
		switch item.Tag {
		case MetaString:
			out[k] = item.Text
		case MetaInlines:
			out[k] = Stringify(item.Inlines)
		}
	}
	return out, true
}
