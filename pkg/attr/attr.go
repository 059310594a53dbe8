// Package attr parses and emits pandoc-style attribute sets:
// {#id .class key=value}.
package attr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// KV is a single key-value attribute pair.
type KV struct {
	Key   string
	Value string
}

// Set holds the attributes attachable to a document element: an id, an
// ordered list of classes, and an ordered key-value mapping.
type Set struct {
	ID      string
	Classes []string
	Kvs     []KV

	// ParseFailed flags that at least one key=value token could not be
	// parsed. The rest of the set is still a best-effort result.
	ParseFailed bool

	// Raw is the original attribute string, kept for diagnostics.
	Raw string
}

// New returns an empty attribute set.
func New() *Set {
	return &Set{}
}

// Get returns the value for key and whether it is present.
func (s *Set) Get(key string) (string, bool) {
	for _, kv := range s.Kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set inserts or overwrites the value for key. First-insertion order is
// preserved and last write wins.
func (s *Set) Set(key, value string) {
	for i, kv := range s.Kvs {
		if kv.Key == key {
			s.Kvs[i].Value = value
			return
		}
	}
	s.Kvs = append(s.Kvs, KV{Key: key, Value: value})
}

// Prepend inserts key at the front of the kv list. An existing entry for
// the same key is kept behind it, so Get returns the new value and Delete
// restores the old one.
func (s *Set) Prepend(key, value string) {
	s.Kvs = append([]KV{{Key: key, Value: value}}, s.Kvs...)
}

// Delete removes key if present.
func (s *Set) Delete(key string) {
	for i, kv := range s.Kvs {
		if kv.Key == key {
			s.Kvs = append(s.Kvs[:i], s.Kvs[i+1:]...)
			return
		}
	}
}

// HasClass reports whether the class list contains name.
func (s *Set) HasClass(name string) bool {
	for _, c := range s.Classes {
		if c == name {
			return true
		}
	}
	return false
}

// IsEmpty reports whether the set carries no id, classes, or kvs.
func (s *Set) IsEmpty() bool {
	return s.ID == "" && len(s.Classes) == 0 && len(s.Kvs) == 0
}

// Merge copies the id (if unset), classes, and kvs from other into s.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	if s.ID == "" {
		s.ID = other.ID
	}
	s.Classes = append(s.Classes, other.Classes...)
	for _, kv := range other.Kvs {
		s.Set(kv.Key, kv.Value)
	}
}

// ParseMarkdown parses a markdown attribute string into a Set. The
// surrounding braces may be present or already stripped. Tokens are split
// on whitespace outside single or double quotes:
//
//   - #id      sets the id (first occurrence wins)
//   - .class   appends a class
//   - -        appends the literal class "unnumbered"
//   - key=val  inserts a key-value pair (matching surrounding quotes are
//     stripped from the value)
//
// A lone bare token with no '#', '.' or '=' anywhere in the input is
// treated as a single class name (bare language tags on code blocks).
// Parsing never fails; malformed key=value tokens set ParseFailed.
func ParseMarkdown(attrstr string) *Set {
	s := &Set{Raw: attrstr}
	attrstr = strings.Trim(attrstr, "{}")
	attrstr = strings.TrimSpace(attrstr)
	if attrstr == "" {
		return s
	}

	toks := splitOutsideQuotes(attrstr)

	// Single bare word, e.g. ```python. A lone "-" is the unnumbered
	// shorthand, not a class name.
	if len(toks) == 1 && attrstr != "-" && !strings.HasPrefix(attrstr, "#") &&
		!strings.HasPrefix(attrstr, ".") && !strings.Contains(attrstr, "=") {
		s.Classes = append(s.Classes, attrstr)
		return s
	}

	wantKvs, gotKvs := 0, 0
	for _, tok := range toks {
		switch {
		case strings.HasPrefix(tok, "#"):
			if s.ID == "" {
				s.ID = tok[1:]
			}
		case strings.HasPrefix(tok, "."):
			s.Classes = append(s.Classes, tok[1:])
		case tok == "-":
			s.Classes = append(s.Classes, "unnumbered")
		case strings.Contains(tok, "="):
			wantKvs++
			key, value, ok := splitKV(tok)
			if !ok {
				continue
			}
			gotKvs++
			s.Set(key, stripQuotes(value))
		}
	}
	if gotKvs < wantKvs {
		s.ParseFailed = true
	}
	return s
}

// splitOutsideQuotes splits on whitespace, keeping quoted regions intact.
func splitOutsideQuotes(s string) []string {
	var toks []string
	var cur strings.Builder
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n':
			if cur.Len() > 0 {
				toks = append(toks, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		toks = append(toks, cur.String())
	}
	return toks
}

// splitKV splits a key=value token at the first unquoted '='.
func splitKV(tok string) (key, value string, ok bool) {
	i := strings.Index(tok, "=")
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1:], true
}

// stripQuotes removes one layer of matching surrounding quote characters.
func stripQuotes(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') ||
			(v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ToMarkdown renders the set as a markdown attribute string including the
// surrounding braces.
func (s *Set) ToMarkdown() string {
	var parts []string
	if s.ID != "" {
		parts = append(parts, "#"+s.ID)
	}
	for _, c := range s.Classes {
		parts = append(parts, "."+c)
	}
	for _, kv := range s.Kvs {
		v := kv.Value
		if strings.ContainsAny(v, " \t") {
			v = `"` + v + `"`
		}
		parts = append(parts, kv.Key+"="+v)
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// MarshalJSON emits the pandoc attr triple: [id, [classes], [[k, v], ...]].
func (s *Set) MarshalJSON() ([]byte, error) {
	classes := s.Classes
	if classes == nil {
		classes = []string{}
	}
	kvs := make([][2]string, len(s.Kvs))
	for i, kv := range s.Kvs {
		kvs[i] = [2]string{kv.Key, kv.Value}
	}
	return json.Marshal([3]interface{}{s.ID, classes, kvs})
}

// UnmarshalJSON reads the pandoc attr triple.
func (s *Set) UnmarshalJSON(data []byte) error {
	var triple [3]json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		return fmt.Errorf("attr: not a pandoc triple: %w", err)
	}
	if err := json.Unmarshal(triple[0], &s.ID); err != nil {
		return fmt.Errorf("attr: bad id: %w", err)
	}
	if err := json.Unmarshal(triple[1], &s.Classes); err != nil {
		return fmt.Errorf("attr: bad classes: %w", err)
	}
	var kvs [][2]string
	if err := json.Unmarshal(triple[2], &kvs); err != nil {
		return fmt.Errorf("attr: bad kvs: %w", err)
	}
	s.Kvs = s.Kvs[:0]
	for _, kv := range kvs {
		s.Kvs = append(s.Kvs, KV{Key: kv[0], Value: kv[1]})
	}
	return nil
}
