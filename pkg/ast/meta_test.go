package ast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaFromJSON(t *testing.T, src string) Meta {
	t.Helper()
	var m Meta
	require.NoError(t, json.Unmarshal([]byte(src), &m))
	return m
}

func TestMeta_GetString(t *testing.T) {
	m := metaFromJSON(t, `{
		"plain": {"t":"MetaString","c":"hello"},
		"inline": {"t":"MetaInlines","c":[{"t":"Str","c":"two"},{"t":"Space"},{"t":"Str","c":"words"}]},
		"flag": {"t":"MetaBool","c":true}
	}`)

	tests := []struct {
		name   string
		key    string
		want   string
		wantOK bool
	}{
		{"meta string", "plain", "hello", true},
		{"meta inlines stringified", "inline", "two words", true},
		{"wrong kind", "flag", "", false},
		{"missing", "nope", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.GetString(tt.key)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeta_GetBool(t *testing.T) {
	m := metaFromJSON(t, `{
		"real": {"t":"MetaBool","c":true},
		"spelled": {"t":"MetaInlines","c":[{"t":"Str","c":"True"}]},
		"spelledOff": {"t":"MetaInlines","c":[{"t":"Str","c":"false"}]},
		"words": {"t":"MetaInlines","c":[{"t":"Str","c":"maybe"}]}
	}`)

	v, ok := m.GetBool("real")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = m.GetBool("spelled")
	assert.True(t, ok)
	assert.True(t, v)

	v, ok = m.GetBool("spelledOff")
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = m.GetBool("words")
	assert.False(t, ok)
}

func TestMeta_GetStringList(t *testing.T) {
	m := metaFromJSON(t, `{
		"list": {"t":"MetaList","c":[{"t":"MetaString","c":"a"},{"t":"MetaInlines","c":[{"t":"Str","c":"b"}]}]},
		"scalar": {"t":"MetaString","c":"only"}
	}`)

	got, ok := m.GetStringList("list")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)

	got, ok = m.GetStringList("scalar")
	require.True(t, ok)
	assert.Equal(t, []string{"only"}, got)
}

func TestMetaValue_RoundTrip(t *testing.T) {
	tests := []string{
		`{"t":"MetaString","c":"x"}`,
		`{"t":"MetaBool","c":false}`,
		`{"t":"MetaInlines","c":[{"t":"Str","c":"x"}]}`,
		`{"t":"MetaBlocks","c":[{"t":"RawBlock","c":["tex","\\x"]}]}`,
		`{"t":"MetaList","c":[{"t":"MetaString","c":"x"}]}`,
		`{"t":"MetaMap","c":{"k":{"t":"MetaString","c":"v"}}}`,
	}

	for _, src := range tests {
		var v MetaValue
		require.NoError(t, json.Unmarshal([]byte(src), &v))
		out, err := json.Marshal(&v)
		require.NoError(t, err)
		assert.JSONEq(t, src, string(out))
	}
}
