package heal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat_PreservesOrderAndScalars(t *testing.T) {
	input := `{"zeta":1,"alpha":{"b":[true,false,null],"a":1.50},"big":12345678901234567890,"url":"http://x/?a=1&b=<c>"}`

	doc, err := Parse([]byte(input))
	require.NoError(t, err)

	out, err := Format(doc)
	require.NoError(t, err)

	want := `{
  "zeta": 1,
  "alpha": {
    "b": [
      true,
      false,
      null
    ],
    "a": 1.50
  },
  "big": 12345678901234567890,
  "url": "http://x/?a=1&b=<c>"
}
`
	assert.Equal(t, want, string(out))
}

func TestParse_Errors(t *testing.T) {
	for _, input := range []string{"", "{", `{"a":}`, `{"a":1} {}`, `[1,]`} {
		_, err := Parse([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestParse_ScalarRoot(t *testing.T) {
	doc, err := Parse([]byte(`"just a string"`))
	require.NoError(t, err)
	assert.Equal(t, KindString, doc.Kind)
}

func TestNode_GetSet(t *testing.T) {
	doc, err := Parse([]byte(`{"a":1,"b":2}`))
	require.NoError(t, err)

	assert.Nil(t, doc.Get("missing"))
	assert.Equal(t, "2", doc.Get("b").Number.String())

	doc.Set("a", StringNode("x"))
	doc.Set("c", StringNode("y"))

	out, err := Format(doc)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"x\",\n  \"b\": 2,\n  \"c\": \"y\"\n}\n", string(out))

	assert.Nil(t, doc.Get("a").Get("anything"))
}

func TestNode_ReplaceStrings(t *testing.T) {
	doc, err := Parse([]byte(`{"/old/key":"/old/value","list":["/old/a",1,{"deep":"x/old/y"}],"n":3}`))
	require.NoError(t, err)

	count := doc.ReplaceStrings(func(s string) (string, int) {
		n := strings.Count(s, "/old")
		return strings.ReplaceAll(s, "/old", "/new"), n
	})
	assert.Equal(t, 3, count)

	out, err := Format(doc)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"/old/key": "/new/value"`)
	assert.Contains(t, string(out), `"/new/a"`)
	assert.Contains(t, string(out), `"x/new/y"`)
}
