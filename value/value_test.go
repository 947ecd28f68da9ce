package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesMemberOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, v.Kind())

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestParse_KeepsDuplicateKeys(t *testing.T) {
	v, err := Parse([]byte(`{"name": "A", "name": "B"}`))
	require.NoError(t, err)
	require.Len(t, v.Members(), 2)

	first, ok := v.Get("name")
	require.True(t, ok)
	s, _ := first.AsString()
	assert.Equal(t, "A", s)
}

func TestParse_Scalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
	}{
		{"null", `null`, KindNull},
		{"true", `true`, KindBool},
		{"false", ` false `, KindBool},
		{"integer", `42`, KindNumber},
		{"negative float", `-1.5e3`, KindNumber},
		{"string", `"hi"`, KindString},
		{"empty array", `[]`, KindArray},
		{"empty object", `{}`, KindObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestParse_UnescapesStringsAndKeys(t *testing.T) {
	v, err := Parse([]byte(`{"a\"b": "line\nbreak é"}`))
	require.NoError(t, err)

	got, ok := v.Get(`a"b`)
	require.True(t, ok)
	s, _ := got.AsString()
	assert.Equal(t, "line\nbreak é", s)
}

func TestParse_NestedArrays(t *testing.T) {
	v, err := Parse([]byte(`[1, [2, "x"], {"k": [true, null]}]`))
	require.NoError(t, err)
	require.Equal(t, 3, v.Len())

	inner := v.Items()[1]
	assert.Equal(t, KindArray, inner.Kind())
	assert.Equal(t, 2, inner.Len())

	k, ok := v.Items()[2].Get("k")
	require.True(t, ok)
	assert.True(t, k.Items()[1].IsNull())
}

func TestParse_NumbersKeepSourceText(t *testing.T) {
	for _, in := range []string{`0`, `-0`, `10`, `1.50`, `1e10`, `2E-3`, `-0.0e+1`, `123456789012345678901234567890`} {
		v, err := Parse([]byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, in, v.NumberText())
	}
}

func TestParse_LoneSurrogates(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lone high", `"\ud800"`, "\ufffd"},
		{"lone low", `"a\udc00b"`, "a\ufffdb"},
		{"high then non-surrogate", `"\ud800\u0041"`, "\ufffdA"},
		{"valid pair", `"\ud83d\ude00"`, "\U0001F600"},
		{"escaped backslash", `"\\ud800"`, `\ud800`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			s, ok := v.AsString()
			require.True(t, ok)
			assert.Equal(t, tt.want, s)

			var std string
			require.NoError(t, json.Unmarshal([]byte(tt.input), &std))
			assert.Equal(t, std, s)
		})
	}

	t.Run("object key", func(t *testing.T) {
		v, err := Parse([]byte(`{"k\udfff": 1}`))
		require.NoError(t, err)
		assert.True(t, v.Has("k\ufffd"))
	})
}

func TestParse_Errors(t *testing.T) {
	inputs := []string{
		``,
		`{"a": }`,
		`[1, 2`,
		`{"a": 1} trailing`,
		`nul`,
		`12abc`,
		`{"a":1,}`,
		`[1,2,]`,
		`{"a":01}`,
		`-`,
		`1.`,
		`.5`,
		`1e`,
		`+1`,
		`{'a':1}`,
	}

	for _, in := range inputs {
		_, err := Parse([]byte(in))
		assert.ErrorIs(t, err, ErrSyntax, "input %q", in)
	}
}

func TestParseYAML(t *testing.T) {
	doc := []byte(`
"@context":
  name: http://xmlns.com/foaf/0.1/name
"@id": https://example.org/x
name: A
age: 42
ratio: 0.5
active: true
nothing: null
tags: [a, b]
`)
	v, err := ParseYAML(doc)
	require.NoError(t, err)

	var keys []string
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"@context", "@id", "name", "age", "ratio", "active", "nothing", "tags"}, keys)

	age, _ := v.Get("age")
	assert.Equal(t, "42", age.NumberText())
	ratio, _ := v.Get("ratio")
	f, ok := ratio.AsFloat()
	require.True(t, ok)
	assert.InDelta(t, 0.5, f, 1e-9)
	active, _ := v.Get("active")
	b, _ := active.AsBool()
	assert.True(t, b)
	nothing, _ := v.Get("nothing")
	assert.True(t, nothing.IsNull())
	tags, _ := v.Get("tags")
	assert.Equal(t, 2, tags.Len())
}

func TestDecode(t *testing.T) {
	v, err := Decode([]byte(`{"a": 1}`))
	require.NoError(t, err)
	assert.Equal(t, KindObject, v.Kind())

	v, err = Decode([]byte("a: 1\nb: [x]\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())

	_, err = Decode([]byte(`{"a": `))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestParseYAML_Aliases(t *testing.T) {
	v, err := ParseYAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	require.NoError(t, err)

	c, ok := v.Get("copy")
	require.True(t, ok)
	x, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, "1", x.NumberText())
}

func TestFromAny_SortsMapKeys(t *testing.T) {
	v, err := FromAny(map[string]any{"b": 1.0, "a": []any{"x", nil, true}})
	require.NoError(t, err)

	members := v.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "a", members[0].Key)
	assert.Equal(t, "b", members[1].Key)
}

func TestFromAny_RejectsUnsupported(t *testing.T) {
	_, err := FromAny(struct{}{})
	assert.Error(t, err)
}

func TestMarshalJSON_RoundTripsThroughStdlib(t *testing.T) {
	src := `{"z":[1,"two",{"three":3}],"a":null,"b":false}`
	v, err := Parse([]byte(src))
	require.NoError(t, err)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, src, string(out))
	assert.Equal(t, src, v.String())
}

func TestEqual(t *testing.T) {
	a := Object(Pair("x", Int(1)), Pair("y", Array(String("s"))))
	b := Object(Pair("x", Number("1.0")), Pair("y", Array(String("s"))))
	c := Object(Pair("y", Array(String("s"))), Pair("x", Int(1)))

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, Null().Equal(Bool(false)))
}

func TestInterface(t *testing.T) {
	v := Object(Pair("n", Int(3)), Pair("l", Array(Bool(true), Null())))
	got := v.Interface().(map[string]any)
	assert.Equal(t, 3.0, got["n"])
	assert.Equal(t, []any{true, nil}, got["l"])
}
