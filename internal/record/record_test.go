package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_KeepsInsertionOrder(t *testing.T) {
	r := New()
	r.Set("zeta", int64(1))
	r.Set("alpha", int64(2))
	r.Set("mid", int64(3))
	r.Set("zeta", int64(4)) // overwrite keeps position

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, r.Keys())
	v, ok := r.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, int64(4), v)
}

func TestRecord_ZeroValueIsUsable(t *testing.T) {
	var r Record
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Has("x"))
	r.Set("x", "y")
	assert.True(t, r.Has("x"))
}

func TestRecord_Lookup(t *testing.T) {
	addr := FromPairs("city", "Lisbon", "zip", "1000")
	r := FromPairs("name", "ana", "address", addr, "tags", []any{"a"})

	t.Run("top level", func(t *testing.T) {
		v, ok := r.Lookup("name")
		require.True(t, ok)
		assert.Equal(t, "ana", v)
	})
	t.Run("nested", func(t *testing.T) {
		v, ok := r.Lookup("address.city")
		require.True(t, ok)
		assert.Equal(t, "Lisbon", v)
	})
	t.Run("missing leaf", func(t *testing.T) {
		_, ok := r.Lookup("address.country")
		assert.False(t, ok)
	})
	t.Run("through a scalar", func(t *testing.T) {
		_, ok := r.Lookup("name.first")
		assert.False(t, ok)
	})
	t.Run("literal dotted key wins", func(t *testing.T) {
		d := FromPairs("a.b", int64(1))
		v, ok := d.Lookup("a.b")
		require.True(t, ok)
		assert.Equal(t, int64(1), v)
	})
}

func TestEqual_IgnoresFieldOrder(t *testing.T) {
	a := FromPairs("id", 1, "name", "x")
	b := FromPairs("name", "x", "id", 1.0)
	assert.True(t, Equal(a, b))

	c := FromPairs("name", "x", "id", "1")
	assert.False(t, Equal(a, c), "number and string must not be equal")
}

func TestValuesEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"ints", int64(3), int64(3), true},
		{"int and float", int64(3), 3.0, true},
		{"ints above 2^53", int64(9007199254740993), int64(9007199254740992), false},
		{"number vs string", int64(3), "3", false},
		{"nulls", nil, nil, true},
		{"null vs zero", nil, int64(0), false},
		{"arrays", []any{int64(1), "a"}, []any{1.0, "a"}, true},
		{"array order matters", []any{"a", "b"}, []any{"b", "a"}, false},
		{"bools", true, true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValuesEqual(tc.a, tc.b))
		})
	}
}

func TestCompareNumbers(t *testing.T) {
	c, ok := CompareNumbers(int64(9007199254740993), int64(9007199254740992))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	c, ok = CompareNumbers(int64(2), 2.5)
	require.True(t, ok)
	assert.Equal(t, -1, c)

	_, ok = CompareNumbers(int64(2), "2")
	assert.False(t, ok)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, TypeString, TypeOf("x"))
	assert.Equal(t, TypeNumber, TypeOf(int64(1)))
	assert.Equal(t, TypeNumber, TypeOf(2.5))
	assert.Equal(t, TypeNumber, TypeOf(7)) // plain int is normalized
	assert.Equal(t, TypeBoolean, TypeOf(false))
	assert.Equal(t, TypeObject, TypeOf(New()))
	assert.Equal(t, TypeArray, TypeOf([]any{}))
	assert.Equal(t, TypeNull, TypeOf(nil))
}

func TestDecodeJSON_PreservesOrderAndNumbers(t *testing.T) {
	v, err := DecodeJSON([]byte(`{"b": 1, "a": 2.5, "c": {"y": true, "x": null}, "d": [1, "s"]}`))
	require.NoError(t, err)

	r, ok := v.(Record)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c", "d"}, r.Keys())

	b, _ := r.Get("b")
	assert.Equal(t, int64(1), b)
	a, _ := r.Get("a")
	assert.Equal(t, 2.5, a)

	c, _ := r.Get("c")
	assert.Equal(t, []string{"y", "x"}, c.(Record).Keys())
}

func TestDecodeJSON_Errors(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := DecodeJSON(nil)
		assert.Error(t, err)
	})
	t.Run("syntax", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`[{"a": 1,}]`))
		var se *json.SyntaxError
		assert.ErrorAs(t, err, &se)
	})
	t.Run("trailing data", func(t *testing.T) {
		_, err := DecodeJSON([]byte(`{"a": 1} {"b": 2}`))
		var te *TrailingDataError
		assert.ErrorAs(t, err, &te)
	})
}

func TestDecodeYAML(t *testing.T) {
	input := `
- name: alice
  age: 30
  active: true
  score: 9.5
- name: bob
  age: 25
  nick: ~
`
	v, err := DecodeYAML([]byte(input))
	require.NoError(t, err)
	arr, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, arr, 2)

	first := arr[0].(Record)
	assert.Equal(t, []string{"name", "age", "active", "score"}, first.Keys())
	age, _ := first.Get("age")
	assert.Equal(t, int64(30), age)
	score, _ := first.Get("score")
	assert.Equal(t, 9.5, score)

	nick, ok := arr[1].(Record).Get("nick")
	assert.True(t, ok)
	assert.Nil(t, nick)
}

func TestDecodeYAML_Merge(t *testing.T) {
	input := `
base: &base
  role: user
  active: true
admin:
  <<: *base
  role: admin
`
	v, err := DecodeYAML([]byte(input))
	require.NoError(t, err)
	admin, ok := v.(Record).Lookup("admin")
	require.True(t, ok)
	role, _ := admin.(Record).Get("role")
	active, _ := admin.(Record).Get("active")
	assert.Equal(t, "admin", role)
	assert.Equal(t, true, active)
}

// chainedAliases builds a small document whose last anchor expands to 10^levels nodes.
func chainedAliases(levels int) string {
	var b strings.Builder
	b.WriteString("a0: &a0 [x, x, x, x, x, x, x, x, x, x]\n")
	for i := 1; i <= levels; i++ {
		fmt.Fprintf(&b, "a%d: &a%d [", i, i)
		for j := 0; j < 10; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*a%d", i-1)
		}
		b.WriteString("]\n")
	}
	return b.String()
}

func TestDecodeYAML_AliasExpansionIsBounded(t *testing.T) {
	start := time.Now()
	_, err := DecodeYAML([]byte(chainedAliases(7)))
	assert.ErrorIs(t, err, ErrYAMLTooLarge)
	assert.Less(t, time.Since(start), 2*time.Second)

	v, err := DecodeYAML([]byte(chainedAliases(2)))
	require.NoError(t, err)
	a2, ok := v.(Record).Get("a2")
	require.True(t, ok)
	assert.Len(t, a2, 10)
	assert.Len(t, a2.([]any)[0], 10)
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	c := Collection{
		FromPairs("id", 1, "name", "a", "meta", FromPairs("k", []any{1, 2.5, "x"})),
		FromPairs("id", 2, "name", nil, "ok", false),
	}
	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"a","meta":{"k":[1,2.5,"x"]}},{"id":2,"name":null,"ok":false}]`, string(data))

	v, err := DecodeJSON(data)
	require.NoError(t, err)
	arr := v.([]any)
	back := make(Collection, len(arr))
	for i, e := range arr {
		back[i] = e.(Record)
	}
	assert.True(t, EqualCollections(c, back))
}

func TestCollection_MarshalNil(t *testing.T) {
	data, err := json.Marshal(Collection(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	inner := FromPairs("x", 1)
	r := FromPairs("inner", inner)
	cp := r.Clone()

	inner.Set("x", int64(99))
	v, _ := cp.Lookup("inner.x")
	assert.Equal(t, int64(1), v)
}
