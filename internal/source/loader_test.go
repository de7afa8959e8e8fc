package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixtures/internal/record"
)

// ── helpers ────────────────────────────────────────────────

func memReader(files map[string]string) ReadFunc {
	return func(_ context.Context, path string) (string, error) {
		text, ok := files[path]
		if !ok {
			return "", fmt.Errorf("open %s: %w", path, fs.ErrNotExist)
		}
		return text, nil
	}
}

type fakeGenerators struct {
	calls []GeneratedPath
}

func (f *fakeGenerators) Generate(scenario string, count int, seed *int64) (record.Collection, error) {
	f.calls = append(f.calls, GeneratedPath{Scenario: scenario, Count: count, Seed: seed})
	if scenario != "login" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, scenario)
	}
	out := make(record.Collection, count)
	for i := range out {
		out[i] = record.FromPairs("n", i)
	}
	return out, nil
}

func load(t *testing.T, l *Loader, d Descriptor) record.Collection {
	t.Helper()
	c, err := l.Load(context.Background(), d)
	require.NoError(t, err)
	return c
}

// ── JSON ───────────────────────────────────────────────────

func TestLoad_JSONArray(t *testing.T) {
	l := NewLoader(memReader(map[string]string{
		"users.json": `[{"id": 1, "name": "ana", "score": 9.5}, {"id": 2, "name": "bo", "score": null}]`,
	}), nil, time.Second)

	c := load(t, l, Descriptor{Path: "users.json", Format: FormatJSON})
	require.Len(t, c, 2)
	assert.Equal(t, []string{"id", "name", "score"}, c[0].Keys())
	id, _ := c[1].Get("id")
	assert.Equal(t, int64(2), id)
}

func TestLoad_JSONSingleObjectIsWrapped(t *testing.T) {
	l := NewLoader(memReader(map[string]string{"one.json": `{"id": 7}`}), nil, 0)
	c := load(t, l, Descriptor{Path: "one.json", Format: FormatJSON})
	require.Len(t, c, 1)
	assert.True(t, record.Equal(record.FromPairs("id", 7), c[0]))
}

func TestLoad_JSONRoundTrip(t *testing.T) {
	files := map[string]string{
		"a.json": `[{"id":1,"tags":["x","y"],"addr":{"city":"Porto","zip":"4000"},"ok":true,"n":null,"f":-0.25}]`,
	}
	l := NewLoader(memReader(files), nil, 0)
	first := load(t, l, Descriptor{Path: "a.json", Format: FormatJSON})

	data, err := json.Marshal(first)
	require.NoError(t, err)
	files["b.json"] = string(data)

	second := load(t, l, Descriptor{Path: "b.json", Format: FormatJSON})
	assert.True(t, record.EqualCollections(first, second))
	assert.Equal(t, first[0].Keys(), second[0].Keys())
}

func TestLoad_JSONParseErrors(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantLine int
	}{
		{"syntax on second line", "[\n{\"a\": 1,}]", 2},
		{"top-level scalar", `42`, 0},
		{"array of scalars", `[1, 2]`, 0},
		{"truncated", "[{\"a\": 1}", 1},
		{"empty", "  \n", 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewLoader(memReader(map[string]string{"x.json": tc.text}), nil, 0)
			_, err := l.Load(context.Background(), Descriptor{Path: "x.json", Format: FormatJSON})
			require.ErrorIs(t, err, ErrParse)

			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.wantLine, pe.Line)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, "x.json", le.Descriptor.Path)
		})
	}
}

// ── CSV ────────────────────────────────────────────────────

func TestLoad_CSVCoercesEachCell(t *testing.T) {
	text := "id,name,price,code,note\n" +
		" 1 , ana ,9.50 ,007,\n" +
		"-2,\"b, o\",0.5,1e3, 1. \n"
	l := NewLoader(memReader(map[string]string{"p.csv": text}), nil, 0)
	c := load(t, l, Descriptor{Path: "p.csv", Format: FormatCSV})
	require.Len(t, c, 2)

	// numbers are recognised on the trimmed cell; strings keep their spaces
	want := []record.Record{
		record.FromPairs("id", int64(1), "name", " ana ", "price", 9.5, "code", "007", "note", ""),
		record.FromPairs("id", int64(-2), "name", "b, o", "price", 0.5, "code", "1e3", "note", " 1. "),
	}
	for i := range want {
		assert.True(t, record.Equal(want[i], c[i]), "row %d: %v", i, c[i].Map())
	}
	assert.Equal(t, []string{"id", "name", "price", "code", "note"}, c[0].Keys())
}

func TestLoad_CSVEdgeCases(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		l := NewLoader(memReader(map[string]string{"e.csv": ""}), nil, 0)
		assert.Empty(t, load(t, l, Descriptor{Path: "e.csv", Format: FormatCSV}))
	})
	t.Run("header only", func(t *testing.T) {
		l := NewLoader(memReader(map[string]string{"h.csv": "a,b\n"}), nil, 0)
		assert.Empty(t, load(t, l, Descriptor{Path: "h.csv", Format: FormatCSV}))
	})
	t.Run("bom and blank header", func(t *testing.T) {
		l := NewLoader(memReader(map[string]string{"b.csv": "\xef\xbb\xbfa,\n1,2\n"}), nil, 0)
		c := load(t, l, Descriptor{Path: "b.csv", Format: FormatCSV})
		require.Len(t, c, 1)
		assert.Equal(t, []string{"a", "col_2"}, c[0].Keys())
	})
	t.Run("ragged row", func(t *testing.T) {
		l := NewLoader(memReader(map[string]string{"r.csv": "a,b\n1,2\n3\n"}), nil, 0)
		_, err := l.Load(context.Background(), Descriptor{Path: "r.csv", Format: FormatCSV})
		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, 3, pe.Line)
	})
	t.Run("duplicate header", func(t *testing.T) {
		l := NewLoader(memReader(map[string]string{"d.csv": "a,a\n1,2\n"}), nil, 0)
		_, err := l.Load(context.Background(), Descriptor{Path: "d.csv", Format: FormatCSV})
		assert.ErrorIs(t, err, ErrParse)
	})
}

// ── YAML ───────────────────────────────────────────────────

func TestLoad_YAMLMatchesJSON(t *testing.T) {
	l := NewLoader(memReader(map[string]string{
		"u.yaml": "- id: 1\n  name: ana\n  tags: [a, b]\n- id: 2\n  name: bo\n  tags: []\n",
		"u.json": `[{"id":1,"name":"ana","tags":["a","b"]},{"id":2,"name":"bo","tags":[]}]`,
	}), nil, 0)

	fromYAML := load(t, l, Descriptor{Path: "u.yaml", Format: FormatYAML})
	fromJSON := load(t, l, Descriptor{Path: "u.json", Format: FormatJSON})
	assert.True(t, record.EqualCollections(fromJSON, fromYAML))
}

func TestLoad_YAMLParseError(t *testing.T) {
	l := NewLoader(memReader(map[string]string{"bad.yaml": "key: [unclosed\n"}), nil, 0)
	_, err := l.Load(context.Background(), Descriptor{Path: "bad.yaml", Format: FormatYAML})
	assert.ErrorIs(t, err, ErrParse)
}

func TestLoad_YAMLAliasBombIsAParseError(t *testing.T) {
	doc := "l0: &l0 [x, x, x, x, x, x, x, x, x, x]\n"
	for i := 1; i <= 7; i++ {
		doc += fmt.Sprintf("l%d: &l%d [%s]\n", i, i,
			strings.TrimSuffix(strings.Repeat(fmt.Sprintf("*l%d, ", i-1), 10), ", "))
	}
	l := NewLoader(memReader(map[string]string{"bomb.yaml": doc}), nil, 0)

	_, err := l.Load(context.Background(), Descriptor{Path: "bomb.yaml", Format: FormatYAML})
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorContains(t, err, "node limit")
}

// ── selector ───────────────────────────────────────────────

func TestLoad_Selector(t *testing.T) {
	doc := `{"data": {"users": [{"z": 1, "a": "first"}, {"z": 2, "a": "second"}], "total": 2}}`
	l := NewLoader(memReader(map[string]string{"doc.json": doc}), nil, 0)

	t.Run("wildcard keeps field order", func(t *testing.T) {
		c := load(t, l, Descriptor{Path: "doc.json", Format: FormatJSON, Selector: "$.data.users[*]"})
		require.Len(t, c, 2)
		assert.Equal(t, []string{"z", "a"}, c[0].Keys())
		a, _ := c[1].Get("a")
		assert.Equal(t, "second", a)
	})
	t.Run("array match is flattened", func(t *testing.T) {
		c := load(t, l, Descriptor{Path: "doc.json", Format: FormatJSON, Selector: "$.data.users"})
		assert.Len(t, c, 2)
	})
	t.Run("scalar match is wrapped", func(t *testing.T) {
		c := load(t, l, Descriptor{Path: "doc.json", Format: FormatJSON, Selector: "$.data.total"})
		require.Len(t, c, 1)
		assert.True(t, record.Equal(record.FromPairs("value", 2), c[0]))
	})
	t.Run("no match", func(t *testing.T) {
		c := load(t, l, Descriptor{Path: "doc.json", Format: FormatJSON, Selector: "$.nothing"})
		assert.Empty(t, c)
	})
	t.Run("invalid selector", func(t *testing.T) {
		_, err := l.Load(context.Background(), Descriptor{Path: "doc.json", Format: FormatJSON, Selector: "$.data["})
		assert.ErrorIs(t, err, ErrParse)
	})
}

// ── generated ──────────────────────────────────────────────

func TestLoad_Generated(t *testing.T) {
	gens := &fakeGenerators{}
	l := NewLoader(nil, gens, 0)

	c := load(t, l, Descriptor{Path: "login?count=3&seed=42", Format: FormatGenerated})
	assert.Len(t, c, 3)
	require.Len(t, gens.calls, 1)
	require.NotNil(t, gens.calls[0].Seed)
	assert.Equal(t, int64(42), *gens.calls[0].Seed)

	c = load(t, l, Descriptor{Path: "generated://login", Format: FormatGenerated})
	assert.Len(t, c, DefaultGeneratedCount)
	assert.Nil(t, gens.calls[1].Seed)

	_, err := l.Load(context.Background(), Descriptor{Path: "checkout", Format: FormatGenerated})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	_, err = l.Load(context.Background(), Descriptor{Path: "login?count=x", Format: FormatGenerated})
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseGeneratedPath(t *testing.T) {
	gp, err := ParseGeneratedPath("payment?seed=-5&count=0")
	require.NoError(t, err)
	assert.Equal(t, "payment", gp.Scenario)
	assert.Equal(t, 0, gp.Count)
	require.NotNil(t, gp.Seed)
	assert.Equal(t, int64(-5), *gp.Seed)
	assert.Equal(t, "payment?count=0&seed=-5", gp.String())

	_, err = ParseGeneratedPath("?count=1")
	assert.Error(t, err)
}

// ── failures ───────────────────────────────────────────────

func TestLoad_NotFound(t *testing.T) {
	l := NewLoader(memReader(nil), nil, 0)
	_, err := l.Load(context.Background(), Descriptor{Path: "missing.json", Format: FormatJSON})
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	read := func(context.Context, string) (string, error) {
		t.Fatal("reader must not be called for an unsupported format")
		return "", nil
	}
	l := NewLoader(read, nil, 0)
	_, err := l.Load(context.Background(), Descriptor{Path: "x.xml", Format: "xml"})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_Timeout(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	slow := func(ctx context.Context, _ string) (string, error) {
		<-release
		return "[]", nil
	}
	l := NewLoader(slow, nil, 20*time.Millisecond)

	start := time.Now()
	_, err := l.Load(context.Background(), Descriptor{Path: "slow.json", Format: FormatJSON})
	assert.ErrorIs(t, err, ErrSourceTimeout)
	assert.Less(t, time.Since(start), time.Second)
}

func TestLoad_CallerCancelIsNotTimeout(t *testing.T) {
	block := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	l := NewLoader(block, nil, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := l.Load(ctx, Descriptor{Path: "x.json", Format: FormatJSON})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrSourceTimeout))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDescriptorKey_SeparatesEnvironments(t *testing.T) {
	base := Descriptor{Path: "users.json", Format: FormatJSON}
	staging := base
	staging.Environment = "staging"
	csvFmt := base
	csvFmt.Format = FormatCSV
	sel := base
	sel.Selector = "$[0]"

	keys := map[string]bool{}
	for _, d := range []Descriptor{base, staging, csvFmt, sel} {
		keys[d.Key()] = true
	}
	assert.Len(t, keys, 4)
	assert.Equal(t, base.Key(), Descriptor{Path: "users.json", Format: FormatJSON}.Key())
}

func TestKeyPath(t *testing.T) {
	for _, d := range []Descriptor{
		{Path: "users.json", Format: FormatJSON},
		{Path: "data/a|b.yaml", Format: FormatYAML, Environment: "qa|eu", Selector: "$.items[*]"},
		{Path: "login?count=3", Format: FormatGenerated},
	} {
		assert.Equal(t, d.Path, KeyPath(d.Key()))
	}
}
