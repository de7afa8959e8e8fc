package reader

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fixtures/internal/storage"
)

func TestFS_ReadsRelativeToRoot(t *testing.T) {
	mem := memfs.New()
	require.NoError(t, util.WriteFile(mem, "data/users.json", []byte(`[{"id":1}]`), 0o644))
	read := FS(mem)

	text, err := read(context.Background(), "data/users.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, text)

	text, err = read(context.Background(), "file://data/users.json")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, text)

	_, err = read(context.Background(), "data/missing.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users":
			w.Write([]byte(`[{"id":1}]`))
		case "/boom":
			http.Error(w, "exploded", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	read := HTTP(srv.Client())

	text, err := read(context.Background(), srv.URL+"/users")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, text)

	_, err = read(context.Background(), srv.URL+"/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = read(context.Background(), srv.URL+"/boom")
	require.Error(t, err)
	assert.NotErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "500")
}

type stubSnapshots map[string]string

func (s stubSnapshots) Load(_ context.Context, name string) (string, error) {
	text, ok := s[name]
	if !ok {
		return "", storage.ErrNotFound
	}
	return text, nil
}

func TestSnapshots(t *testing.T) {
	read := Snapshots(stubSnapshots{"run-1": `[{"ok":true}]`})

	text, err := read(context.Background(), "results://run-1")
	require.NoError(t, err)
	assert.Equal(t, `[{"ok":true}]`, text)

	_, err = read(context.Background(), "results://run-2")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMux_DispatchesByPrefix(t *testing.T) {
	tagged := func(tag string) func(context.Context, string) (string, error) {
		return func(_ context.Context, path string) (string, error) { return tag + ":" + path, nil }
	}
	m := NewMux(tagged("fs")).
		Handle("http://", tagged("http")).
		Handle("https://", tagged("http")).
		Handle(SnapshotScheme, tagged("snap"))

	tests := []struct {
		path string
		want string
	}{
		{"users.json", "fs:users.json"},
		{"https://x/y", "http:https://x/y"},
		{"results://r", "snap:results://r"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			got, err := m.Read(context.Background(), tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	assert.True(t, m.IsLocal("users.json"))
	assert.False(t, m.IsLocal("results://r"))
}

func TestMux_NoFallback(t *testing.T) {
	_, err := NewMux(nil).Read(context.Background(), "x.json")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
