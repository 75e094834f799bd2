package source

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileLoadFileRoundTrip(t *testing.T) {
	original := Generate(Options{Tweets: 5, Seed: 99})
	path := filepath.Join(t.TempDir(), "logs", "run.jsonl")

	require.NoError(t, WriteFile(path, original), "parent directories are created")

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.jsonl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoadURL(t *testing.T) {
	original := Generate(Options{Tweets: 3, Seed: 5})
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	loaded, err := Load(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}

func TestLoadURLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := LoadURL(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadDispatchesToFile(t *testing.T) {
	original := Generate(Options{Tweets: 2, Seed: 11})
	path := filepath.Join(t.TempDir(), "run.jsonl")
	require.NoError(t, WriteFile(path, original))

	loaded, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, original, loaded)
}
