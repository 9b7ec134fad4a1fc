package drive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*httptest.Server, map[string][]byte) {
	t.Helper()
	objects := map[string][]byte{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"missing file"}`, http.StatusBadRequest)
			return
		}
		defer f.Close()
		buf := make([]byte, hdr.Size)
		f.Read(buf)
		objects["obj-"+hdr.Filename] = buf
		json.NewEncoder(w).Encode(map[string]any{"id": "obj-" + hdr.Filename, "name": hdr.Filename})
	})
	mux.HandleFunc("GET /api/v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := objects[id]; !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"id": id, "name": id[len("obj-"):]})
	})
	mux.HandleFunc("GET /api/v1/files/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		data, ok := objects[r.PathValue("id")]
		if !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		w.Write(data)
	})
	mux.HandleFunc("PUT /api/v1/files/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if _, ok := objects[id]; !ok {
			http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
			return
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, `{"error":"missing file"}`, http.StatusBadRequest)
			return
		}
		defer f.Close()
		buf := make([]byte, hdr.Size)
		f.Read(buf)
		objects[id] = buf
		w.WriteHeader(http.StatusNoContent)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, objects
}

func TestUploadDownloadUpdate(t *testing.T) {
	srv, objects := newTestServer(t)
	api, err := NewAPI(srv.URL, "test-token")
	require.NoError(t, err)

	dir := t.TempDir()
	src := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0o644))

	id, err := api.Upload(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "obj-notes.txt", id)
	assert.Equal(t, []byte("v1"), objects[id])

	// Download to an explicit file path.
	dest := filepath.Join(dir, "copy.txt")
	local, err := api.Download(context.Background(), id, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, local)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	// Download into a directory uses the remote name.
	destDir := filepath.Join(dir, "pulled")
	require.NoError(t, os.MkdirAll(destDir, 0o755))
	local, err = api.Download(context.Background(), id, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "notes.txt"), local)

	// Update replaces remote content in place.
	require.NoError(t, os.WriteFile(src, []byte("v2"), 0o644))
	require.NoError(t, api.Update(context.Background(), src, id))
	assert.Equal(t, []byte("v2"), objects[id])

	assertNoPartials(t, dir)
	assertNoPartials(t, destDir)
}

// assertNoPartials checks that no in-flight download files were left behind.
func assertNoPartials(t *testing.T, dir string) {
	t.Helper()
	leftovers, err := filepath.Glob(filepath.Join(dir, "*.partial-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestUploadMissingFile(t *testing.T) {
	srv, _ := newTestServer(t)
	api, err := NewAPI(srv.URL, "")
	require.NoError(t, err)

	_, err = api.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestDownloadUnknownID(t *testing.T) {
	srv, _ := newTestServer(t)
	api, err := NewAPI(srv.URL, "")
	require.NoError(t, err)

	_, err = api.Download(context.Background(), "obj-nope", filepath.Join(t.TempDir(), "out.txt"))
	assert.Error(t, err)
}

func TestDownloadFailureKeepsDestination(t *testing.T) {
	srv, _ := newTestServer(t)
	api, err := NewAPI(srv.URL, "")
	require.NoError(t, err)

	dir := t.TempDir()
	dest := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	_, err = api.Download(context.Background(), "obj-nope", dest)
	require.Error(t, err)

	// The old file survives and no partial download is left next to it.
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("previous"), data)
	assertNoPartials(t, dir)
}

func TestNewAPIRequiresBaseURL(t *testing.T) {
	_, err := NewAPI("", "")
	assert.Error(t, err)
}
