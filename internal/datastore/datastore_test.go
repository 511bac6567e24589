package datastore_test

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/programme-lv/analyst/api"
	"github.com/programme-lv/analyst/internal/datastore"
	"github.com/stretchr/testify/require"
)

func shaOf(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

func fakeDownload(t *testing.T, files map[string][]byte) (datastore.DownloadFunc, *int) {
	t.Helper()
	calls := 0
	return func(url string, path string) error {
		calls++
		content, ok := files[url]
		if !ok {
			return fmt.Errorf("no such object: %s", url)
		}
		return os.WriteFile(path, content, 0644)
	}, &calls
}

func newStore(t *testing.T, download datastore.DownloadFunc) *datastore.DataStore {
	t.Helper()
	ds, err := datastore.New(t.TempDir(), t.TempDir(), download)
	require.NoError(t, err)
	return ds
}

func TestScheduleAndAwait(t *testing.T) {
	content := []byte("a,b\n1,2\n")
	download, _ := fakeDownload(t, map[string][]byte{"https://x/sales.csv": content})
	ds := newStore(t, download)

	sha := shaOf(content)
	ds.Schedule(sha, "https://x/sales.csv")

	path, err := ds.Await(sha)
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestScheduleIsIdempotent(t *testing.T) {
	content := []byte("payload")
	download, calls := fakeDownload(t, map[string][]byte{"https://x/f": content})
	ds := newStore(t, download)

	sha := shaOf(content)
	ds.Schedule(sha, "https://x/f")
	ds.Schedule(sha, "https://x/f")

	_, err := ds.Await(sha)
	require.NoError(t, err)
	require.Equal(t, 1, *calls)
}

func TestAwaitUnknownShaFailsFast(t *testing.T) {
	download, _ := fakeDownload(t, nil)
	ds := newStore(t, download)

	_, err := ds.Await("deadbeef")
	require.Error(t, err)
}

func TestIntegrityCheckRejectsTamperedContent(t *testing.T) {
	download, _ := fakeDownload(t, map[string][]byte{"https://x/f": []byte("tampered")})
	ds := newStore(t, download)

	ds.Schedule(shaOf([]byte("original")), "https://x/f")
	_, err := ds.Await(shaOf([]byte("original")))
	require.ErrorContains(t, err, "integrity check failed")
}

func TestPutVerifiesHash(t *testing.T) {
	download, _ := fakeDownload(t, nil)
	ds := newStore(t, download)

	content := []byte("inline data")
	require.NoError(t, ds.Put(shaOf(content), content))
	require.Error(t, ds.Put(shaOf([]byte("other")), content))
}

func strPtr(s string) *string { return &s }

func TestMaterializeLaysOutContextDir(t *testing.T) {
	csv := []byte("region,total\nnorth,10\n")
	download, _ := fakeDownload(t, map[string][]byte{"https://x/sales.csv": csv})
	ds := newStore(t, download)

	inline := "note text"
	dir, err := ds.Materialize([]api.ContextFile{
		{Fname: "sales.csv", Sha256: strPtr(shaOf(csv)), Url: strPtr("https://x/sales.csv")},
		{Fname: "notes.txt", Sha256: strPtr(shaOf([]byte(inline))), Content: &inline},
	})
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	got, err := os.ReadFile(filepath.Join(dir, "sales.csv"))
	require.NoError(t, err)
	require.Equal(t, csv, got)

	info, err := os.Stat(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0444), info.Mode().Perm())
}

func TestMaterializeRejectsEscapingFname(t *testing.T) {
	download, _ := fakeDownload(t, nil)
	ds := newStore(t, download)

	content := "x"
	_, err := ds.Materialize([]api.ContextFile{
		{Fname: "../evil.csv", Sha256: strPtr(shaOf([]byte(content))), Content: &content},
	})
	require.ErrorContains(t, err, "non-local")
}
