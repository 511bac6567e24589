// Package datastore stages working-context files for sandboxed executions.
// Files are cached by sha256 so a dataset shared by many chat turns is
// fetched once, then materialized into a fresh read-only directory per
// execution.
package datastore

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/programme-lv/analyst/api"
)

// DownloadFunc fetches url into path. Implementations handle transport and
// decompression.
type DownloadFunc func(url string, path string) error

type entry struct {
	done chan struct{}
	err  error
}

// DataStore is a sha256-keyed file cache with background downloads.
type DataStore struct {
	fileDir  string
	tmpDir   string
	download DownloadFunc

	mu      sync.Mutex
	pending map[string]*entry
}

func New(fileDir string, tmpDir string, download DownloadFunc) (*DataStore, error) {
	if err := os.MkdirAll(fileDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data store directory: %w", err)
	}
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}
	return &DataStore{
		fileDir:  fileDir,
		tmpDir:   tmpDir,
		download: download,
		pending:  map[string]*entry{},
	}, nil
}

// Schedule starts fetching the file for sha in the background unless it is
// cached or already scheduled.
func (ds *DataStore) Schedule(sha string, url string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, ok := ds.pending[sha]; ok {
		return
	}
	e := &entry{done: make(chan struct{})}
	ds.pending[sha] = e

	go func() {
		e.err = ds.fetch(sha, url)
		close(e.done)
	}()
}

// Put stores inline content under its sha, verifying the hash.
func (ds *DataStore) Put(sha string, content []byte) error {
	if actual := fmt.Sprintf("%x", sha256.Sum256(content)); actual != sha {
		return fmt.Errorf("content hash mismatch: got %s, want %s", actual, sha)
	}
	return os.WriteFile(ds.path(sha), content, 0644)
}

// Await blocks until the file for sha is available and returns its cache
// path. Files never scheduled and not cached are an error, not a hang.
func (ds *DataStore) Await(sha string) (string, error) {
	if _, err := os.Stat(ds.path(sha)); err == nil {
		return ds.path(sha), nil
	}

	ds.mu.Lock()
	e, ok := ds.pending[sha]
	ds.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("file %s is not cached and was never scheduled", sha)
	}

	<-e.done
	if e.err != nil {
		return "", e.err
	}
	return ds.path(sha), nil
}

func (ds *DataStore) path(sha string) string {
	return filepath.Join(ds.fileDir, sha)
}

func (ds *DataStore) fetch(sha string, url string) error {
	if _, err := os.Stat(ds.path(sha)); err == nil {
		return nil
	}

	tmpPath := filepath.Join(ds.tmpDir, sha)
	if err := ds.download(url, tmpPath); err != nil {
		return fmt.Errorf("failed to download file %s: %w", sha, err)
	}

	content, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to read downloaded file %s: %w", sha, err)
	}
	if actual := fmt.Sprintf("%x", sha256.Sum256(content)); actual != sha {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("file %s integrity check failed: got %s", sha, actual)
	}

	if err := os.Rename(tmpPath, ds.path(sha)); err != nil {
		return fmt.Errorf("failed to move file %s into the store: %w", sha, err)
	}
	return nil
}

// Materialize stages every context file and lays them out under their
// user-facing filenames in a fresh directory, ready to be mounted read-only
// into a box. The caller owns removal of the returned directory.
func (ds *DataStore) Materialize(files []api.ContextFile) (string, error) {
	for _, f := range files {
		switch {
		case f.Sha256 == nil:
			return "", fmt.Errorf("context file %s has no sha256", f.Fname)
		case f.Content != nil:
			if err := ds.Put(*f.Sha256, []byte(*f.Content)); err != nil {
				return "", fmt.Errorf("failed to store context file %s: %w", f.Fname, err)
			}
		case f.Url != nil:
			ds.Schedule(*f.Sha256, *f.Url)
		}
	}

	dir, err := os.MkdirTemp("", "analyst-context-*")
	if err != nil {
		return "", err
	}

	for _, f := range files {
		cached, err := ds.Await(*f.Sha256)
		if err != nil {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("context file %s unavailable: %w", f.Fname, err)
		}
		if !filepath.IsLocal(f.Fname) {
			_ = os.RemoveAll(dir)
			return "", fmt.Errorf("context file has a non-local name: %s", f.Fname)
		}
		content, err := os.ReadFile(cached)
		if err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
		target := filepath.Join(dir, f.Fname)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
		if err := os.WriteFile(target, content, 0444); err != nil {
			_ = os.RemoveAll(dir)
			return "", err
		}
	}

	return dir, nil
}
