// Package artifact stores generated binary artifacts (chart images) and
// hands back dereferenceable URLs. The core never assumes a particular
// backend, only this interface.
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists one artifact and returns a URL the UI layer can load.
type Store interface {
	StoreArtifact(ctx context.Context, payload []byte, sessionId string, correlationId string) (string, error)
}

// FSStore writes artifacts to a local directory and returns file:// URLs.
// Used for local runs and tests.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) StoreArtifact(_ context.Context, payload []byte, sessionId string, correlationId string) (string, error) {
	name := fmt.Sprintf("%s-%s-%s.png", sessionId, correlationId, uuid.NewString()[:8])
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return "file://" + path, nil
}
